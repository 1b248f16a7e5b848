package models

import (
	"fmt"
	"time"

	"github.com/lmeynard/friendship/internal/secrets"
	"github.com/lmeynard/friendship/internal/shared"
)

// Identity associates a Spotify user with their encrypted token pair.
// Token envelopes are opaque here; only the secret codec can open them.
type Identity struct {
	ID             string
	Sequence       int
	SpotifyID      string
	AccessToken    secrets.Envelope
	RefreshToken   secrets.Envelope
	TokenExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the identity's data before persistence.
func (i *Identity) Validate() error {
	if i.SpotifyID == "" {
		return fmt.Errorf("%w: spotify id is required", shared.ErrValidation)
	}
	if i.AccessToken.Content == "" || i.RefreshToken.Content == "" {
		return fmt.Errorf("%w: token envelopes are required", shared.ErrValidation)
	}
	if i.TokenExpiresAt.IsZero() {
		return fmt.Errorf("%w: token expiry is required", shared.ErrValidation)
	}
	return nil
}

// Expired reports whether the stored access token is past its validity
// window at the given instant.
func (i *Identity) Expired(now time.Time) bool {
	return !i.TokenExpiresAt.After(now)
}

// Playlist is a local mirror record of a remote playlist.
//
// Locked means the playlist is not further editable through this system once
// mirrored; every record written by sync or local creation starts locked.
type Playlist struct {
	ID          string    `json:"id"`
	Sequence    int       `json:"-"`
	OwnerID     string    `json:"ownerId"`
	SpotifyID   string    `json:"spotifyId"`
	Name        string    `json:"name"`
	Locked      bool      `json:"locked"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	ExternalURL string    `json:"externalUrl"`
	TrackCount  int       `json:"trackCount"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Validate checks the playlist's data before persistence.
func (p *Playlist) Validate() error {
	if p.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", shared.ErrValidation)
	}
	if p.SpotifyID == "" {
		return fmt.Errorf("%w: spotify id is required", shared.ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if p.TrackCount < 0 {
		return fmt.Errorf("%w: track count cannot be negative", shared.ErrValidation)
	}
	return nil
}

// QuestionnaireResponse is one respondent's ordered answers.
type QuestionnaireResponse struct {
	RespondentID string    `json:"respondentId"`
	Answers      []string  `json:"answers"`
	RespondedAt  time.Time `json:"respondedAt"`
}

// Questionnaire gathers preferences for a playlist. Responses are
// append-only; everything else is immutable after creation.
type Questionnaire struct {
	ID         string                  `json:"id"`
	Sequence   int                     `json:"-"`
	PlaylistID string                  `json:"playlistId"`
	Questions  []string                `json:"questions"`
	Responses  []QuestionnaireResponse `json:"responses"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Validate checks the questionnaire's data before persistence.
func (q *Questionnaire) Validate() error {
	if q.PlaylistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrValidation)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", shared.ErrValidation)
	}
	for _, question := range q.Questions {
		if question == "" {
			return fmt.Errorf("%w: questions cannot be empty", shared.ErrValidation)
		}
	}
	return nil
}
