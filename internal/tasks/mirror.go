package tasks

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
)

// PlaylistAPI is the slice of the Spotify client the mirror needs.
type PlaylistAPI interface {
	CurrentUserPlaylists(ctx context.Context, accessToken string) (*services.SpotifyPaginatedPlaylists, error)
	CreatePlaylist(ctx context.Context, accessToken, userID, name string) (*services.SpotifyPlaylist, error)
}

// PlaylistStore is the slice of the playlist repository the mirror needs.
type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	GetByRemoteID(ownerID, spotifyID string) (*models.Playlist, error)
	GetByName(ownerID, name string) (*models.Playlist, error)
	Patch(id string, fields map[string]any) error
}

// SyncResult reports what one reconciliation pass changed.
type SyncResult struct {
	Inserted    []models.Playlist `json:"inserted"`
	Updated     []models.Playlist `json:"updated"`
	RemoteTotal int               `json:"remoteTotal"`
}

// Mirror reconciles remote playlists into the local mirror collection.
type Mirror struct {
	api       PlaylistAPI
	playlists PlaylistStore
	logger    *log.Logger
}

// NewMirror creates a playlist mirror.
func NewMirror(api PlaylistAPI, playlists PlaylistStore, logger *log.Logger) *Mirror {
	return &Mirror{api: api, playlists: playlists, logger: logger}
}

// Sync fetches the caller's remote playlists and reconciles them against
// local records. Only playlists whose remote-reported owner equals ownerID
// are considered; the listing endpoint also returns playlists the user
// merely follows.
func (m *Mirror) Sync(ctx context.Context, accessToken, ownerID string) (*SyncResult, error) {
	listing, err := m.api.CurrentUserPlaylists(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Inserted: []models.Playlist{},
		Updated:  []models.Playlist{},
	}

	for _, remote := range listing.Items {
		if remote.Owner.ID != ownerID {
			continue
		}
		result.RemoteTotal++

		existing, err := m.playlists.GetByRemoteID(ownerID, remote.ID)
		if errors.Is(err, shared.ErrNotFound) {
			// Not mirrored yet: discovery of a pre-existing remote resource.
			record := recordFromRemote(ownerID, &remote)
			if err := m.playlists.Create(record); err != nil {
				return nil, err
			}
			result.Inserted = append(result.Inserted, *record)
			continue
		}
		if err != nil {
			return nil, err
		}

		patch := diffPlaylist(existing, &remote)
		if len(patch) == 0 {
			continue
		}

		if err := m.playlists.Patch(existing.ID, patch); err != nil {
			return nil, err
		}

		applyPatch(existing, patch)
		result.Updated = append(result.Updated, *existing)
	}

	m.logger.Info("playlist sync complete",
		"owner_id", ownerID,
		"remote_total", result.RemoteTotal,
		"inserted", len(result.Inserted),
		"updated", len(result.Updated),
	)

	return result, nil
}

// recordFromRemote builds a locked mirror record from a remote playlist,
// defaulting absent optional fields to empty string / zero.
func recordFromRemote(ownerID string, remote *services.SpotifyPlaylist) *models.Playlist {
	return &models.Playlist{
		OwnerID:     ownerID,
		SpotifyID:   remote.ID,
		Name:        remote.Name,
		Locked:      true,
		Description: remote.Description,
		ImageURL:    remote.Image(),
		ExternalURL: remote.Link(),
		TrackCount:  remote.Tracks.Total,
	}
}

// diffPlaylist computes the minimal patch set over the mirrored field
// whitelist. An empty map means the record matches the remote source of
// truth.
func diffPlaylist(existing *models.Playlist, remote *services.SpotifyPlaylist) map[string]any {
	patch := map[string]any{}
	if existing.Name != remote.Name {
		patch["name"] = remote.Name
	}
	if existing.Description != remote.Description {
		patch["description"] = remote.Description
	}
	if existing.ImageURL != remote.Image() {
		patch["imageUrl"] = remote.Image()
	}
	if existing.ExternalURL != remote.Link() {
		patch["externalUrl"] = remote.Link()
	}
	if existing.TrackCount != remote.Tracks.Total {
		patch["trackCount"] = remote.Tracks.Total
	}
	return patch
}

// applyPatch mirrors a patch set onto the in-memory record so sync results
// report the post-update state.
func applyPatch(p *models.Playlist, patch map[string]any) {
	if v, ok := patch["name"].(string); ok {
		p.Name = v
	}
	if v, ok := patch["description"].(string); ok {
		p.Description = v
	}
	if v, ok := patch["imageUrl"].(string); ok {
		p.ImageURL = v
	}
	if v, ok := patch["externalUrl"].(string); ok {
		p.ExternalURL = v
	}
	if v, ok := patch["trackCount"].(int); ok {
		p.TrackCount = v
	}
}
