package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/secrets"
	"github.com/lmeynard/friendship/internal/shared"
)

// IdentityRepository persists [models.Identity] records, one per Spotify user.
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new IdentityRepository with the given database connection
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts a new identity with generated ID and sequence.
// The spotify_id column is unique, so a second insert for the same user fails.
func (r *IdentityRepository) Create(identity *models.Identity) error {
	sequence, err := NextSequence(r.db, "identities")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	identity.ID = shared.GenerateID()
	identity.Sequence = sequence

	if err := identity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	query := `
		INSERT INTO identities (id, sequence, spotify_id, access_token_iv, access_token, refresh_token_iv, refresh_token, token_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		identity.ID,
		identity.Sequence,
		identity.SpotifyID,
		identity.AccessToken.IV,
		identity.AccessToken.Content,
		identity.RefreshToken.IV,
		identity.RefreshToken.Content,
		identity.TokenExpiresAt,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	return nil
}

// GetBySpotifyID retrieves an identity by the remote user id.
func (r *IdentityRepository) GetBySpotifyID(spotifyID string) (*models.Identity, error) {
	query := `
		SELECT id, sequence, spotify_id, access_token_iv, access_token, refresh_token_iv, refresh_token, token_expires_at, created_at, updated_at
		FROM identities
		WHERE spotify_id = ?
	`

	var identity models.Identity
	err := r.db.QueryRow(query, spotifyID).Scan(
		&identity.ID,
		&identity.Sequence,
		&identity.SpotifyID,
		&identity.AccessToken.IV,
		&identity.AccessToken.Content,
		&identity.RefreshToken.IV,
		&identity.RefreshToken.Content,
		&identity.TokenExpiresAt,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, spotifyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	return &identity, nil
}

// UpdateTokens replaces the token envelope pair and expiry for a user in one
// statement, leaving the rest of the record untouched.
func (r *IdentityRepository) UpdateTokens(spotifyID string, access, refresh secrets.Envelope, expiresAt time.Time) error {
	query := `
		UPDATE identities
		SET access_token_iv = ?, access_token = ?, refresh_token_iv = ?, refresh_token = ?, token_expires_at = ?, updated_at = ?
		WHERE spotify_id = ?
	`

	result, err := r.db.Exec(query,
		access.IV,
		access.Content,
		refresh.IV,
		refresh.Content,
		expiresAt,
		time.Now(),
		spotifyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, spotifyID)
	}

	return nil
}
