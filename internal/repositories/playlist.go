package repositories

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/shared"
)

// playlistColumns maps the mirror's patchable field names to their columns.
// Only fields in this whitelist can ever be partially updated.
var playlistColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"imageUrl":    "image_url",
	"externalUrl": "external_url",
	"trackCount":  "track_count",
}

// PlaylistRepository persists [models.Playlist] mirror records.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new mirror record with generated ID and sequence.
// The (owner_id, spotify_id) pair is unique at the storage layer.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	query := `
		INSERT INTO playlists (id, sequence, owner_id, spotify_id, name, locked, description, image_url, external_url, track_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		playlist.ID,
		playlist.Sequence,
		playlist.OwnerID,
		playlist.SpotifyID,
		playlist.Name,
		playlist.Locked,
		playlist.Description,
		playlist.ImageURL,
		playlist.ExternalURL,
		playlist.TrackCount,
		playlist.CreatedAt,
		playlist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// GetByRemoteID retrieves the mirror record keyed by (owner, remote id).
func (r *PlaylistRepository) GetByRemoteID(ownerID, spotifyID string) (*models.Playlist, error) {
	query := selectPlaylists + " WHERE owner_id = ? AND spotify_id = ?"
	return r.scanOne(r.db.QueryRow(query, ownerID, spotifyID))
}

// GetByName retrieves a playlist by (owner, name). Used as the duplicate-name
// pre-check on local creation.
func (r *PlaylistRepository) GetByName(ownerID, name string) (*models.Playlist, error) {
	query := selectPlaylists + " WHERE owner_id = ? AND name = ?"
	return r.scanOne(r.db.QueryRow(query, ownerID, name))
}

// Patch applies a partial update containing exactly the given whitelisted
// fields. Unknown field names are rejected so the mirror can never touch
// columns outside the diffable set.
func (r *PlaylistRepository) Patch(id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic column order keeps the statement stable across runs.
	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := playlistColumns[name]; !ok {
			return fmt.Errorf("%w: field %q is not patchable", shared.ErrValidation, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	query := "UPDATE playlists SET "
	args := make([]any, 0, len(fields)+2)
	for _, name := range names {
		query += playlistColumns[name] + " = ?, "
		args = append(args, fields[name])
	}
	query += "updated_at = ? WHERE id = ?"
	args = append(args, time.Now(), id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to patch playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}

	return nil
}

// ListByOwner retrieves all mirror records for an owner in sequence order.
func (r *PlaylistRepository) ListByOwner(ownerID string) ([]*models.Playlist, error) {
	query := selectPlaylists + " WHERE owner_id = ? ORDER BY sequence ASC"

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

const selectPlaylists = `
	SELECT id, sequence, owner_id, spotify_id, name, locked, description, image_url, external_url, track_count, created_at, updated_at
	FROM playlists`

// scanOne scans a single row into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(
		&p.ID, &p.Sequence, &p.OwnerID, &p.SpotifyID, &p.Name, &p.Locked,
		&p.Description, &p.ImageURL, &p.ExternalURL, &p.TrackCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: playlist", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}

// scanPlaylist scans a row from [sql.Rows] into a [models.Playlist]
func scanPlaylist(rows *sql.Rows) (*models.Playlist, error) {
	var p models.Playlist
	err := rows.Scan(
		&p.ID, &p.Sequence, &p.OwnerID, &p.SpotifyID, &p.Name, &p.Locked,
		&p.Description, &p.ImageURL, &p.ExternalURL, &p.TrackCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}
