package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
)

// CreateResult carries the persisted record and the raw payload the remote
// service answered the creation with.
type CreateResult struct {
	Record *models.Playlist
	Remote *services.SpotifyPlaylist
}

// Create makes a playlist both remotely and locally.
//
// The duplicate-name check is a pre-check, not a storage constraint: two
// concurrent creations with the same (owner, name) can both pass it and both
// create a remote resource. That window is accepted, matching the original
// behavior.
//
// The remote resource is created first (public visibility); the local record
// is then written from the authoritative metadata the service returns, since
// the service may normalize the requested name. Remote failure writes
// nothing locally.
func (m *Mirror) Create(ctx context.Context, ownerID, name, accessToken string) (*CreateResult, error) {
	_, err := m.playlists.GetByName(ownerID, name)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", shared.ErrPlaylistExists, name)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		// A broken store must not reach the remote service: creating
		// there and then failing locally would orphan the remote
		// resource.
		return nil, err
	}

	remote, err := m.api.CreatePlaylist(ctx, accessToken, ownerID, name)
	if err != nil {
		return nil, err
	}

	record := recordFromRemote(ownerID, remote)
	if err := m.playlists.Create(record); err != nil {
		return nil, err
	}

	m.logger.Info("playlist created", "owner_id", ownerID, "spotify_id", remote.ID, "name", record.Name)

	return &CreateResult{Record: record, Remote: remote}, nil
}
