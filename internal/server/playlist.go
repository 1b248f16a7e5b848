package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/shared"
	"github.com/lmeynard/friendship/internal/tasks"
)

// PlaylistCreator is the creation path of the mirror.
type PlaylistCreator interface {
	Create(ctx context.Context, ownerID, name, accessToken string) (*tasks.CreateResult, error)
}

// PlaylistHandler serves local-authoritative playlist creation.
type PlaylistHandler struct {
	creator PlaylistCreator
	logger  *log.Logger
}

func NewPlaylistHandler(creator PlaylistCreator, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{creator: creator, logger: logger}
}

func (h *PlaylistHandler) Routes() []string {
	return []string{"POST /playlists"}
}

type createPlaylistRequest struct {
	OwnerID     string `json:"ownerId"`
	Name        string `json:"name"`
	AccessToken string `json:"accessToken"`
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.OwnerID == "" || req.Name == "" || req.AccessToken == "" {
		respondError(w, fmt.Errorf("%w: ownerId, name and accessToken are required", shared.ErrValidation))
		return
	}

	result, err := h.creator.Create(r.Context(), req.OwnerID, req.Name, req.AccessToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":         "playlist created",
		"playlistId":      result.Record.ID,
		"spotifyPlaylist": result.Remote,
	})
}
