package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
)

// TokenProvider yields a usable access token for a stored identity,
// refreshing it first when it has expired.
type TokenProvider interface {
	EnsureAccessToken(ctx context.Context, spotifyID string) (string, error)
}

// PlaylistLister is the slice of the Spotify client the listing route needs.
type PlaylistLister interface {
	CurrentUserPlaylists(ctx context.Context, accessToken string) (*services.SpotifyPaginatedPlaylists, error)
}

// SpotifyHandler serves the routes that talk to the remote service on behalf
// of a stored identity: the live playlist listing and the mirror sync.
type SpotifyHandler struct {
	tokens TokenProvider
	api    PlaylistLister
	syncer PlaylistSyncer
	logger *log.Logger
}

func NewSpotifyHandler(tokens TokenProvider, api PlaylistLister, syncer PlaylistSyncer, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{tokens: tokens, api: api, syncer: syncer, logger: logger}
}

func (h *SpotifyHandler) Routes() []string {
	return []string{
		"GET /spotify/playlists",
		"GET /spotify/sync-playlists",
	}
}

func (h *SpotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/spotify/playlists":
		h.listPlaylists(w, r)
	case "/spotify/sync-playlists":
		h.syncPlaylists(w, r)
	default:
		http.NotFound(w, r)
	}
}

// ownerToken resolves the ownerId query parameter to a live access token.
func (h *SpotifyHandler) ownerToken(r *http.Request) (string, string, error) {
	ownerID := r.URL.Query().Get("ownerId")
	if ownerID == "" {
		return "", "", fmt.Errorf("%w: ownerId is required", shared.ErrValidation)
	}

	token, err := h.tokens.EnsureAccessToken(r.Context(), ownerID)
	if err != nil {
		return "", "", err
	}
	return ownerID, token, nil
}

// listPlaylists returns the caller's remote playlists in remote shape,
// filtered down to playlists the caller owns.
func (h *SpotifyHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	ownerID, token, err := h.ownerToken(r)
	if err != nil {
		respondError(w, err)
		return
	}

	listing, err := h.api.CurrentUserPlaylists(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}

	// Remote payload shape is preserved; only items is replaced with the
	// owner-filtered slice.
	owned := []services.SpotifyPlaylist{}
	for _, p := range listing.Items {
		if p.Owner.ID == ownerID {
			owned = append(owned, p)
		}
	}
	listing.Items = owned

	respondJSON(w, http.StatusOK, listing)
}

func (h *SpotifyHandler) syncPlaylists(w http.ResponseWriter, r *http.Request) {
	ownerID, token, err := h.ownerToken(r)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.syncer.Sync(r.Context(), token, ownerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
