package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
	"github.com/lmeynard/friendship/internal/tasks"
)

const stateLength = 16

// AuthService is the slice of the Spotify client the auth flow needs.
type AuthService interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*services.TokenSet, error)
	Profile(ctx context.Context, accessToken string) (*services.SpotifyUser, error)
}

// IdentityRegistrar persists the credentials obtained during the callback.
type IdentityRegistrar interface {
	StoreIdentity(spotifyID string, tokens *services.TokenSet) error
}

// PlaylistSyncer runs the post-login mirror pass.
type PlaylistSyncer interface {
	Sync(ctx context.Context, accessToken, ownerID string) (*tasks.SyncResult, error)
}

// AuthHandler serves the OAuth authorization-code flow: the redirect to the
// provider's consent page and the callback that exchanges the code, stores
// the identity and hands the browser back to the frontend.
type AuthHandler struct {
	auth        AuthService
	identities  IdentityRegistrar
	syncer      PlaylistSyncer
	frontendURL string
	logger      *log.Logger
}

func NewAuthHandler(auth AuthService, identities IdentityRegistrar, syncer PlaylistSyncer, frontendURL string, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		identities:  identities,
		syncer:      syncer,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

func (h *AuthHandler) Routes() []string {
	return []string{
		"GET /auth/login",
		"GET /auth/callback",
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		h.login(w, r)
	case "/auth/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateState(stateLength)
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// callback completes the flow. A failed post-login sync is logged and
// swallowed: the user is authenticated either way, and the next explicit sync
// will catch up.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing authorization code"})
		return
	}

	tokens, err := h.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.auth.Profile(r.Context(), tokens.AccessToken)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.identities.StoreIdentity(profile.ID, tokens); err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.syncer.Sync(r.Context(), tokens.AccessToken, profile.ID); err != nil {
		h.logger.Error("post-login playlist sync failed", "owner_id", profile.ID, "error", err)
	}

	redirect := h.frontendURL + "?ownerId=" + url.QueryEscape(profile.ID)
	http.Redirect(w, r, redirect, http.StatusFound)
}
