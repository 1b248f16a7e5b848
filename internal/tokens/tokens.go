// Package tokens implements the per-user token lifecycle.
//
// The lifecycle is driven lazily on each access attempt: a stored identity is
// either VALID (expiry in the future, decrypt and return) or EXPIRED (refresh
// against the remote service, persist the rotated pair, return the new
// token). Persistence is all-or-nothing: a failed refresh leaves the stored
// record untouched.
//
// The check-then-refresh sequence takes no lock; two concurrent requests for
// the same user can both observe EXPIRED and both refresh, with the last
// writer winning. Refresh is idempotent on the remote side, so the race costs
// a redundant call, not correctness.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/secrets"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
)

// IdentityStore is the slice of the identity repository the manager needs.
type IdentityStore interface {
	Create(identity *models.Identity) error
	GetBySpotifyID(spotifyID string) (*models.Identity, error)
	UpdateTokens(spotifyID string, access, refresh secrets.Envelope, expiresAt time.Time) error
}

// AuthClient performs the refresh grant against the remote token endpoint.
type AuthClient interface {
	Refresh(ctx context.Context, refreshToken string) (*services.TokenSet, error)
}

// Manager ensures a valid access token is available for a user, refreshing
// and re-encrypting transparently when the stored one has expired.
type Manager struct {
	identities IdentityStore
	auth       AuthClient
	codec      *secrets.Codec
	logger     *log.Logger
}

// NewManager creates a token lifecycle manager.
func NewManager(identities IdentityStore, auth AuthClient, codec *secrets.Codec, logger *log.Logger) *Manager {
	return &Manager{
		identities: identities,
		auth:       auth,
		codec:      codec,
		logger:     logger,
	}
}

// EnsureAccessToken returns a decrypted, unexpired access token for the user,
// refreshing and persisting rotation first when needed.
func (m *Manager) EnsureAccessToken(ctx context.Context, spotifyID string) (string, error) {
	identity, err := m.identities.GetBySpotifyID(spotifyID)
	if err != nil {
		return "", err
	}

	if !identity.Expired(time.Now()) {
		token, err := m.codec.Decrypt(identity.AccessToken)
		if err != nil {
			return "", fmt.Errorf("access token unusable: %w", err)
		}
		return token, nil
	}

	return m.refresh(ctx, identity)
}

// refresh performs the EXPIRED transition: decrypt the stored refresh token,
// exchange it, then persist the re-encrypted pair. Nothing is written unless
// the remote call succeeded.
func (m *Manager) refresh(ctx context.Context, identity *models.Identity) (string, error) {
	refreshToken, err := m.codec.Decrypt(identity.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token unusable: %w", err)
	}

	tokens, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	access, err := m.codec.Encrypt(tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt access token: %w", err)
	}

	// The remote service may not rotate the refresh token; keep the prior
	// envelope when it doesn't.
	refreshEnvelope := identity.RefreshToken
	if tokens.RefreshToken != "" {
		refreshEnvelope, err = m.codec.Encrypt(tokens.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	if err := m.identities.UpdateTokens(identity.SpotifyID, access, refreshEnvelope, expiresAt); err != nil {
		return "", err
	}

	m.logger.Debug("refreshed access token", "spotify_id", identity.SpotifyID, "expires_at", expiresAt)
	return tokens.AccessToken, nil
}

// StoreIdentity encrypts and persists a freshly exchanged token set for the
// user, creating the identity record on first login and replacing the token
// material on every one after that.
func (m *Manager) StoreIdentity(spotifyID string, tokens *services.TokenSet) error {
	if tokens.RefreshToken == "" {
		return fmt.Errorf("%w: token exchange returned no refresh token", shared.ErrAuthFailed)
	}

	access, err := m.codec.Encrypt(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := m.codec.Encrypt(tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	_, err = m.identities.GetBySpotifyID(spotifyID)
	if err == nil {
		return m.identities.UpdateTokens(spotifyID, access, refresh, expiresAt)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	identity := &models.Identity{
		SpotifyID:      spotifyID,
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenExpiresAt: expiresAt,
	}
	return m.identities.Create(identity)
}
