// Spotify API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lmeynard/friendship/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// requestTimeout bounds every outbound call; expiry surfaces as
	// [shared.ErrTimeout].
	requestTimeout = 10 * time.Second

	// requestsPerSecond paces outbound API calls below Spotify's
	// rate-limit window.
	requestsPerSecond = 10
)

// TokenSet is the token endpoint's response to an exchange or refresh.
// RefreshToken is empty when the service chose not to rotate it; callers must
// retain the prior one in that case.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Owner identifies the user a playlist belongs to.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ExternalURLs holds known public URLs for a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// PlaylistTracks carries the track summary of a playlist listing entry.
type PlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a playlist object as returned by the listing
// and creation endpoints.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       PlaylistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// Image returns the playlist's first image URL, or "" when the remote omits
// images. Keeps the local schema total.
func (p *SpotifyPlaylist) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Link returns the playlist's public Spotify URL, or "".
func (p *SpotifyPlaylist) Link() string {
	return p.ExternalURLs.Spotify
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifyPlaylist `json:"items"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
}

// SpotifyService talks to the Spotify accounts service and web API.
// Uses [oauth2.Config] for credentials, scopes and the authorize URL.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter

	// Endpoint bases, overridable in tests.
	tokenURL string
	apiURL   string
}

// NewSpotifyService creates a new Spotify service with the given credentials.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id/secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:5001/auth/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		tokenURL:   spotifyTokenURL,
		apiURL:     spotifyBaseURL,
	}, nil
}

// AuthCodeURL returns the authorize URL for user login with the given state.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for a token set.
// Single attempt, no retry; a non-2xx response becomes [shared.UpstreamError].
func (s *SpotifyService) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {s.config.RedirectURL},
	}
	return s.tokenRequest(ctx, "exchange", form)
}

// Refresh exchanges a refresh token for a new token set. The service may or
// may not rotate the refresh token; an empty TokenSet.RefreshToken means the
// caller keeps the prior one.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return s.tokenRequest(ctx, "refresh", form)
}

// tokenRequest POSTs a grant to the token endpoint with client credentials
// in the HTTP Basic auth header.
func (s *SpotifyService) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenSet, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.NewUpstreamError(op, resp.StatusCode, body)
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokens, nil
}

// Profile retrieves the profile of the user the access token belongs to.
func (s *SpotifyService) Profile(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", accessToken, nil, &user, "profile"); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserPlaylists retrieves all playlists of the token's user, following
// pagination until the listing is exhausted.
func (s *SpotifyService) CurrentUserPlaylists(ctx context.Context, accessToken string) (*SpotifyPaginatedPlaylists, error) {
	all := &SpotifyPaginatedPlaylists{}
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, accessToken, nil, &page, "playlists"); err != nil {
			return nil, err
		}

		all.Items = append(all.Items, page.Items...)
		all.Total = page.Total
		all.Limit = page.Limit

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// CreatePlaylist creates a public playlist for the given user and returns the
// authoritative object the service responds with (name included, in case the
// service normalized it).
func (s *SpotifyService) CreatePlaylist(ctx context.Context, accessToken, userID, name string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	payload := map[string]any{"name": name, "public": true}

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, accessToken, payload, &playlist, "create playlist"); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// doRequest performs an authenticated, rate-limited request to the web API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, accessToken string, body any, result any, op string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return wrapTransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.NewUpstreamError(op, resp.StatusCode, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// wrapTransportError maps client timeouts onto [shared.ErrTimeout] and keeps
// everything else as-is.
func wrapTransportError(op string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: spotify %s", shared.ErrTimeout, op)
	}
	return fmt.Errorf("spotify %s request failed: %w", op, err)
}
