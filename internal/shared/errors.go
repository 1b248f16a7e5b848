package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrTokenExpired   = fmt.Errorf("access token expired")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// Crypto errors: a failed envelope decrypt means the stored token
	// material is unusable and the user must re-authenticate.
	ErrCrypto = fmt.Errorf("envelope decrypt failed")

	// Storage errors
	ErrStorage        = fmt.Errorf("storage operation failed")
	ErrNotFound       = fmt.Errorf("not found")
	ErrPlaylistExists = fmt.Errorf("playlist with this name already exists")

	// Input validation errors
	ErrValidation      = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// UpstreamError carries a non-2xx status and response body from the remote
// music service, so handlers can pass both through for diagnostics.
type UpstreamError struct {
	Op     string // which remote call failed ("exchange", "refresh", "playlists", ...)
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("spotify %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// NewUpstreamError builds an [UpstreamError] for the given remote operation.
func NewUpstreamError(op string, status int, body []byte) *UpstreamError {
	return &UpstreamError{Op: op, Status: status, Body: string(body)}
}
