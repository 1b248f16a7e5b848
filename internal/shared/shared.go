// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"io"
	"math/big"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// ValidID reports whether s parses as a UUID. Handlers use this to reject
// malformed identifiers before any storage access.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

const stateChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateState returns an opaque random alphanumeric string of the given
// length, used as the OAuth2 state parameter.
func GenerateState(length int) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(stateChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		out[i] = stateChars[n.Int64()]
	}
	return string(out)
}
