package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lmeynard/friendship/internal/shared"
)

// respondJSON writes payload as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps an error from the service layer to an HTTP status and a
// JSON error body. Remote-service failures pass the upstream status through
// with the upstream body attached as details.
func respondError(w http.ResponseWriter, err error) {
	var upstream *shared.UpstreamError
	if errors.As(err, &upstream) {
		respondJSON(w, upstream.Status, map[string]any{
			"error":   upstream.Op + " failed",
			"details": json.RawMessage(detailsBody([]byte(upstream.Body))),
		})
		return
	}

	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrPlaylistExists):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, shared.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, shared.ErrCrypto):
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "stored credentials are unreadable, re-authentication required",
		})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// detailsBody keeps upstream bodies embeddable: non-JSON bodies are re-quoted
// as a JSON string so the envelope stays valid.
func detailsBody(body []byte) []byte {
	if json.Valid(body) && len(body) > 0 {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

// decodeJSON reads a JSON request body into dst, flagging malformed bodies as
// validation failures.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return shared.ErrValidation
	}
	return nil
}
