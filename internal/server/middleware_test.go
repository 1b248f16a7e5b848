package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lmeynard/friendship/internal/shared"
)

func TestCORSMiddleware(t *testing.T) {
	router := NewBasicRouter()
	router.Use(CORSMiddleware())
	router.Handler(&IndexHandler{})

	t.Run("SetsHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected CORS origin header, got %q", got)
		}
	})

	t.Run("AnswersPreflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/playlists", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Error("expected allowed methods header")
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handle("GET /boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, "/boom") {
		t.Errorf("expected path in log line, got %q", out)
	}
	if !strings.Contains(out, "418") {
		t.Errorf("expected status in log line, got %q", out)
	}
}

func TestIndexHandler(t *testing.T) {
	router := NewBasicRouter()
	router.Handler(&IndexHandler{})

	t.Run("Banner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "FriendShip") {
			t.Errorf("expected banner, got %q", rec.Body.String())
		}
	})

	t.Run("OnlyExactRoot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for non-root path, got %d", rec.Code)
		}
	})
}
