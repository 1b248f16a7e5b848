package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
	"github.com/lmeynard/friendship/internal/tasks"
)

// fakeCreator records creation attempts and serves canned results.
type fakeCreator struct {
	result *tasks.CreateResult
	err    error
	calls  int
}

func (f *fakeCreator) Create(ctx context.Context, ownerID, name, accessToken string) (*tasks.CreateResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func playlistRouter(creator PlaylistCreator) *BasicRouter {
	router := NewBasicRouter()
	router.Handler(NewPlaylistHandler(creator, shared.NewLogger(io.Discard)))
	return router
}

func TestPlaylistCreate(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		creator := &fakeCreator{result: &tasks.CreateResult{
			Record: &models.Playlist{ID: shared.GenerateID(), OwnerID: "u1", SpotifyID: "sp-new", Name: "Road Trip", Locked: true},
			Remote: &services.SpotifyPlaylist{ID: "sp-new", Name: "Road Trip", Owner: services.Owner{ID: "u1"}, Public: true},
		}}
		router := playlistRouter(creator)

		body := `{"ownerId":"u1","name":"Road Trip","accessToken":"tok"}`
		req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			PlaylistID      string                    `json:"playlistId"`
			SpotifyPlaylist *services.SpotifyPlaylist `json:"spotifyPlaylist"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.PlaylistID != creator.result.Record.ID {
			t.Errorf("expected local record id, got %q", resp.PlaylistID)
		}
		if resp.SpotifyPlaylist == nil || resp.SpotifyPlaylist.ID != "sp-new" {
			t.Errorf("expected remote payload in response, got %+v", resp.SpotifyPlaylist)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		creator := &fakeCreator{}
		router := playlistRouter(creator)

		for _, body := range []string{
			`{}`,
			`{"ownerId":"u1","name":"Road Trip"}`,
			`{"ownerId":"u1","accessToken":"tok"}`,
			`{"name":"Road Trip","accessToken":"tok"}`,
			`not json`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected 400, got %d", body, rec.Code)
			}
		}
		if creator.calls != 0 {
			t.Errorf("invalid bodies must not reach the creator, got %d calls", creator.calls)
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		creator := &fakeCreator{err: shared.ErrPlaylistExists}
		router := playlistRouter(creator)

		body := `{"ownerId":"u1","name":"Road Trip","accessToken":"tok"}`
		req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for duplicate name, got %d", rec.Code)
		}
	})

	t.Run("UpstreamFailurePassthrough", func(t *testing.T) {
		creator := &fakeCreator{err: shared.NewUpstreamError("create playlist", http.StatusForbidden, []byte(`{"error":"insufficient scope"}`))}
		router := playlistRouter(creator)

		body := `{"ownerId":"u1","name":"Road Trip","accessToken":"tok"}`
		req := httptest.NewRequest(http.MethodPost, "/playlists", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected upstream status passthrough, got %d", rec.Code)
		}

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("error body should stay valid JSON: %v", err)
		}
		if resp["details"] == nil {
			t.Error("expected upstream body under details")
		}
	})
}
