package server

import (
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

type fakeTokenProvider struct {
	token string
	err   error
}

func (f *fakeTokenProvider) EnsureAccessToken(ctx context.Context, spotifyID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeLister struct {
	listing *services.SpotifyPaginatedPlaylists
	err     error
}

func (f *fakeLister) CurrentUserPlaylists(ctx context.Context, accessToken string) (*services.SpotifyPaginatedPlaylists, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

type fakeSyncer struct {
	result    *tasks.SyncResult
	err       error
	calls     int
	lastOwner string
	lastToken string
}

func (f *fakeSyncer) Sync(ctx context.Context, accessToken, ownerID string) (*tasks.SyncResult, error) {
	f.calls++
	f.lastToken = accessToken
	f.lastOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func spotifyRouter(tokens TokenProvider, api PlaylistLister, syncer PlaylistSyncer) *BasicRouter {
	router := NewBasicRouter()
	router.Handler(NewSpotifyHandler(tokens, api, syncer, shared.NewLogger(io.Discard)))
	return router
}

func TestListPlaylists(t *testing.T) {
	t.Run("FiltersItemsKeepsRemoteShape", func(t *testing.T) {
		lister := &fakeLister{listing: &services.SpotifyPaginatedPlaylists{
			Items: []services.SpotifyPlaylist{
				{ID: "sp1", Name: "Mine", Owner: services.Owner{ID: "u1"}},
				{ID: "sp2", Name: "Followed", Owner: services.Owner{ID: "someone-else"}},
			},
			Total:  2,
			Limit:  50,
			Offset: 0,
		}}
		router := spotifyRouter(&fakeTokenProvider{token: "tok"}, lister, &fakeSyncer{})

		req := httptest.NewRequest(http.MethodGet, "/spotify/playlists?ownerId=u1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp services.SpotifyPaginatedPlaylists
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Items) != 1 || resp.Items[0].ID != "sp1" {
			t.Errorf("expected followed playlists filtered out, got %+v", resp.Items)
		}
		// Envelope fields stay remote-reported, untouched by the filter.
		if resp.Total != 2 {
			t.Errorf("expected remote-reported total 2, got %d", resp.Total)
		}
		if resp.Limit != 50 {
			t.Errorf("expected remote-reported limit 50, got %d", resp.Limit)
		}
	})

	t.Run("MissingOwnerID", func(t *testing.T) {
		router := spotifyRouter(&fakeTokenProvider{}, &fakeLister{}, &fakeSyncer{})

		req := httptest.NewRequest(http.MethodGet, "/spotify/playlists", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("UnknownOwner", func(t *testing.T) {
		router := spotifyRouter(&fakeTokenProvider{err: shared.ErrNotFound}, &fakeLister{}, &fakeSyncer{})

		req := httptest.NewRequest(http.MethodGet, "/spotify/playlists?ownerId=nobody", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSyncPlaylists(t *testing.T) {
	t.Run("ReportsResult", func(t *testing.T) {
		syncer := &fakeSyncer{result: &tasks.SyncResult{
			Inserted:    []models.Playlist{},
			Updated:     []models.Playlist{},
			RemoteTotal: 4,
		}}
		router := spotifyRouter(&fakeTokenProvider{token: "fresh-token"}, &fakeLister{}, syncer)

		req := httptest.NewRequest(http.MethodGet, "/spotify/sync-playlists?ownerId=u1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if syncer.lastToken != "fresh-token" || syncer.lastOwner != "u1" {
			t.Errorf("sync should receive the ensured token and owner, got %q/%q", syncer.lastToken, syncer.lastOwner)
		}

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["remoteTotal"] != float64(4) {
			t.Errorf("expected remoteTotal 4, got %v", resp["remoteTotal"])
		}
		if _, ok := resp["inserted"]; !ok {
			t.Error("expected inserted key even when empty")
		}
	})

	t.Run("UpstreamFailurePassthrough", func(t *testing.T) {
		syncer := &fakeSyncer{err: shared.NewUpstreamError("playlists", http.StatusBadGateway, []byte("bad gateway"))}
		router := spotifyRouter(&fakeTokenProvider{token: "tok"}, &fakeLister{}, syncer)

		req := httptest.NewRequest(http.MethodGet, "/spotify/sync-playlists?ownerId=u1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502 passthrough, got %d", rec.Code)
		}
	})
}
