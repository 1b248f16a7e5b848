package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/secrets"
	"github.com/lmeynard/friendship/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A second pool connection would see a fresh, empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testEnvelope(content string) secrets.Envelope {
	return secrets.Envelope{IV: "00112233445566778899aabbccddeeff", Content: content}
}

func testIdentity(spotifyID string) *models.Identity {
	return &models.Identity{
		SpotifyID:      spotifyID,
		AccessToken:    testEnvelope("deadbeef"),
		RefreshToken:   testEnvelope("cafebabe"),
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for expected := 1; expected <= 3; expected++ {
		sequence, err := NextSequence(db, "playlists")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if sequence != expected {
			t.Errorf("expected sequence %d, got %d", expected, sequence)
		}
	}

	// Tables count independently.
	sequence, err := NextSequence(db, "identities")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	if sequence != 1 {
		t.Errorf("expected identities sequence 1, got %d", sequence)
	}
}

func TestIdentityRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		identity := testIdentity("spotify-user-1")
		if err := repo.Create(identity); err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}

		if identity.ID == "" {
			t.Error("identity ID should be set after creation")
		}
		if identity.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", identity.Sequence)
		}
	})

	t.Run("CreateDuplicateSpotifyID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		if err := repo.Create(testIdentity("spotify-user-1")); err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}
		if err := repo.Create(testIdentity("spotify-user-1")); err == nil {
			t.Error("expected unique constraint violation for duplicate spotify id")
		}
	})

	t.Run("GetBySpotifyID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		identity := testIdentity("spotify-user-1")
		if err := repo.Create(identity); err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}

		retrieved, err := repo.GetBySpotifyID("spotify-user-1")
		if err != nil {
			t.Fatalf("failed to get identity: %v", err)
		}

		if retrieved.ID != identity.ID {
			t.Errorf("expected ID %s, got %s", identity.ID, retrieved.ID)
		}
		if retrieved.AccessToken != identity.AccessToken {
			t.Errorf("expected access envelope %+v, got %+v", identity.AccessToken, retrieved.AccessToken)
		}
	})

	t.Run("GetBySpotifyIDNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		if _, err := repo.GetBySpotifyID("nobody"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateTokens", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		identity := testIdentity("spotify-user-1")
		if err := repo.Create(identity); err != nil {
			t.Fatalf("failed to create identity: %v", err)
		}

		newAccess := testEnvelope("feedface")
		newRefresh := testEnvelope("0badf00d")
		newExpiry := time.Now().Add(2 * time.Hour)

		if err := repo.UpdateTokens("spotify-user-1", newAccess, newRefresh, newExpiry); err != nil {
			t.Fatalf("failed to update tokens: %v", err)
		}

		retrieved, err := repo.GetBySpotifyID("spotify-user-1")
		if err != nil {
			t.Fatalf("failed to get identity: %v", err)
		}

		if retrieved.AccessToken != newAccess {
			t.Errorf("expected access envelope %+v, got %+v", newAccess, retrieved.AccessToken)
		}
		if retrieved.RefreshToken != newRefresh {
			t.Errorf("expected refresh envelope %+v, got %+v", newRefresh, retrieved.RefreshToken)
		}
		if !retrieved.TokenExpiresAt.After(identity.TokenExpiresAt) {
			t.Error("expiry should have advanced")
		}
	})

	t.Run("UpdateTokensNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewIdentityRepository(db)

		err := repo.UpdateTokens("nobody", testEnvelope("aa"), testEnvelope("bb"), time.Now())
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func testPlaylist(ownerID, spotifyID, name string) *models.Playlist {
	return &models.Playlist{
		OwnerID:     ownerID,
		SpotifyID:   spotifyID,
		Name:        name,
		Locked:      true,
		Description: "a description",
		ImageURL:    "https://img.example/cover.jpg",
		ExternalURL: "https://open.spotify.com/playlist/" + spotifyID,
		TrackCount:  12,
	}
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist("u1", "sp1", "Road Trip")
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if playlist.ID == "" {
			t.Error("playlist ID should be set after creation")
		}
	})

	t.Run("CreateDuplicateRemoteID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Create(testPlaylist("u1", "sp1", "Road Trip")); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if err := repo.Create(testPlaylist("u1", "sp1", "Other Name")); err == nil {
			t.Error("expected unique constraint violation for duplicate (owner, spotify id)")
		}

		// Same remote id under another owner is allowed.
		if err := repo.Create(testPlaylist("u2", "sp1", "Road Trip")); err != nil {
			t.Errorf("same remote id under another owner should be fine: %v", err)
		}
	})

	t.Run("GetByRemoteID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist("u1", "sp1", "Road Trip")
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		retrieved, err := repo.GetByRemoteID("u1", "sp1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name != "Road Trip" {
			t.Errorf("expected name %q, got %q", "Road Trip", retrieved.Name)
		}
		if !retrieved.Locked {
			t.Error("locked flag should survive a round trip")
		}

		if _, err := repo.GetByRemoteID("u2", "sp1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for other owner, got %v", err)
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Create(testPlaylist("u1", "sp1", "Road Trip")); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if _, err := repo.GetByName("u1", "Road Trip"); err != nil {
			t.Errorf("failed to get playlist by name: %v", err)
		}
		if _, err := repo.GetByName("u1", "Unknown"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Patch", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist("u1", "sp1", "Road Trip")
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		patch := map[string]any{"name": "Road Trip 2", "trackCount": 20}
		if err := repo.Patch(playlist.ID, patch); err != nil {
			t.Fatalf("failed to patch playlist: %v", err)
		}

		retrieved, err := repo.GetByRemoteID("u1", "sp1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name != "Road Trip 2" {
			t.Errorf("expected patched name, got %q", retrieved.Name)
		}
		if retrieved.TrackCount != 20 {
			t.Errorf("expected patched track count, got %d", retrieved.TrackCount)
		}
		if retrieved.Description != playlist.Description {
			t.Error("unpatched fields should be untouched")
		}
	})

	t.Run("PatchRejectsUnknownField", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		playlist := testPlaylist("u1", "sp1", "Road Trip")
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		err := repo.Patch(playlist.ID, map[string]any{"locked": false})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for non-whitelisted field, got %v", err)
		}
	})

	t.Run("PatchNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		err := repo.Patch(shared.GenerateID(), map[string]any{"name": "x"})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PatchEmptyIsNoOp", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Patch("whatever", map[string]any{}); err != nil {
			t.Errorf("empty patch should be a no-op, got %v", err)
		}
	})

	t.Run("ListByOwner", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		for i, name := range []string{"First", "Second", "Third"} {
			p := testPlaylist("u1", "sp"+string(rune('1'+i)), name)
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}
		if err := repo.Create(testPlaylist("u2", "other", "Not Mine")); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlists, err := repo.ListByOwner("u1")
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(playlists) != 3 {
			t.Fatalf("expected 3 playlists, got %d", len(playlists))
		}
		if playlists[0].Name != "First" || playlists[2].Name != "Third" {
			t.Error("playlists should come back in sequence order")
		}
	})
}

func TestQuestionnaireRepository(t *testing.T) {
	questions := []string{"Favorite genre?", "One song everyone must hear?"}

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		q := &models.Questionnaire{PlaylistID: shared.GenerateID(), Questions: questions}
		if err := repo.Create(q); err != nil {
			t.Fatalf("failed to create questionnaire: %v", err)
		}
		if q.ID == "" {
			t.Error("questionnaire ID should be set after creation")
		}
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		cases := []*models.Questionnaire{
			{PlaylistID: "", Questions: questions},
			{PlaylistID: "p1", Questions: nil},
			{PlaylistID: "p1", Questions: []string{"ok", ""}},
		}
		for _, q := range cases {
			if err := repo.Create(q); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		q := &models.Questionnaire{PlaylistID: "p1", Questions: questions}
		if err := repo.Create(q); err != nil {
			t.Fatalf("failed to create questionnaire: %v", err)
		}

		retrieved, err := repo.Get(q.ID)
		if err != nil {
			t.Fatalf("failed to get questionnaire: %v", err)
		}

		if len(retrieved.Questions) != 2 || retrieved.Questions[0] != questions[0] {
			t.Errorf("question order should be preserved, got %v", retrieved.Questions)
		}
		if len(retrieved.Responses) != 0 {
			t.Errorf("expected no responses, got %d", len(retrieved.Responses))
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		if _, err := repo.Get(shared.GenerateID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddResponse", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		q := &models.Questionnaire{PlaylistID: "p1", Questions: questions}
		if err := repo.Create(q); err != nil {
			t.Fatalf("failed to create questionnaire: %v", err)
		}

		first := models.QuestionnaireResponse{
			RespondentID: "friend-1",
			Answers:      []string{"rock", "Bohemian Rhapsody"},
			RespondedAt:  time.Now().Add(-time.Minute),
		}
		second := models.QuestionnaireResponse{
			RespondentID: "friend-2",
			Answers:      []string{"jazz", "So What"},
			RespondedAt:  time.Now(),
		}

		if err := repo.AddResponse(q.ID, first); err != nil {
			t.Fatalf("failed to add response: %v", err)
		}
		if err := repo.AddResponse(q.ID, second); err != nil {
			t.Fatalf("failed to add response: %v", err)
		}

		retrieved, err := repo.Get(q.ID)
		if err != nil {
			t.Fatalf("failed to get questionnaire: %v", err)
		}

		if len(retrieved.Responses) != 2 {
			t.Fatalf("expected 2 responses, got %d", len(retrieved.Responses))
		}
		if retrieved.Responses[0].RespondentID != "friend-1" {
			t.Error("responses should come back oldest first")
		}
		if retrieved.Responses[1].Answers[1] != "So What" {
			t.Errorf("answer order should be preserved, got %v", retrieved.Responses[1].Answers)
		}
	})

	t.Run("AddResponseNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewQuestionnaireRepository(db)

		response := models.QuestionnaireResponse{RespondentID: "friend-1", Answers: []string{"rock"}, RespondedAt: time.Now()}
		if err := repo.AddResponse(shared.GenerateID(), response); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
