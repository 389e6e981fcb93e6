// ABOUTME: Tests for SQLite session and file persistence
// ABOUTME: Covers CRUD, duplicates, cascade deletes and session filters

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-desk/internal/content"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testSession(id string) *Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &Session{
		ID:        id,
		Title:     "desk session",
		Status:    SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_CreateSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.CreateSession(ctx, testSession("session-123"))
	require.NoError(t, err)

	retrieved, err := store.GetSession(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, "session-123", retrieved.ID)
	assert.Equal(t, "desk session", retrieved.Title)
	assert.Equal(t, SessionStatusActive, retrieved.Status)
}

func TestStore_CreateSession_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-123")))

	err := store.CreateSession(ctx, testSession("session-123"))
	assert.ErrorIs(t, err, ErrDuplicateSession)
}

func TestStore_GetSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SessionExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.SessionExists(ctx, "session-123")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateSession(ctx, testSession("session-123")))

	exists, err = store.SessionExists(ctx, "session-123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_UpdateSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := testSession("session-123")
	require.NoError(t, store.CreateSession(ctx, session))

	session.Title = "renamed"
	session.Status = SessionStatusArchived
	session.UpdatedAt = session.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.UpdateSession(ctx, session))

	retrieved, err := store.GetSession(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, "renamed", retrieved.Title)
	assert.Equal(t, SessionStatusArchived, retrieved.Status)
}

func TestStore_UpdateSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateSession(context.Background(), testSession("ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-1")))
	require.NoError(t, store.CreateSession(ctx, testSession("session-2")))

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestStore_DeleteSession_CascadesTurnsAndFiles(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-123")))

	turn := &Turn{
		ID:        "turn-1",
		SessionID: "session-123",
		Role:      RoleUser,
		Content:   []content.Block{content.Text{Text: "hello"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.AppendTurn(ctx, turn))

	now := time.Now().UTC().Truncate(time.Second)
	file := &FileMetadata{
		ID:         "file-1",
		SessionID:  "session-123",
		Filename:   "notes.txt",
		Path:       "notes_file-1.txt",
		MimeType:   "text/plain",
		Size:       12,
		UploadedAt: now,
		CreatedAt:  now,
	}
	require.NoError(t, store.SaveFile(ctx, file))

	require.NoError(t, store.DeleteSession(ctx, "session-123"))

	_, err := store.GetSession(ctx, "session-123")
	assert.ErrorIs(t, err, ErrNotFound)

	turns, err := store.ListTurns(ctx, "session-123")
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = store.GetFile(ctx, "file-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.DeleteSession(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Files_CRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session-123")))

	now := time.Now().UTC().Truncate(time.Second)
	file := &FileMetadata{
		ID:         "file-1",
		SessionID:  "session-123",
		Filename:   "report.pdf",
		Path:       "report_file-1.pdf",
		MimeType:   "application/pdf",
		Size:       2048,
		UploadedAt: now,
		CreatedAt:  now,
	}
	require.NoError(t, store.SaveFile(ctx, file))

	retrieved, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", retrieved.Filename)
	assert.Equal(t, int64(2048), retrieved.Size)
	assert.Equal(t, "session-123", retrieved.SessionID)
	assert.Nil(t, retrieved.UpdatedAt)

	files, err := store.ListFiles(ctx, "session-123")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	files, err = store.ListFiles(ctx, "other-session")
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, store.DeleteFile(ctx, "file-1"))
	_, err = store.GetFile(ctx, "file-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ForeignKeysSurvivePoolChurn(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Force a fresh connection for every statement. Pragmas ride in the
	// DSN, so each one must still come up with foreign_keys enabled.
	store.db.SetMaxIdleConns(0)

	require.NoError(t, store.CreateSession(ctx, testSession("session-1")))

	err := store.AppendTurn(ctx, &Turn{
		ID:        "turn-ghost",
		SessionID: "ghost",
		Role:      RoleUser,
		Content:   []content.Block{content.Text{Text: "hello"}},
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.AppendTurn(ctx, &Turn{
		ID:        "turn-1",
		SessionID: "session-1",
		Role:      RoleUser,
		Content:   []content.Block{content.Text{Text: "hello"}},
		CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.DeleteSession(ctx, "session-1"))

	turns, err := store.ListTurns(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_SaveFile_MissingSession(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	err := store.SaveFile(context.Background(), &FileMetadata{
		ID:         "file-1",
		SessionID:  "ghost",
		Filename:   "x.txt",
		Path:       "x_file-1.txt",
		Size:       1,
		UploadedAt: now,
		CreatedAt:  now,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
