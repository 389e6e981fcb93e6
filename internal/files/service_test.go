// ABOUTME: Tests for the upload service lifecycle
// ABOUTME: Covers disk layout, size limits, events, and deletion

package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-desk/internal/broadcast"
	"github.com/2389/coven-desk/internal/store"
)

type recordingObserver struct {
	messages [][]byte
}

func (o *recordingObserver) Send(data []byte) error {
	o.messages = append(o.messages, data)
	return nil
}

func setupService(t *testing.T, maxSize int64) (*Service, store.Store, *broadcast.Registry, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := broadcast.NewRegistry(nil)
	dir := filepath.Join(t.TempDir(), "uploads")
	svc, err := New(s, registry, dir, maxSize, nil)
	require.NoError(t, err)
	return svc, s, registry, dir
}

func createSession(t *testing.T, s store.Store, id string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateSession(context.Background(), &store.Session{
		ID: id, Title: "t", Status: store.SessionStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestService_SaveWritesDiskAndMetadata(t *testing.T) {
	svc, s, _, dir := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	meta, err := svc.Save(context.Background(), "session-1", "notes.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", meta.Filename)
	assert.Equal(t, int64(5), meta.Size)
	assert.True(t, strings.HasPrefix(meta.Path, "notes_"))
	assert.True(t, strings.HasSuffix(meta.Path, ".txt"))

	data, err := os.ReadFile(filepath.Join(dir, meta.Path))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	stored, err := s.GetFile(context.Background(), meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Path, stored.Path)
}

func TestService_SaveSanitizesFilename(t *testing.T) {
	svc, s, _, _ := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	meta, err := svc.Save(context.Background(), "session-1", "../etc/my report (final).pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, meta.Path, "/")
	assert.NotContains(t, meta.Path, "..")
	assert.True(t, strings.HasPrefix(meta.Path, "my_report__final__"))
	assert.True(t, strings.HasSuffix(meta.Path, ".pdf"))
	// Display name keeps what the operator sent.
	assert.Equal(t, "../etc/my report (final).pdf", meta.Filename)
}

func TestService_SaveRejectsOversizedUpload(t *testing.T) {
	svc, s, _, dir := setupService(t, 8)
	createSession(t, s, "session-1")

	_, err := svc.Save(context.Background(), "session-1", "big.bin", "application/octet-stream", strings.NewReader("way too many bytes"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected upload must not leave bytes behind")
}

func TestService_SavePublishesUploadEvent(t *testing.T) {
	svc, s, registry, _ := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	obs := &recordingObserver{}
	registry.Subscribe(obs, "session-1")

	meta, err := svc.Save(context.Background(), "session-1", "notes.txt", "text/plain", strings.NewReader("hi"))
	require.NoError(t, err)

	require.Len(t, obs.messages, 1)
	var event broadcast.FileUpdate
	require.NoError(t, json.Unmarshal(obs.messages[0], &event))
	assert.Equal(t, broadcast.EventTypeFileUpdate, event.Type)
	assert.Equal(t, broadcast.ActionUpload, event.Action)
	assert.Equal(t, meta.ID, event.FileID)
}

func TestService_OpenReturnsBytes(t *testing.T) {
	svc, s, _, _ := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	saved, err := svc.Save(context.Background(), "session-1", "notes.txt", "text/plain", strings.NewReader("contents"))
	require.NoError(t, err)

	meta, rc, err := svc.Open(context.Background(), saved.ID)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, saved.ID, meta.ID)
	data, err := os.ReadFile(filepath.Join(svc.Dir(), meta.Path))
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
}

func TestService_OpenMissingFile(t *testing.T) {
	svc, _, _, _ := setupService(t, 1<<20)

	_, _, err := svc.Open(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_DeleteRemovesEverythingAndNotifies(t *testing.T) {
	svc, s, registry, dir := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	meta, err := svc.Save(context.Background(), "session-1", "notes.txt", "text/plain", strings.NewReader("bye"))
	require.NoError(t, err)

	obs := &recordingObserver{}
	registry.Subscribe(obs, "session-1")

	require.NoError(t, svc.Delete(context.Background(), meta.ID))

	_, err = s.GetFile(context.Background(), meta.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = os.Stat(filepath.Join(dir, meta.Path))
	assert.True(t, os.IsNotExist(err))

	require.Len(t, obs.messages, 1)
	var event broadcast.FileUpdate
	require.NoError(t, json.Unmarshal(obs.messages[0], &event))
	assert.Equal(t, broadcast.ActionDelete, event.Action)
	assert.Equal(t, meta.ID, event.FileID)
}

func TestService_DeleteSurvivesMissingDiskFile(t *testing.T) {
	svc, s, _, dir := setupService(t, 1<<20)
	createSession(t, s, "session-1")

	meta, err := svc.Save(context.Background(), "session-1", "notes.txt", "text/plain", strings.NewReader("gone"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, meta.Path)))

	require.NoError(t, svc.Delete(context.Background(), meta.ID))

	_, err = s.GetFile(context.Background(), meta.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoredFilename(t *testing.T) {
	name := storedFilename("shot 1.png", "abc")
	assert.Equal(t, "shot_1_abc.png", name)

	name = storedFilename(".gitignore", "abc")
	assert.Equal(t, "file_abc.gitignore", name)
}
