// ABOUTME: Upload lifecycle service: bytes on disk, metadata in the store
// ABOUTME: Publishes file_update events to the session's observers

package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-desk/internal/broadcast"
	"github.com/2389/coven-desk/internal/store"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit
var ErrTooLarge = fmt.Errorf("file exceeds upload size limit")

// Service manages uploaded files: bytes under an upload directory,
// metadata rows in the store, and live notifications to observers.
type Service struct {
	store    store.Store
	registry *broadcast.Registry
	dir      string
	maxSize  int64
	logger   *slog.Logger
}

// New creates the service and ensures the upload directory exists.
// Pass nil logger for default.
func New(s store.Store, registry *broadcast.Registry, dir string, maxSize int64, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Service{
		store:    s,
		registry: registry,
		dir:      dir,
		maxSize:  maxSize,
		logger:   logger.With("component", "files"),
	}, nil
}

// Dir returns the upload directory path.
func (s *Service) Dir() string { return s.dir }

// Save stores an uploaded file under a collision-free name, records its
// metadata, and notifies the session's observers.
func (s *Service) Save(ctx context.Context, sessionID, filename, mimeType string, r io.Reader) (*store.FileMetadata, error) {
	fileID := uuid.New().String()
	storedName := storedFilename(filename, fileID)
	path := filepath.Join(s.dir, storedName)

	size, err := s.writeFile(path, r)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	meta := &store.FileMetadata{
		ID:         fileID,
		SessionID:  sessionID,
		Filename:   filename,
		Path:       storedName,
		MimeType:   mimeType,
		Size:       size,
		UploadedAt: now,
		CreatedAt:  now,
	}
	if err := s.store.SaveFile(ctx, meta); err != nil {
		// Keep disk and DB consistent: the row failed, drop the bytes.
		os.Remove(path)
		return nil, fmt.Errorf("recording file: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", fileID, "filename", filename, "size", size, "session_id", sessionID)

	if sessionID != "" {
		s.registry.Publish(sessionID, broadcast.FileUploaded(fileID))
	}
	return meta, nil
}

func (s *Service) writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	limit := s.maxSize
	if limit <= 0 {
		limit = 1 << 30 // fallback cap, uploads should always be bounded
	}
	size, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("writing file: %w", err)
	}
	if size > limit {
		os.Remove(path)
		return 0, ErrTooLarge
	}
	return size, nil
}

// Get returns file metadata by ID.
func (s *Service) Get(ctx context.Context, id string) (*store.FileMetadata, error) {
	return s.store.GetFile(ctx, id)
}

// Open returns the file's metadata and a reader over its bytes.
// The caller owns closing the reader.
func (s *Service) Open(ctx context.Context, id string) (*store.FileMetadata, io.ReadCloser, error) {
	meta, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, meta.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, store.ErrNotFound
		}
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return meta, f, nil
}

// List returns file metadata, optionally filtered by session.
func (s *Service) List(ctx context.Context, sessionID string) ([]*store.FileMetadata, error) {
	return s.store.ListFiles(ctx, sessionID)
}

// Delete removes a file's bytes and metadata and notifies observers.
// A missing disk file is not fatal; the metadata row still goes away.
func (s *Service) Delete(ctx context.Context, id string) error {
	meta, err := s.store.GetFile(ctx, id)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, meta.Path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to remove file from disk", "file_id", id, "path", path, "error", err)
	}

	if err := s.store.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	s.logger.Info("file deleted", "file_id", id, "filename", meta.Filename)

	if meta.SessionID != "" {
		s.registry.Publish(meta.SessionID, broadcast.FileDeleted(id))
	}
	return nil
}

// storedFilename builds a collision-free on-disk name: the sanitized base
// name plus the file ID, keeping the original extension.
func storedFilename(filename, fileID string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	safe := sb.String()
	if safe == "" {
		safe = "file"
	}
	return safe + "_" + fileID + ext
}
