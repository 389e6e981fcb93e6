// ABOUTME: File metadata persistence for the upload store
// ABOUTME: Rows cascade with their session; bytes on disk are managed by files.Service

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveFile inserts a file metadata row
func (s *SQLiteStore) SaveFile(ctx context.Context, file *FileMetadata) error {
	var sessionID sql.NullString
	if file.SessionID != "" {
		sessionID = sql.NullString{String: file.SessionID, Valid: true}
	}

	var updatedAt sql.NullString
	if file.UpdatedAt != nil {
		updatedAt = sql.NullString{String: file.UpdatedAt.Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT INTO files (id, session_id, filename, path, mime_type, size, uploaded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		file.ID,
		sessionID,
		file.Filename,
		file.Path,
		file.MimeType,
		file.Size,
		file.UploadedAt.Format(time.RFC3339),
		file.CreatedAt.Format(time.RFC3339),
		updatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("inserting file: %w", err)
	}

	s.logger.Debug("file saved", "file_id", file.ID, "filename", file.Filename, "session_id", file.SessionID)
	return nil
}

// GetFile retrieves file metadata by ID. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetFile(ctx context.Context, id string) (*FileMetadata, error) {
	query := `
		SELECT id, session_id, filename, path, mime_type, size, uploaded_at, created_at, updated_at
		FROM files
		WHERE id = ?
	`

	file, err := scanFile(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying file: %w", err)
	}
	return file, nil
}

// ListFiles returns file metadata, optionally filtered by session.
// An empty sessionID returns all files.
func (s *SQLiteStore) ListFiles(ctx context.Context, sessionID string) ([]*FileMetadata, error) {
	query := `
		SELECT id, session_id, filename, path, mime_type, size, uploaded_at, created_at, updated_at
		FROM files
	`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []*FileMetadata
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// DeleteFile removes a file metadata row. Returns ErrNotFound if absent.
func (s *SQLiteStore) DeleteFile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("file deleted", "file_id", id)
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*FileMetadata, error) {
	file := &FileMetadata{}
	var sessionID sql.NullString
	var mimeType sql.NullString
	var uploadedAt, createdAt string
	var updatedAt sql.NullString

	err := row.Scan(
		&file.ID,
		&sessionID,
		&file.Filename,
		&file.Path,
		&mimeType,
		&file.Size,
		&uploadedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	file.SessionID = sessionID.String
	file.MimeType = mimeType.String

	if file.UploadedAt, err = time.Parse(time.RFC3339, uploadedAt); err != nil {
		return nil, fmt.Errorf("parsing uploaded_at: %w", err)
	}
	if file.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if updatedAt.Valid {
		t, err := time.Parse(time.RFC3339, updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		file.UpdatedAt = &t
	}

	return file, nil
}
