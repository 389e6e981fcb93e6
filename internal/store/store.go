// ABOUTME: Store interface and data types for coven-desk persistence
// ABOUTME: Defines Session, Turn, FileMetadata and the Store interface

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/coven-desk/internal/content"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSession is returned when trying to create a session that already exists
var ErrDuplicateSession = errors.New("session already exists")

// Session status values
const (
	SessionStatusActive   = "active"
	SessionStatusArchived = "archived"
)

// Turn roles. Tool results are fed back under the user role per the
// provider protocol convention.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session represents one conversation between an operator and the agent
type Session struct {
	ID        string
	Title     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one persisted entry in a session's conversation log. Turns are
// immutable once written; insertion order within a session is the only
// ordering guarantee (CreatedAt is advisory).
type Turn struct {
	ID        string
	SessionID string
	Role      string
	Content   []content.Block
	Display   string // optional human-readable projection, empty if none
	CreatedAt time.Time
}

// FileMetadata describes an uploaded file tracked alongside a session
type FileMetadata struct {
	ID         string
	SessionID  string
	Filename   string
	Path       string // storage-relative path under the upload dir
	MimeType   string
	Size       int64
	UploadedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Store defines the interface for session, turn and file persistence
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, id string) error
	SessionExists(ctx context.Context, id string) (bool, error)

	// Turns (append-only conversation log)
	AppendTurn(ctx context.Context, turn *Turn) error
	ListTurns(ctx context.Context, sessionID string) ([]*Turn, error)

	// Files
	SaveFile(ctx context.Context, file *FileMetadata) error
	GetFile(ctx context.Context, id string) (*FileMetadata, error)
	ListFiles(ctx context.Context, sessionID string) ([]*FileMetadata, error)
	DeleteFile(ctx context.Context, id string) error

	// Close releases any resources held by the store
	Close() error
}
