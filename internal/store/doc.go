// Package store provides persistent storage for coven-desk using SQLite.
//
// # Data Models
//
//   - Session: One operator conversation (id, title, status, timestamps)
//   - Turn: One entry in a session's append-only conversation log. Content
//     is an ordered sequence of content.Block values, serialized
//     structurally so non-text fields (tool_use_id, is_error, signatures,
//     image payloads) survive the round trip exactly.
//   - FileMetadata: Uploaded files tracked alongside a session
//
// # Ordering
//
// Turn order within a session is authoritative by insertion sequence (an
// AUTOINCREMENT column), not by timestamp. ListTurns always returns the
// exact order AppendTurn was called, even when created_at values collide.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Deleting a session cascades to its turns and file rows via foreign keys.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateSession: Session already exists
//
// All methods accept context.Context for cancellation support.
//
// A turn row whose content fails to decode is logged and skipped on read;
// one corrupt row never aborts an entire history read.
package store
