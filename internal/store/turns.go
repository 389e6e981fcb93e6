// ABOUTME: Append-only turn log backing a session's conversation history
// ABOUTME: Turns are stored with structurally-serialized content blocks

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/2389/coven-desk/internal/content"
)

// AppendTurn persists a turn at the end of its session's log.
// Returns ErrNotFound if the session does not exist. Content blocks are
// serialized structurally and round-trip exactly on read.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn *Turn) error {
	if len(turn.Content) == 0 {
		return fmt.Errorf("turn %s has no content blocks", turn.ID)
	}

	blob, err := content.MarshalBlocks(turn.Content)
	if err != nil {
		return fmt.Errorf("encoding content blocks: %w", err)
	}

	var display sql.NullString
	if turn.Display != "" {
		display = sql.NullString{String: turn.Display, Valid: true}
	}

	query := `
		INSERT INTO turns (id, session_id, role, content, display, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		turn.ID,
		turn.SessionID,
		turn.Role,
		string(blob),
		display,
		turn.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("inserting turn: %w", err)
	}

	s.logger.Debug("turn appended",
		"turn_id", turn.ID,
		"session_id", turn.SessionID,
		"role", turn.Role,
		"blocks", len(turn.Content),
	)
	return nil
}

// ListTurns returns a session's turns in insertion order. A missing session
// yields an empty slice, not an error. Rows whose content fails to decode
// are logged and skipped so one corrupt row cannot poison the whole read.
func (s *SQLiteStore) ListTurns(ctx context.Context, sessionID string) ([]*Turn, error) {
	query := `
		SELECT id, session_id, role, content, display, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []*Turn{}
	for rows.Next() {
		turn := &Turn{}
		var blob string
		var display sql.NullString
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &blob, &display, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}

		turn.Content, err = content.UnmarshalBlocks([]byte(blob))
		if err != nil {
			s.logger.Error("skipping turn with undecodable content",
				"turn_id", turn.ID,
				"session_id", sessionID,
				"error", err,
			)
			continue
		}

		turn.Display = display.String
		if turn.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		turns = append(turns, turn)
	}

	return turns, rows.Err()
}
