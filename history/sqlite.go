package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a2aview/a2aview/transcript"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS turns (
  conversation_id TEXT NOT NULL,
  turn_id TEXT NOT NULL,
  actor TEXT NOT NULL,
  role TEXT NOT NULL,
  parts TEXT NOT NULL,
  timestamp REAL NOT NULL,
  repeat_count INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  PRIMARY KEY (conversation_id, turn_id)
);

CREATE INDEX IF NOT EXISTS idx_turns_conversation_timestamp
  ON turns(conversation_id, timestamp);
`

// SQLiteStore implements Store backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the transcript database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	statements := strings.Split(schemaSQL, ";")
	for _, raw := range statements {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w (statement=%q)", err, stmt)
		}
	}
	return nil
}

// SaveTurn upserts the turn. Repeat folding updates the stored repeat count
// and parts in place.
func (s *SQLiteStore) SaveTurn(ctx context.Context, conversationID string, turn transcript.Turn) error {
	parts, err := json.Marshal(turn.Parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO turns (conversation_id, turn_id, actor, role, parts, timestamp, repeat_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, turn_id) DO UPDATE SET
		  parts = excluded.parts,
		  repeat_count = excluded.repeat_count`,
		conversationID, turn.ID, turn.Actor, turn.Role, string(parts),
		turn.Timestamp, turn.RepeatCount, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// Turns returns the conversation's turns ordered by timestamp.
func (s *SQLiteStore) Turns(ctx context.Context, conversationID string) ([]transcript.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT turn_id, actor, role, parts, timestamp, repeat_count
		FROM turns WHERE conversation_id = ?
		ORDER BY timestamp, rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []transcript.Turn
	for rows.Next() {
		var turn transcript.Turn
		var parts string
		if err := rows.Scan(&turn.ID, &turn.Actor, &turn.Role, &parts, &turn.Timestamp, &turn.RepeatCount); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &turn.Parts); err != nil {
			return nil, fmt.Errorf("unmarshal parts for turn %s: %w", turn.ID, err)
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

// Conversations returns the distinct stored conversation IDs.
func (s *SQLiteStore) Conversations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT conversation_id FROM turns ORDER BY conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteConversation drops a conversation and its turns.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM turns WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
