// Package history keeps a local record of finished operations in SQLite:
// what ran, against which resource, how it ended and how long it took.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docuwatchco/docuwatch/pkg/poller"
)

// Outcome labels for finished operations.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// Entry is one finished operation.
type Entry struct {
	ID        string
	Kind      string
	Resource  string
	Outcome   string
	Message   string
	StartedAt time.Time
	Duration  time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	resource    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS operations_started_at ON operations (started_at DESC);
`

// Store is a SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one finished operation.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.New("history: entry id is required")
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, kind, resource, outcome, message, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Resource, e.Outcome, e.Message,
		e.StartedAt.UnixMilli(), e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

// Recent returns the most recently started entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, resource, outcome, message, started_at, duration_ms
		 FROM operations ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedMs  int64
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Resource, &e.Outcome, &e.Message, &startedMs, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OutcomeFor classifies a watch's final error into a history outcome label.
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case errors.Is(err, poller.ErrExhausted):
		return OutcomeTimeout
	default:
		return OutcomeFailed
	}
}
