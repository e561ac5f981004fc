// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an audit log of conversion attempts in SQLite.
// It is never consulted to skip work.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Attempt statuses.
const (
	StatusConverted = "converted"
	StatusWarning   = "warning"
	StatusFailed    = "failed"
)

const defaultLimit = 20

// Entry is one recorded conversion attempt.
type Entry struct {
	ID       int64
	RunID    string
	Input    string
	PDF      string
	Status   string
	Pages    int
	Duration time.Duration
	Error    string
	At       time.Time
}

// Query selects entries for Recent.
type Query struct {
	// Limit caps the number of rows returned (default 20).
	Limit int
	// Status, if set, keeps only entries with that status.
	Status string
	// Input, if set, keeps only entries for that input path.
	Input string
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			input       TEXT NOT NULL,
			pdf         TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			pages       INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error       TEXT NOT NULL DEFAULT '',
			at          TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conversions_input ON conversions(input);
		CREATE INDEX IF NOT EXISTS idx_conversions_run ON conversions(run_id);
	`)
	return err
}

// Record inserts an entry. A zero At is set to the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversions (run_id, input, pdf, status, pages, duration_ms, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Input, e.PDF, e.Status, e.Pages, e.Duration.Milliseconds(), e.Error,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.Input, err)
	}
	return nil
}

// Recent returns the newest entries matching q, newest first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, run_id, input, pdf, status, pages, duration_ms, error, at
		FROM conversions WHERE 1=1`
	var args []any
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, q.Status)
	}
	if q.Input != "" {
		query += ` AND input = ?`
		args = append(args, q.Input)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			ms   int64
			atTS string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Input, &e.PDF, &e.Status, &e.Pages, &ms, &e.Error, &atTS); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		if e.At, err = time.Parse(time.RFC3339Nano, atTS); err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", atTS, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
