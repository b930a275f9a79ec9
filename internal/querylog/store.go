/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Query Log
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package querylog keeps an audit trail of answered questions in SQLite
package querylog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"kiosk-assistant/internal/kbtypes"
)

// Recent limits
const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Entry is one recorded question
type Entry struct {
	ID         string            `json:"id"`
	Query      string            `json:"query"`
	Answer     string            `json:"answer"`
	Strategy   string            `json:"strategy"`
	Confidence float64           `json:"confidence"`
	OutOfScope bool              `json:"out_of_scope"`
	Contacts   []kbtypes.Contact `json:"contacts"`
	Sources    []kbtypes.Source  `json:"sources,omitempty"`
	Elapsed    time.Duration     `json:"elapsed"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Store manages query log persistence using SQLite
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens or creates the log database at path
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the history command read while the server writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS queries (
        id TEXT PRIMARY KEY,
        query TEXT NOT NULL,
        answer TEXT NOT NULL,
        strategy TEXT NOT NULL DEFAULT '',
        confidence REAL NOT NULL DEFAULT 0,
        out_of_scope INTEGER NOT NULL DEFAULT 0,
        contacts TEXT NOT NULL DEFAULT '[]',
        sources TEXT NOT NULL DEFAULT '[]',
        elapsed_ms INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_queries_created_at
        ON queries(created_at DESC);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one answered question
func (s *Store) Record(ctx context.Context, query string, answer kbtypes.Answer, elapsed time.Duration) error {
	contacts := answer.Contacts
	if contacts == nil {
		contacts = []kbtypes.Contact{}
	}
	contactsJSON, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("failed to marshal contacts: %w", err)
	}
	sourcesJSON, err := json.Marshal(answer.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO queries (id, query, answer, strategy, confidence, out_of_scope, contacts, sources, elapsed_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), query, answer.Answer, answer.Strategy, answer.Confidence,
		answer.OutOfScope, string(contactsJSON), string(sourcesJSON),
		elapsed.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}
	return nil
}

// Recent returns the newest entries first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, answer, strategy, confidence, out_of_scope, contacts, sources, elapsed_ms, created_at
         FROM queries
         ORDER BY rowid DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var contactsJSON, sourcesJSON string
		var elapsedMS int64

		if err := rows.Scan(&e.ID, &e.Query, &e.Answer, &e.Strategy, &e.Confidence, &e.OutOfScope,
			&contactsJSON, &sourcesJSON, &elapsedMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(contactsJSON), &e.Contacts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contacts: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &e.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded questions
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM queries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return n, nil
}
