// Package history records successful word lookups in a local SQLite
// database so recently looked-up words can be reviewed later.
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

// Entry is one recorded lookup.
type Entry struct {
	Word        string
	Explanation string
	Source      string
	LookedUp    time.Time
}

// Store records lookups in a SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location,
// $HOME/.wordtip-history.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wordtip-history.db"
	}
	return filepath.Join(home, ".wordtip-history.db")
}

// Open opens or creates the history database at path. An empty path
// selects DefaultPath.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL,
			explanation TEXT NOT NULL,
			source TEXT NOT NULL,
			looked_up TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_looked_up ON lookups(looked_up DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

// Record stores one lookup. A zero LookedUp is filled with the current
// time.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.LookedUp.IsZero() {
		entry.LookedUp = time.Now()
	}

	query := `INSERT INTO lookups (word, explanation, source, looked_up) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, entry.Word, entry.Explanation, entry.Source, entry.LookedUp); err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}
	return nil
}

// Recent returns the newest lookups, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT word, explanation, source, looked_up FROM lookups ORDER BY looked_up DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Word, &entry.Explanation, &entry.Source, &entry.LookedUp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of recorded lookups.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history rows: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
