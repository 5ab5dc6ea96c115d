// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed run outcomes for later inspection.
// Recording lives on the adapter side of the orchestrator boundary: the
// pipeline itself stays stateless, and history is optional.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/geo-engine/pkg/types"
)

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Run is one recorded pipeline run.
type Run struct {
	ID         int64     `json:"id"`
	Keyword    string    `json:"keyword"`
	Status     string    `json:"status"`
	Summary    string    `json:"summary,omitempty"`
	BlockCount int       `json:"block_count"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
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
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			keyword TEXT NOT NULL,
			status TEXT NOT NULL,
			summary TEXT,
			block_count INTEGER NOT NULL DEFAULT 0,
			message TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_keyword ON runs(keyword)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of one run.
func (s *Store) Record(ctx context.Context, keyword string, res types.RunResult) error {
	var (
		summary    string
		blockCount int
	)
	if res.Succeeded() {
		summary = res.Result.AnalysisSummary
		blockCount = len(res.Result.Blocks)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (keyword, status, summary, block_count, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		keyword, string(res.Status), summary, blockCount, res.Message,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// defaults to 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, status, summary, block_count, message, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Keyword, &r.Status, &r.Summary,
			&r.BlockCount, &r.Message, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
