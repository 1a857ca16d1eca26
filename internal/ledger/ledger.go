// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists conversion-run history in a SQLite database: one
// row per run plus the errors it recorded. Ledger failures are reported as
// warnings by callers and never fail a conversion.
// See docs/ARCHITECTURE § Run Ledger.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

// Run is one recorded conversion.
type Run struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	InputPath    string
	OutputDir    string
	TotalChunks  int
	FilesCreated int
	SuccessRate  float64
	Errors       []string
}

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
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
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			input_path TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			total_chunks INTEGER NOT NULL,
			files_created INTEGER NOT NULL,
			success_rate REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a completed run and its errors in one transaction.
func (s *Store) RecordRun(run Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, duration_ms, input_path, output_dir, total_chunks, files_created, success_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Duration.Milliseconds(),
		run.InputPath,
		run.OutputDir,
		run.TotalChunks,
		run.FilesCreated,
		run.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for i, msg := range run.Errors {
		if _, err := tx.Exec(
			`INSERT INTO run_errors (run_id, position, message) VALUES (?, ?, ?)`,
			run.ID, i, msg,
		); err != nil {
			return fmt.Errorf("inserting error %d for run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first. The error lists are
// not populated; use RunErrors for one run's details.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, duration_ms, input_path, output_dir, total_chunks, files_created, success_rate
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.InputPath, &r.OutputDir, &r.TotalChunks, &r.FilesCreated, &r.SuccessRate); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunErrors returns the recorded error messages for one run, in order.
func (s *Store) RunErrors(runID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT message FROM run_errors WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying errors for run %s: %w", runID, err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scanning error row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
