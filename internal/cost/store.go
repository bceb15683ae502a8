// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// HISTORY STORE
// =============================================================================

// storeSchema holds the append-only cost history. Timestamps are unix
// nanoseconds so window queries are a simple range scan.
const storeSchema = `
CREATE TABLE IF NOT EXISTS cost_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    model TEXT NOT NULL,
    input_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    input_cost REAL NOT NULL,
    output_cost REAL NOT NULL,
    total_cost REAL NOT NULL,
    timestamp INTEGER NOT NULL,
    run_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_cost_entries_timestamp ON cost_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_cost_entries_model ON cost_entries(model);
`

// Store persists ledger history in a local SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the cost history database at
// path, applying the schema and WAL pragmas.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cost database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all persisted entries in timestamp order.
func (s *Store) Load() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT model, input_tokens, output_tokens, input_cost, output_cost,
		       total_cost, timestamp, COALESCE(run_id, '')
		FROM cost_entries ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.Model, &e.InputTokens, &e.OutputTokens,
			&e.InputCost, &e.OutputCost, &e.TotalCost, &ts, &e.RunID); err != nil {
			return nil, fmt.Errorf("failed to scan cost entry: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save replaces the persisted history with the given entries inside a
// single transaction.
func (s *Store) Save(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cost_entries`); err != nil {
		return fmt.Errorf("failed to clear cost history: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cost_entries
			(model, input_tokens, output_tokens, input_cost, output_cost, total_cost, timestamp, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Model, e.InputTokens, e.OutputTokens,
			e.InputCost, e.OutputCost, e.TotalCost, e.Timestamp.UnixNano(), e.RunID); err != nil {
			return fmt.Errorf("failed to insert cost entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cost history: %w", err)
	}
	return nil
}

// Append persists new entries without rewriting existing rows.
func (s *Store) Append(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cost_entries
			(model, input_tokens, output_tokens, input_cost, output_cost, total_cost, timestamp, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Model, e.InputTokens, e.OutputTokens,
			e.InputCost, e.OutputCost, e.TotalCost, e.Timestamp.UnixNano(), e.RunID); err != nil {
			return fmt.Errorf("failed to insert cost entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cost entries: %w", err)
	}
	return nil
}
