// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite provides a SQLite store implementation for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tombee/fieldbind/internal/store"
	"github.com/tombee/fieldbind/pkg/errors"
	"github.com/tombee/fieldbind/pkg/mapping"
	_ "modernc.org/sqlite"
)

// Compile-time interface assertion.
var _ store.Store = (*Store)(nil)

// Store is a SQLite mapping config store.
type Store struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// New creates a new SQLite store.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so only 1 connection for writes
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}

	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// configurePragmas sets SQLite configuration options.
func (s *Store) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// migrate runs database migrations.
func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS field_mappings (
			workflow_id TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_field_mappings_updated_at ON field_mappings(updated_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// List returns all records, ordered by workflow id.
func (s *Store) List(ctx context.Context) ([]*store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT workflow_id, config, version, created_at, updated_at
		 FROM field_mappings ORDER BY workflow_id`)
	if err != nil {
		return nil, &errors.StoreError{Op: "list", Cause: err}
	}
	defer rows.Close()

	var out []*store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &errors.StoreError{Op: "list", Cause: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &errors.StoreError{Op: "list", Cause: err}
	}
	return out, nil
}

// Get retrieves the record for a workflow id.
func (s *Store) Get(ctx context.Context, workflowID string) (*store.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT workflow_id, config, version, created_at, updated_at
		 FROM field_mappings WHERE workflow_id = ?`, workflowID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "mapping config", ID: workflowID}
	}
	if err != nil {
		return nil, &errors.StoreError{Op: "get", WorkflowID: workflowID, Cause: err}
	}
	return rec, nil
}

// Save creates or fully replaces the config for a workflow id. The whole
// config is written in one statement, so a save either applies completely or
// not at all.
func (s *Store) Save(ctx context.Context, workflowID string, cfg *mapping.MappingConfig) (*store.Record, error) {
	if cfg == nil {
		return nil, &errors.ValidationError{Field: "config", Message: "config is required"}
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, &errors.StoreError{Op: "save", WorkflowID: workflowID, Cause: err}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO field_mappings (workflow_id, config, version, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET
			config = excluded.config,
			version = field_mappings.version + 1,
			updated_at = excluded.updated_at`,
		workflowID, string(configJSON), now, now)
	if err != nil {
		return nil, &errors.StoreError{Op: "save", WorkflowID: workflowID, Cause: err}
	}

	return s.Get(ctx, workflowID)
}

// Delete removes the config for a workflow id.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM field_mappings WHERE workflow_id = ?`, workflowID)
	if err != nil {
		return &errors.StoreError{Op: "delete", WorkflowID: workflowID, Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &errors.StoreError{Op: "delete", WorkflowID: workflowID, Cause: err}
	}
	if affected == 0 {
		return &errors.NotFoundError{Resource: "mapping config", ID: workflowID}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var (
		rec         store.Record
		configJSON  string
		createdText string
		updatedText string
	)
	if err := row.Scan(&rec.WorkflowID, &configJSON, &rec.Version, &createdText, &updatedText); err != nil {
		return nil, err
	}

	cfg := &mapping.MappingConfig{}
	if err := json.Unmarshal([]byte(configJSON), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	rec.Config = cfg

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdText); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedText); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &rec, nil
}
