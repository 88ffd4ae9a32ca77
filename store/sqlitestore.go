// Copyright 2025 The DQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements dqcore.ResultStore and dqcore.StatReader: an
// embedded SQLite-backed store for long-lived deployments, and a
// JSON-artifact FileStore for ad-hoc or CI runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DataBridgeTech/dq-core"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS slas(
	sla_name TEXT PRIMARY KEY,
	config TEXT
);
CREATE TABLE IF NOT EXISTS runs(
	run_id TEXT PRIMARY KEY,
	suite_name TEXT,
	sla_name TEXT,
	started_at TIMESTAMP,
	finished_at TIMESTAMP,
	status TEXT
);
CREATE TABLE IF NOT EXISTS results(
	run_id TEXT,
	binding_index INTEGER,
	validator_type TEXT,
	engine_name TEXT,
	table_name TEXT,
	status TEXT,
	severity TEXT,
	metric_values TEXT,
	error_sample TEXT,
	error_message TEXT,
	started_at TIMESTAMP,
	duration_ms INTEGER
);
CREATE TABLE IF NOT EXISTS statistics(
	run_id TEXT,
	engine_name TEXT,
	table_name TEXT,
	metric TEXT,
	column_name TEXT,
	value REAL,
	recorded_at TIMESTAMP
);
`

// SQLiteStore persists runs, results, and stats to an embedded SQLite
// database, grounded in the duckdb-backed result store this module's
// result-persistence layer is modeled on.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path (":memory:" is valid) and ensures the schema
// exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) PersistRun(ctx context.Context, run dqcore.RunMetadata, results []dqcore.ValidationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SuiteName, run.SLAName, run.StartedAt, run.FinishedAt, string(run.Status))
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for _, r := range results {
		values, err := json.Marshal(r.MetricValues)
		if err != nil {
			return fmt.Errorf("store: marshal metric values: %w", err)
		}
		var sample []byte
		if r.ErrorRows != nil {
			sample, err = json.Marshal(r.ErrorRows)
			if err != nil {
				return fmt.Errorf("store: marshal error sample: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO results VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, r.BindingIndex, r.ValidatorType, r.EngineName, r.Table,
			string(r.Status), string(r.Severity), string(values), nullableString(sample), r.ErrorMessage,
			r.StartedAt, r.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("store: insert result: %w", err)
		}
	}
	return tx.Commit()
}

// PersistSLA implements dqcore.ResultStore.
func (s *SQLiteStore) PersistSLA(ctx context.Context, slaName string, config map[string]any) error {
	blob, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("store: marshal sla config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO slas VALUES (?, ?)`, slaName, string(blob))
	if err != nil {
		return fmt.Errorf("store: insert sla: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PersistStats(ctx context.Context, stats []dqcore.MetricStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stats {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO statistics VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.RunID, st.EngineName, st.Table, st.Metric, st.Column, st.Value, st.RecordedAt)
		if err != nil {
			return fmt.Errorf("store: insert stat: %w", err)
		}
	}
	return tx.Commit()
}

// RecentStats implements dqcore.StatReader.
func (s *SQLiteStore) RecentStats(ctx context.Context, engineName, table, metric, column string, limit int) ([]dqcore.MetricStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, engine_name, table_name, metric, column_name, value, recorded_at
		 FROM statistics
		 WHERE engine_name = ? AND table_name = ? AND metric = ? AND column_name = ?
		 ORDER BY recorded_at DESC
		 LIMIT ?`,
		engineName, table, metric, column, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query recent stats: %w", err)
	}
	defer rows.Close()

	var out []dqcore.MetricStat
	for rows.Next() {
		var st dqcore.MetricStat
		if err := rows.Scan(&st.RunID, &st.EngineName, &st.Table, &st.Metric, &st.Column, &st.Value, &st.RecordedAt); err != nil {
			return nil, fmt.Errorf("store: scan stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// nullableString turns an absent byte slice into a SQL NULL instead of an
// empty string, matching error_sample's JSON NULL column type.
func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
