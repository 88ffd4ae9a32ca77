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

package engines

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/DataBridgeTech/dq-core"
	"modernc.org/sqlite"
)

// registerRegexpOnce backs the REGEXP operator, which SQLite leaves
// unimplemented unless the host application registers a "regexp" scalar
// function (SQLite rewrites "x REGEXP y" into "regexp(y, x)"). Registration
// is process-wide in modernc.org/sqlite, so it must happen exactly once
// regardless of how many SQLiteEngine instances are opened.
var registerRegexpOnce sync.Once
var registerRegexpErr error

func registerRegexpFunction() error {
	registerRegexpOnce.Do(func() {
		registerRegexpErr = sqlite.RegisterDeterministicScalarFunction(
			"regexp", 2,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				pattern, _ := args[0].(string)
				text, _ := args[1].(string)
				matched, err := regexp.MatchString(pattern, text)
				if err != nil {
					return nil, fmt.Errorf("engines: invalid regexp %q: %w", pattern, err)
				}
				return matched, nil
			},
		)
	})
	return registerRegexpErr
}

// SQLiteEngine is the embedded reference dqcore.Engine: no warehouse
// required, suitable for suites run against small or synthetic tables and
// for the runner's own test fixtures.
type SQLiteEngine struct {
	db     *sql.DB
	pool   *dqcore.Pool
	logger *slog.Logger
}

// NewSQLiteEngine opens cfg.Path (":memory:" is valid) and returns an Engine
// bounded by cfg.PoolSize concurrent connections.
func NewSQLiteEngine(cfg dqcore.ConnectionConfig, logger *slog.Logger) (*SQLiteEngine, error) {
	if err := registerRegexpFunction(); err != nil {
		return nil, fmt.Errorf("engines: register regexp function: %w", err)
	}
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("engines: open sqlite %q: %w", path, err)
	}
	return &SQLiteEngine{db: db, pool: dqcore.NewPool(cfg.PoolSize), logger: logger}, nil
}

func (e *SQLiteEngine) Dialect() string { return "sqlite" }

func (e *SQLiteEngine) RunSQL(ctx context.Context, query string) (dqcore.Rows, error) {
	if err := e.pool.Acquire(ctx); err != nil {
		return dqcore.Rows{}, err
	}
	defer e.pool.Release()

	start := sqlStartLog(e.logger, query)
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return dqcore.Rows{}, &dqcore.EngineError{SQL: query, Err: err}
	}
	defer rows.Close()

	result, err := scanRows(rows)
	sqlEndLog(e.logger, start, query, err)
	if err != nil {
		return dqcore.Rows{}, &dqcore.EngineError{SQL: query, Err: err}
	}
	return result, nil
}

func (e *SQLiteEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	if err := e.pool.Acquire(ctx); err != nil {
		return nil, err
	}
	defer e.pool.Release()

	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, &dqcore.EngineError{SQL: "PRAGMA table_info", Err: err}
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("engines: scan table_info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (e *SQLiteEngine) Close() error { return e.db.Close() }

// scanRows eagerly materializes a *sql.Rows into dqcore.Rows, the pattern
// every engine implementation in this package shares.
func scanRows(rows *sql.Rows) (dqcore.Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return dqcore.Rows{}, fmt.Errorf("engines: read columns: %w", err)
	}

	out := dqcore.Rows{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return dqcore.Rows{}, fmt.Errorf("engines: scan row: %w", err)
		}
		out.Values = append(out.Values, raw)
	}
	if err := rows.Err(); err != nil {
		return dqcore.Rows{}, fmt.Errorf("engines: row iteration: %w", err)
	}
	return out, nil
}
