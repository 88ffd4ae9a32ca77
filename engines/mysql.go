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
	"fmt"
	"log/slog"

	"github.com/DataBridgeTech/dq-core"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLEngine targets MySQL via go-sql-driver/mysql, grounded in
// connectors/mysql_connector.go.
type MySQLEngine struct {
	db     *sql.DB
	pool   *dqcore.Pool
	logger *slog.Logger
}

func NewMySQLEngine(cfg dqcore.ConnectionConfig, logger *slog.Logger) (*MySQLEngine, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", cfg.Username, cfg.Password, cfg.Host, cfg.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("engines: open mysql: %w", err)
	}
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	db.SetMaxOpenConns(poolSize)
	return &MySQLEngine{db: db, pool: dqcore.NewPool(poolSize), logger: logger}, nil
}

func (e *MySQLEngine) Dialect() string { return "mysql" }

func (e *MySQLEngine) RunSQL(ctx context.Context, query string) (dqcore.Rows, error) {
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

func (e *MySQLEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	query := `select column_name from information_schema.columns where table_name = ? order by ordinal_position`
	if err := e.pool.Acquire(ctx); err != nil {
		return nil, err
	}
	defer e.pool.Release()

	rows, err := e.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, &dqcore.EngineError{SQL: query, Err: err}
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("engines: scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (e *MySQLEngine) Close() error { return e.db.Close() }
