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
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/DataBridgeTech/dq-core"
)

// ClickHouseEngine dials a ClickHouse cluster using the native driver. Its
// connection parameters are the same fields cnn.NewClickhouseConnection
// consumed; MaxOpenConns/MaxIdleConns are derived from cfg.PoolSize.
type ClickHouseEngine struct {
	conn   chdriver.Conn
	pool   *dqcore.Pool
	logger *slog.Logger
}

func NewClickHouseEngine(cfg dqcore.ConnectionConfig, logger *slog.Logger) (*ClickHouseEngine, error) {
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Host},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: poolSize,
		MaxIdleConns: poolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("engines: open clickhouse: %w", err)
	}
	return &ClickHouseEngine{conn: conn, pool: dqcore.NewPool(poolSize), logger: logger}, nil
}

func (e *ClickHouseEngine) Dialect() string { return "clickhouse" }

func (e *ClickHouseEngine) RunSQL(ctx context.Context, query string) (dqcore.Rows, error) {
	if err := e.pool.Acquire(ctx); err != nil {
		return dqcore.Rows{}, err
	}
	defer e.pool.Release()

	start := sqlStartLog(e.logger, query)
	rows, err := e.conn.Query(ctx, query)
	if err != nil {
		return dqcore.Rows{}, &dqcore.EngineError{SQL: query, Err: err}
	}
	defer rows.Close()

	result, err := scanChRows(rows)
	sqlEndLog(e.logger, start, query, err)
	if err != nil {
		return dqcore.Rows{}, &dqcore.EngineError{SQL: query, Err: err}
	}
	return result, nil
}

func (e *ClickHouseEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	query := fmt.Sprintf("SELECT name FROM system.columns WHERE table = '%s' ORDER BY position", table)
	rows, err := e.RunSQL(ctx, query)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows.Values))
	for _, row := range rows.Values {
		if name, ok := row[0].(string); ok {
			cols = append(cols, name)
		}
	}
	return cols, nil
}

func (e *ClickHouseEngine) Close() error { return e.conn.Close() }

func scanChRows(rows chdriver.Rows) (dqcore.Rows, error) {
	cols := rows.Columns()
	out := dqcore.Rows{Columns: cols}

	for rows.Next() {
		holders := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range holders {
			dest[i] = &holders[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return dqcore.Rows{}, fmt.Errorf("engines: scan clickhouse row: %w", err)
		}
		out.Values = append(out.Values, holders)
	}
	return out, rows.Err()
}
