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

package dqcore

import (
	"context"
	"fmt"
)

// Rows is an eagerly materialized result table: ordered column names plus
// one []any per row, scanned into Go types by the engine's driver.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Scalar returns the value in the first row under column name. It reports
// false when Rows has no rows or no column of that name.
func (r Rows) Scalar(name string) (any, bool) {
	if len(r.Values) == 0 {
		return nil, false
	}
	for i, c := range r.Columns {
		if c == name {
			return r.Values[0][i], true
		}
	}
	return nil, false
}

// Empty reports whether the result set has zero rows.
func (r Rows) Empty() bool { return len(r.Values) == 0 }

// Maps converts every row into a column-name-keyed map, used by custom
// validators that want to inspect sample rows (e.g. SqlErrorRowsValidator).
func (r Rows) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Values))
	for i, row := range r.Values {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

// Engine is the uniform row-returning SQL interface every backend
// implements.
type Engine interface {
	// RunSQL executes sql and returns its result set, eagerly materialized.
	RunSQL(ctx context.Context, sql string) (Rows, error)
	// ListColumns returns the ordered column names of table.
	ListColumns(ctx context.Context, table string) ([]string, error)
	// Dialect names the SQL variant used to render batch-builder output.
	Dialect() string
	// Close releases the engine's connection pool.
	Close() error
}

// Pool is a bounded semaphore guarding concurrent access to a fixed number
// of backend connections: Acquire blocks until a slot is free or ctx is
// done, Release always runs via the caller's defer.
type Pool struct {
	slots chan struct{}
}

// NewPool returns a Pool with size concurrent slots. size < 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is available or ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dqcore: pool acquire: %w", ctx.Err())
	}
}

// Release frees the slot acquired by a prior successful Acquire.
func (p *Pool) Release() {
	select {
	case <-p.slots:
	default:
	}
}
