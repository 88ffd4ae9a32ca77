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

package profiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DataBridgeTech/dq-core"
)

// ColumnMetrics is the per-column result of a profiling pass.
type ColumnMetrics struct {
	ColumnName        string
	DataType          string
	NullCount         float64
	DistinctCount     float64
	MinValue          *float64
	MaxValue          *float64
	AvgValue          *float64
	StddevValue       *float64
	ProfilingDuration time.Duration
}

// TableMetrics is the full profiling output for one table.
type TableMetrics struct {
	Table             string
	TotalRows         float64
	Columns           map[string]*ColumnMetrics
	ProfilingDuration time.Duration
	Errors            []error
}

// Profiler computes TableMetrics against any dqcore.Engine by dispatching
// one batched metric query per column concurrently, bounded by maxConcurrent,
// backed by dqcore's Engine/BatchBuilder instead of a backend-specific
// driver call per statistic.
type Profiler struct {
	Engine dqcore.Engine
	Logger *slog.Logger
}

// New returns a Profiler against engine.
func New(engine dqcore.Engine, logger *slog.Logger) *Profiler {
	return &Profiler{Engine: engine, Logger: logger}
}

// ProfileTable computes row count plus null/distinct/min/max/avg/stddev for
// every column named in columns, using a numeric column's type to decide
// whether min/max/avg/stddev apply.
func (p *Profiler) ProfileTable(ctx context.Context, table string, columns []dqcore.ColumnInfo, maxConcurrent int) (*TableMetrics, error) {
	start := time.Now()
	pool := newTaskPool(maxConcurrent, p.Logger)

	metrics := &TableMetrics{Table: table, Columns: make(map[string]*ColumnMetrics)}
	var mu sync.Mutex

	rowCntSQL, err := dqcore.NewBatchBuilder().Build(table, []dqcore.MetricRequest{{Metric: "row_cnt", Column: "*", Alias: "row_cnt"}})
	if err != nil {
		return nil, err
	}
	rows, err := p.Engine.RunSQL(ctx, rowCntSQL)
	if err != nil {
		return nil, fmt.Errorf("profiler: row count: %w", err)
	}
	if v, ok := rows.Scalar("row_cnt"); ok {
		metrics.TotalRows = toFloat(v)
	}

	for _, col := range columns {
		column := col
		pool.enqueue("col:"+column.Name, func() error {
			cm, err := p.profileColumn(ctx, table, column)
			mu.Lock()
			metrics.Columns[column.Name] = cm
			mu.Unlock()
			return err
		})
	}
	pool.join()

	metrics.Errors = pool.errors()
	metrics.ProfilingDuration = time.Since(start)
	return metrics, nil
}

func (p *Profiler) profileColumn(ctx context.Context, table string, col dqcore.ColumnInfo) (*ColumnMetrics, error) {
	start := time.Now()
	numeric := isNumericType(col.Type)

	requests := []dqcore.MetricRequest{
		{Metric: "null_cnt", Column: col.Name, Alias: "null_cnt"},
		{Metric: "distinct_cnt", Column: col.Name, Alias: "distinct_cnt"},
	}
	if numeric {
		requests = append(requests,
			dqcore.MetricRequest{Metric: "min", Column: col.Name, Alias: "min"},
			dqcore.MetricRequest{Metric: "max", Column: col.Name, Alias: "max"},
			dqcore.MetricRequest{Metric: "avg", Column: col.Name, Alias: "avg"},
			dqcore.MetricRequest{Metric: "stddev", Column: col.Name, Alias: "stddev"},
		)
	}

	sql, err := dqcore.NewBatchBuilder().Build(table, requests)
	if err != nil {
		return nil, err
	}
	rows, err := p.Engine.RunSQL(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("profiler: column %q: %w", col.Name, err)
	}

	cm := &ColumnMetrics{ColumnName: col.Name, DataType: col.Type}
	if v, ok := rows.Scalar("null_cnt"); ok {
		cm.NullCount = toFloat(v)
	}
	if v, ok := rows.Scalar("distinct_cnt"); ok {
		cm.DistinctCount = toFloat(v)
	}
	if numeric {
		cm.MinValue = scalarPtr(rows, "min")
		cm.MaxValue = scalarPtr(rows, "max")
		cm.AvgValue = scalarPtr(rows, "avg")
		cm.StddevValue = scalarPtr(rows, "stddev")
	}
	cm.ProfilingDuration = time.Since(start)
	return cm, nil
}

func scalarPtr(rows dqcore.Rows, name string) *float64 {
	v, ok := rows.Scalar(name)
	if !ok || v == nil {
		return nil
	}
	f := toFloat(v)
	return &f
}

// Stats flattens m into MetricStat rows suitable for ResultStore.PersistStats,
// the bridge between a profiling pass and MetricDriftValidator's history.
func (m *TableMetrics) Stats(runID, engineName string, recordedAt time.Time) []dqcore.MetricStat {
	var out []dqcore.MetricStat
	out = append(out, dqcore.MetricStat{RunID: runID, EngineName: engineName, Table: m.Table, Metric: "row_cnt", Value: m.TotalRows, RecordedAt: recordedAt})
	for name, cm := range m.Columns {
		out = append(out,
			dqcore.MetricStat{RunID: runID, EngineName: engineName, Table: m.Table, Metric: "null_cnt", Column: name, Value: cm.NullCount, RecordedAt: recordedAt},
			dqcore.MetricStat{RunID: runID, EngineName: engineName, Table: m.Table, Metric: "distinct_cnt", Column: name, Value: cm.DistinctCount, RecordedAt: recordedAt},
		)
		if cm.AvgValue != nil {
			out = append(out, dqcore.MetricStat{RunID: runID, EngineName: engineName, Table: m.Table, Metric: "avg", Column: name, Value: *cm.AvgValue, RecordedAt: recordedAt})
		}
	}
	return out
}

func isNumericType(dataType string) bool {
	switch dataType {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC":
		return true
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	default:
		return 0
	}
}
