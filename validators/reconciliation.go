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

package validators

import (
	"context"
	"fmt"
	"math"

	"github.com/DataBridgeTech/dq-core"
)

// ColumnMapping relates a column on the primary table to its counterpart on
// the comparer table. An empty Comparer means the same name is used on both
// sides. Tolerance, when non-zero, allows the reconciled float values to
// differ by up to Tolerance and still be treated as equal.
type ColumnMapping struct {
	Primary   string
	Comparer  string
	Tolerance float64
}

func (m ColumnMapping) comparerName() string {
	if m.Comparer == "" {
		return m.Primary
	}
	return m.Comparer
}

func floatsEqual(a, b, tolerance float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if tolerance == 0 {
		return a == b
	}
	return math.Abs(a-b) <= tolerance
}

// ColumnReconciliationValidator compares row_cnt/min/max for one column
// between a primary engine/table and a comparer engine/table, per
// ColumnMapping. It owns its own SQL because it dispatches two independent
// batches (primary and comparer) rather than folding into the caller's
// batch.
type ColumnReconciliationValidator struct {
	Envelope
	Mapping        ColumnMapping
	ComparerEngine dqcore.Engine
	ComparerTable  string
	ComparerWhere  string
}

var reconMetrics = []string{"row_cnt", "min", "max"}

func (v *ColumnReconciliationValidator) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *ColumnReconciliationValidator) Name() string               { return "ColumnReconciliationValidator" }

func (v *ColumnReconciliationValidator) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	primary, err := v.runMetrics(ctx, engine, table, v.Mapping.Primary, v.FilterSQL)
	if err != nil {
		return false, nil, nil, err
	}
	comparer, err := v.runMetrics(ctx, v.ComparerEngine, v.ComparerTable, v.Mapping.comparerName(), v.ComparerWhere)
	if err != nil {
		return false, nil, nil, err
	}

	match := true
	for _, m := range reconMetrics {
		if !floatsEqual(primary[m], comparer[m], v.Mapping.Tolerance) {
			match = false
		}
	}

	details := map[string]any{"primary": primary, "comparer": comparer}
	return match, details, nil, nil
}

func (v *ColumnReconciliationValidator) runMetrics(ctx context.Context, engine dqcore.Engine, table, column, filter string) (map[string]float64, error) {
	requests := make([]dqcore.MetricRequest, len(reconMetrics))
	for i, m := range reconMetrics {
		col := column
		if m == "row_cnt" {
			col = "*"
		}
		requests[i] = dqcore.MetricRequest{Metric: m, Column: col, Alias: m, FilterSQL: filter}
	}
	sql, err := dqcore.NewBatchBuilder().Build(table, requests)
	if err != nil {
		return nil, err
	}
	rows, err := engine.RunSQL(ctx, sql)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(reconMetrics))
	for _, m := range reconMetrics {
		val, _ := rows.Scalar(m)
		out[m] = toFloat(val)
	}
	return out, nil
}

// TableReconciliationValidator compares row counts between a primary table
// and a comparer engine/table.
type TableReconciliationValidator struct {
	Envelope
	ComparerEngine dqcore.Engine
	ComparerTable  string
	ComparerWhere  string
}

func (v *TableReconciliationValidator) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *TableReconciliationValidator) Name() string               { return "TableReconciliationValidator" }

func (v *TableReconciliationValidator) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	primaryCnt, err := rowCount(ctx, engine, table, v.FilterSQL)
	if err != nil {
		return false, nil, nil, err
	}
	comparerCnt, err := rowCount(ctx, v.ComparerEngine, v.ComparerTable, v.ComparerWhere)
	if err != nil {
		return false, nil, nil, err
	}
	details := map[string]any{"primary": primaryCnt, "comparer": comparerCnt}
	return primaryCnt == comparerCnt, details, nil, nil
}

func rowCount(ctx context.Context, engine dqcore.Engine, table, filter string) (float64, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) AS row_cnt FROM %s", table)
	if filter != "" {
		sql = fmt.Sprintf("SELECT COUNT(*) AS row_cnt FROM %s WHERE %s", table, filter)
	}
	rows, err := engine.RunSQL(ctx, sql)
	if err != nil {
		return 0, err
	}
	val, _ := rows.Scalar("row_cnt")
	return toFloat(val), nil
}
