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
	"strings"
	"time"

	"github.com/DataBridgeTech/dq-core"
)

// RowCountValidator passes when the table row count falls within
// [MinRows, MaxRows]. A nil bound disables that side.
type RowCountValidator struct {
	Envelope
	MinRows, MaxRows *int64
}

func (v *RowCountValidator) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *RowCountValidator) Name() string               { return "RowCountValidator" }

func (v *RowCountValidator) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "row_cnt", Column: "*", Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *RowCountValidator) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	ok := true
	if v.MinRows != nil {
		ok = ok && cnt >= float64(*v.MinRows)
	}
	if v.MaxRows != nil {
		ok = ok && cnt <= float64(*v.MaxRows)
	}
	return ok, map[string]any{"row_cnt": cnt}
}

// DuplicateRowValidator passes when no duplicate rows exist across
// KeyColumns, computed via the duplicate_row_cnt metric builder.
type DuplicateRowValidator struct {
	Envelope
	KeyColumns []string
}

func (v *DuplicateRowValidator) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *DuplicateRowValidator) Name() string               { return "DuplicateRowValidator" }

func (v *DuplicateRowValidator) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{
		Metric: "duplicate_row_cnt",
		Column: strings.Join(v.KeyColumns, ","),
		Alias:  alias,
	}
}

func (v *DuplicateRowValidator) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	return cnt == 0, map[string]any{"duplicate_cnt": cnt}
}

// PrimaryKeyUniqueness passes when KeyColumns uniquely identify every row:
// row_cnt equals distinct_cnt(keys). It stays a CustomValidator rather than
// a MetricValidator backed by duplicate_row_cnt (the way DuplicateRowValidator
// is) because spec.md's S5 scenario reports the two counts as named metric
// values (row_cnt, distinct_cnt), and a MetricValidator binding's Interpret
// only ever receives one scalar — not because multi-column DISTINCT can't be
// batched; duplicate_row_cnt already joins KeyColumns for exactly that.
type PrimaryKeyUniqueness struct {
	Envelope
	KeyColumns []string
}

func (v *PrimaryKeyUniqueness) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *PrimaryKeyUniqueness) Name() string               { return "PrimaryKeyUniqueness" }

func (v *PrimaryKeyUniqueness) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	cols := strings.Join(v.KeyColumns, ", ")
	sql := fmt.Sprintf(
		"SELECT COUNT(*) AS row_cnt, COUNT(DISTINCT %s) AS distinct_cnt FROM %s",
		cols, table,
	)
	if v.FilterSQL != "" {
		sql = fmt.Sprintf(
			"SELECT COUNT(*) AS row_cnt, COUNT(DISTINCT %s) AS distinct_cnt FROM %s WHERE %s",
			cols, table, v.FilterSQL,
		)
	}
	rows, err := engine.RunSQL(ctx, sql)
	if err != nil {
		return false, nil, nil, err
	}
	rowVal, _ := rows.Scalar("row_cnt")
	distinctVal, _ := rows.Scalar("distinct_cnt")
	rowCnt := toFloat(rowVal)
	distinctCnt := toFloat(distinctVal)
	metrics := map[string]any{"row_cnt": rowCnt, "distinct_cnt": distinctCnt}
	return rowCnt == distinctCnt, metrics, nil, nil
}

// --------------------------------------------------------------------------
// TableFreshnessValidator
// --------------------------------------------------------------------------

// TableFreshnessValidator passes when the most recent TimestampColumn value
// is within Threshold of now.
type TableFreshnessValidator struct {
	Envelope
	TimestampColumn string
	Threshold       time.Duration
	Now             func() time.Time // injectable for tests; defaults to time.Now
}

func (v *TableFreshnessValidator) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *TableFreshnessValidator) Name() string               { return "TableFreshnessValidator" }

func (v *TableFreshnessValidator) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "max", Column: v.TimestampColumn, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *TableFreshnessValidator) Interpret(value any) (bool, map[string]any) {
	ts, ok := parseTimestamp(value)
	if !ok {
		return false, map[string]any{"max_timestamp": nil}
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	fresh := !ts.Before(now().Add(-v.Threshold))
	return fresh, map[string]any{"max_timestamp": ts}
}

func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case int64:
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}
