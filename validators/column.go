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
	"fmt"
	"strings"

	"github.com/DataBridgeTech/dq-core"
)

// ColumnNotNull fails when any row in column is NULL.
type ColumnNotNull struct {
	Envelope
	Column string
}

func (v *ColumnNotNull) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnNotNull) Name() string               { return "ColumnNotNull" }

func (v *ColumnNotNull) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "null_pct", Column: v.Column, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *ColumnNotNull) Interpret(value any) (bool, map[string]any) {
	pct := toFloat(value)
	return pct == 0.0, map[string]any{"null_pct": pct}
}

// ColumnNullPct fails when the NULL fraction in column exceeds MaxNullPct.
type ColumnNullPct struct {
	Envelope
	Column     string
	MaxNullPct float64
}

func (v *ColumnNullPct) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnNullPct) Name() string               { return "ColumnNullPct" }

func (v *ColumnNullPct) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "null_pct", Column: v.Column, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *ColumnNullPct) Interpret(value any) (bool, map[string]any) {
	pct := toFloat(value)
	return pct <= v.MaxNullPct, map[string]any{"null_pct": pct}
}

// CompareOp is the comparison ColumnDistinctCount applies between the
// observed and expected counts.
type CompareOp string

const (
	OpEqual        CompareOp = "=="
	OpGreaterEqual CompareOp = ">="
	OpLessEqual    CompareOp = "<="
	OpGreater      CompareOp = ">"
	OpLess         CompareOp = "<"
)

func compare(observed, expected float64, op CompareOp) bool {
	switch op {
	case OpGreaterEqual:
		return observed >= expected
	case OpLessEqual:
		return observed <= expected
	case OpGreater:
		return observed > expected
	case OpLess:
		return observed < expected
	default:
		return observed == expected
	}
}

// ColumnDistinctCount compares COUNT(DISTINCT column) against Expected using Op.
type ColumnDistinctCount struct {
	Envelope
	Column   string
	Expected int64
	Op       CompareOp
}

func (v *ColumnDistinctCount) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnDistinctCount) Name() string               { return "ColumnDistinctCount" }

func (v *ColumnDistinctCount) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "distinct_cnt", Column: v.Column, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *ColumnDistinctCount) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	ok := compare(cnt, float64(v.Expected), v.Op)
	return ok, map[string]any{"distinct_cnt": cnt}
}

// ColumnMin fails when MIN(column) is below MinValue (or not strictly
// above it, when Strict is set).
type ColumnMin struct {
	Envelope
	Column   string
	MinValue float64
	Strict   bool
}

func (v *ColumnMin) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnMin) Name() string               { return "ColumnMin" }

func (v *ColumnMin) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "min", Column: v.Column, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *ColumnMin) Interpret(value any) (bool, map[string]any) {
	observed := toFloat(value)
	ok := observed >= v.MinValue
	if v.Strict {
		ok = observed > v.MinValue
	}
	return ok, map[string]any{"observed_min": observed}
}

// ColumnMax fails when MAX(column) is above MaxValue (or not strictly
// below it, when Strict is set).
type ColumnMax struct {
	Envelope
	Column   string
	MaxValue float64
	Strict   bool
}

func (v *ColumnMax) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnMax) Name() string               { return "ColumnMax" }

func (v *ColumnMax) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	return dqcore.MetricRequest{Metric: "max", Column: v.Column, Alias: alias, FilterSQL: v.FilterSQL}
}

func (v *ColumnMax) Interpret(value any) (bool, map[string]any) {
	observed := toFloat(value)
	ok := observed <= v.MaxValue
	if v.Strict {
		ok = observed < v.MaxValue
	}
	return ok, map[string]any{"observed_max": observed}
}

// ColumnRange fails when any row's column falls outside [MinValue, MaxValue].
type ColumnRange struct {
	Envelope
	Column             string
	MinValue, MaxValue float64
	Strict             bool
}

func (v *ColumnRange) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnRange) Name() string               { return "ColumnRange" }

func (v *ColumnRange) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	var cond string
	if v.Strict {
		cond = fmt.Sprintf("%s <= %v OR %s >= %v", v.Column, v.MinValue, v.Column, v.MaxValue)
	} else {
		cond = fmt.Sprintf("%s < %v OR %s > %v", v.Column, v.MinValue, v.Column, v.MaxValue)
	}
	return dqcore.MetricRequest{Metric: "row_cnt", Column: v.Column, Alias: alias, FilterSQL: mergeFilter(v.FilterSQL, cond)}
}

func (v *ColumnRange) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	return cnt == 0, map[string]any{"out_of_range_cnt": cnt}
}

// ColumnValueInSet fails when any row's column is outside Allowed (NULLs
// count as violations unless AllowNull is set).
type ColumnValueInSet struct {
	Envelope
	Column    string
	Allowed   []string
	AllowNull bool
}

func (v *ColumnValueInSet) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnValueInSet) Name() string               { return "ColumnValueInSet" }

func (v *ColumnValueInSet) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	quoted := make([]string, len(v.Allowed))
	for i, a := range v.Allowed {
		quoted[i] = fmt.Sprintf("'%s'", a)
	}
	cond := fmt.Sprintf("%s NOT IN (%s)", v.Column, strings.Join(quoted, ", "))
	if !v.AllowNull {
		cond += fmt.Sprintf(" OR %s IS NULL", v.Column)
	}
	return dqcore.MetricRequest{Metric: "row_cnt", Column: v.Column, Alias: alias, FilterSQL: mergeFilter(v.FilterSQL, cond)}
}

func (v *ColumnValueInSet) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	return cnt == 0, map[string]any{"invalid_cnt": cnt}
}

// ColumnMatchesRegex fails when any row's column does not match Pattern.
type ColumnMatchesRegex struct {
	Envelope
	Column  string
	Pattern string
}

func (v *ColumnMatchesRegex) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnMatchesRegex) Name() string               { return "ColumnMatchesRegex" }

func (v *ColumnMatchesRegex) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	cond := fmt.Sprintf("NOT (%s)", regexMatchSQL(dialect, v.Column, v.Pattern))
	return dqcore.MetricRequest{Metric: "row_cnt", Column: v.Column, Alias: alias, FilterSQL: mergeFilter(v.FilterSQL, cond)}
}

// regexMatchSQL renders "column matches pattern" in the syntax the target
// dialect actually understands: Postgres has no REGEXP_LIKE and uses the `~`
// operator, ClickHouse uses match(), MySQL 8+ has REGEXP_LIKE, and SQLite
// (engines.SQLiteEngine) relies on the "regexp" scalar function registered
// in engines/sqlite.go to back the REGEXP operator.
func regexMatchSQL(dialect, column, pattern string) string {
	escaped := strings.ReplaceAll(pattern, "'", "''")
	switch dialect {
	case "postgresql":
		return fmt.Sprintf("%s ~ '%s'", column, escaped)
	case "clickhouse":
		return fmt.Sprintf("match(%s, '%s')", column, escaped)
	case "sqlite":
		return fmt.Sprintf("%s REGEXP '%s'", column, escaped)
	default:
		return fmt.Sprintf("REGEXP_LIKE(%s, '%s')", column, escaped)
	}
}

func (v *ColumnMatchesRegex) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	return cnt == 0, map[string]any{"invalid_cnt": cnt}
}

// ColumnGreaterEqual fails when Column < OtherColumn on any row.
type ColumnGreaterEqual struct {
	Envelope
	Column      string
	OtherColumn string
}

func (v *ColumnGreaterEqual) Kind() dqcore.ValidatorKind { return dqcore.KindMetric }
func (v *ColumnGreaterEqual) Name() string               { return "ColumnGreaterEqual" }

func (v *ColumnGreaterEqual) MetricRequest(alias, dialect string) dqcore.MetricRequest {
	cond := fmt.Sprintf("%s < %s", v.Column, v.OtherColumn)
	return dqcore.MetricRequest{Metric: "row_cnt", Column: v.Column, Alias: alias, FilterSQL: mergeFilter(v.FilterSQL, cond)}
}

func (v *ColumnGreaterEqual) Interpret(value any) (bool, map[string]any) {
	cnt := toFloat(value)
	return cnt == 0, map[string]any{"invalid_cnt": cnt}
}

// --------------------------------------------------------------------------
// shared helpers
// --------------------------------------------------------------------------

func mergeFilter(base, extra string) string {
	if base == "" {
		return extra
	}
	return fmt.Sprintf("(%s) AND (%s)", base, extra)
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case uint64:
		return float64(v)
	case []byte:
		var f float64
		fmt.Sscanf(string(v), "%g", &f)
		return f
	case string:
		var f float64
		fmt.Sscanf(v, "%g", &f)
		return f
	default:
		return 0
	}
}
