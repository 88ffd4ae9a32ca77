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
	"time"

	"github.com/DataBridgeTech/dq-core"
)

func durationSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Constructor builds a Validator from a suite's raw expectation
// parameters, already decoded from YAML into a generic map.
type Constructor func(params map[string]any) (dqcore.Validator, error)

// Registry maps an expectation_type name to the Constructor that builds it.
// It exists so suiteconfig never needs a type switch over every validator
// kind: a suite's YAML names the type, the registry resolves it, returning
// dqcore.ConfigError for an unrecognized type at load time.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a Registry pre-populated with every validator type in
// this package except MetricDriftValidator, ColumnReconciliationValidator and
// TableReconciliationValidator, which are not registered.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register("ColumnNotNull", buildColumnNotNull)
	r.Register("ColumnNullPct", buildColumnNullPct)
	r.Register("ColumnDistinctCount", buildColumnDistinctCount)
	r.Register("ColumnMin", buildColumnMin)
	r.Register("ColumnMax", buildColumnMax)
	r.Register("ColumnRange", buildColumnRange)
	r.Register("ColumnValueInSet", buildColumnValueInSet)
	r.Register("ColumnMatchesRegex", buildColumnMatchesRegex)
	r.Register("ColumnGreaterEqual", buildColumnGreaterEqual)
	r.Register("RowCountValidator", buildRowCountValidator)
	r.Register("DuplicateRowValidator", buildDuplicateRowValidator)
	r.Register("PrimaryKeyUniqueness", buildPrimaryKeyUniqueness)
	r.Register("TableFreshnessValidator", buildTableFreshnessValidator)
	r.Register("SqlErrorRowsValidator", buildSqlErrorRowsValidator)
	r.Register("ColumnZScoreOutlierRows", buildColumnZScoreOutlierRows)
	return r
}

// Register adds constructor under name, overwriting any prior registration.
// Suite loaders needing a custom validator type call this before building
// bindings.
func (r *Registry) Register(name string, constructor Constructor) {
	r.constructors[name] = constructor
}

// Build resolves name against the registry and invokes its Constructor.
func (r *Registry) Build(name string, params map[string]any) (dqcore.Validator, error) {
	c, ok := r.constructors[name]
	if !ok {
		return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("unknown expectation type %q", name)}
	}
	return c(params)
}

// --------------------------------------------------------------------------
// param helpers
// --------------------------------------------------------------------------

func strParam(p map[string]any, key string) string {
	v, _ := p[key].(string)
	return v
}

func floatParam(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func boolParam(p map[string]any, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func strSliceParam(p map[string]any, key string) []string {
	raw, _ := p[key].([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func envelopeFrom(p map[string]any) Envelope {
	sev := dqcore.Severity(strParam(p, "severity"))
	return Envelope{
		FilterSQL: strParam(p, "where"),
		Sev:       sev,
		TagList:   strSliceParam(p, "tags"),
	}
}

// --------------------------------------------------------------------------
// constructors
// --------------------------------------------------------------------------

func buildColumnNotNull(p map[string]any) (dqcore.Validator, error) {
	return &ColumnNotNull{Envelope: envelopeFrom(p), Column: strParam(p, "column")}, nil
}

func buildColumnNullPct(p map[string]any) (dqcore.Validator, error) {
	return &ColumnNullPct{Envelope: envelopeFrom(p), Column: strParam(p, "column"), MaxNullPct: floatParam(p, "max_null_pct")}, nil
}

func buildColumnDistinctCount(p map[string]any) (dqcore.Validator, error) {
	op := strParam(p, "op")
	if op == "" {
		op = string(OpEqual)
	}
	return &ColumnDistinctCount{
		Envelope: envelopeFrom(p),
		Column:   strParam(p, "column"),
		Expected: int64(floatParam(p, "expected")),
		Op:       CompareOp(op),
	}, nil
}

func buildColumnMin(p map[string]any) (dqcore.Validator, error) {
	return &ColumnMin{Envelope: envelopeFrom(p), Column: strParam(p, "column"), MinValue: floatParam(p, "min_value"), Strict: boolParam(p, "strict")}, nil
}

func buildColumnMax(p map[string]any) (dqcore.Validator, error) {
	return &ColumnMax{Envelope: envelopeFrom(p), Column: strParam(p, "column"), MaxValue: floatParam(p, "max_value"), Strict: boolParam(p, "strict")}, nil
}

func buildColumnRange(p map[string]any) (dqcore.Validator, error) {
	return &ColumnRange{
		Envelope: envelopeFrom(p),
		Column:   strParam(p, "column"),
		MinValue: floatParam(p, "min_value"),
		MaxValue: floatParam(p, "max_value"),
		Strict:   boolParam(p, "strict"),
	}, nil
}

func buildColumnValueInSet(p map[string]any) (dqcore.Validator, error) {
	allowed := strSliceParam(p, "allowed_values")
	if len(allowed) == 0 {
		return nil, &dqcore.ConfigError{Reason: "ColumnValueInSet requires a non-empty allowed_values"}
	}
	return &ColumnValueInSet{Envelope: envelopeFrom(p), Column: strParam(p, "column"), Allowed: allowed, AllowNull: boolParam(p, "allow_null")}, nil
}

func buildColumnMatchesRegex(p map[string]any) (dqcore.Validator, error) {
	return &ColumnMatchesRegex{Envelope: envelopeFrom(p), Column: strParam(p, "column"), Pattern: strParam(p, "pattern")}, nil
}

func buildColumnGreaterEqual(p map[string]any) (dqcore.Validator, error) {
	return &ColumnGreaterEqual{Envelope: envelopeFrom(p), Column: strParam(p, "column"), OtherColumn: strParam(p, "other_column")}, nil
}

func buildRowCountValidator(p map[string]any) (dqcore.Validator, error) {
	v := &RowCountValidator{Envelope: envelopeFrom(p)}
	if raw, ok := p["min_rows"]; ok {
		n := int64(floatParam(map[string]any{"min_rows": raw}, "min_rows"))
		v.MinRows = &n
	}
	if raw, ok := p["max_rows"]; ok {
		n := int64(floatParam(map[string]any{"max_rows": raw}, "max_rows"))
		v.MaxRows = &n
	}
	if v.MinRows == nil && v.MaxRows == nil {
		return nil, &dqcore.ConfigError{Reason: "RowCountValidator requires min_rows or max_rows"}
	}
	return v, nil
}

func buildDuplicateRowValidator(p map[string]any) (dqcore.Validator, error) {
	keys := strSliceParam(p, "key_columns")
	if len(keys) == 0 {
		return nil, &dqcore.ConfigError{Reason: "DuplicateRowValidator requires key_columns"}
	}
	return &DuplicateRowValidator{Envelope: envelopeFrom(p), KeyColumns: keys}, nil
}

func buildPrimaryKeyUniqueness(p map[string]any) (dqcore.Validator, error) {
	keys := strSliceParam(p, "key_columns")
	if len(keys) == 0 {
		return nil, &dqcore.ConfigError{Reason: "PrimaryKeyUniqueness requires key_columns"}
	}
	return &PrimaryKeyUniqueness{Envelope: envelopeFrom(p), KeyColumns: keys}, nil
}

func buildTableFreshnessValidator(p map[string]any) (dqcore.Validator, error) {
	seconds := floatParam(p, "threshold_seconds")
	return &TableFreshnessValidator{
		Envelope:        envelopeFrom(p),
		TimestampColumn: strParam(p, "timestamp_column"),
		Threshold:       durationSeconds(seconds),
	}, nil
}

func buildSqlErrorRowsValidator(p map[string]any) (dqcore.Validator, error) {
	sql := strParam(p, "sql")
	if sql == "" {
		return nil, &dqcore.ConfigError{Reason: "SqlErrorRowsValidator requires sql"}
	}
	maxRows := int(floatParam(p, "max_error_rows"))
	return &SqlErrorRowsValidator{Envelope: envelopeFrom(p), SQL: sql, MaxErrorRows: maxRows}, nil
}

func buildColumnZScoreOutlierRows(p map[string]any) (dqcore.Validator, error) {
	col := strParam(p, "column")
	if col == "" {
		return nil, &dqcore.ConfigError{Reason: "ColumnZScoreOutlierRows requires column"}
	}
	z := floatParam(p, "z_thresh")
	if z == 0 {
		z = 3.0
	}
	return &ColumnZScoreOutlierRowsValidator{
		Envelope:     envelopeFrom(p),
		Column:       col,
		ZThresh:      z,
		MaxErrorRows: int(floatParam(p, "max_error_rows")),
	}, nil
}
