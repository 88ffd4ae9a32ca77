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
	"testing"
	"time"

	"github.com/DataBridgeTech/dq-core"
)

func int64p(v int64) *int64 { return &v }

func TestRowCountValidatorInterpretBounds(t *testing.T) {
	v := &RowCountValidator{MinRows: int64p(10), MaxRows: int64p(100)}
	if ok, _ := v.Interpret(float64(50)); !ok {
		t.Error("expected pass within bounds")
	}
	if ok, _ := v.Interpret(float64(5)); ok {
		t.Error("expected fail below MinRows")
	}
	if ok, _ := v.Interpret(float64(101)); ok {
		t.Error("expected fail above MaxRows")
	}
}

func TestRowCountValidatorNilBoundsDisableThatSide(t *testing.T) {
	v := &RowCountValidator{MinRows: int64p(10)}
	if ok, _ := v.Interpret(float64(1_000_000)); !ok {
		t.Error("nil MaxRows should impose no upper bound")
	}
}

func TestDuplicateRowValidatorMetricRequest(t *testing.T) {
	v := &DuplicateRowValidator{KeyColumns: []string{"a", "b"}}
	req := v.MetricRequest("v0", "sqlite")
	if req.Metric != "duplicate_row_cnt" || req.Column != "a,b" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestDuplicateRowValidatorInterpret(t *testing.T) {
	v := &DuplicateRowValidator{KeyColumns: []string{"a"}}
	if ok, _ := v.Interpret(float64(0)); !ok {
		t.Error("zero duplicates should pass")
	}
	if ok, _ := v.Interpret(float64(3)); ok {
		t.Error("nonzero duplicates should fail")
	}
}

func twoColRows(col1 string, val1 any, col2 string, val2 any) dqcore.Rows {
	return dqcore.Rows{Columns: []string{col1, col2}, Values: [][]any{{val1, val2}}}
}

func TestPrimaryKeyUniquenessExecutePass(t *testing.T) {
	eng := &fakeEngine{responses: []dqcore.Rows{twoColRows("row_cnt", float64(3), "distinct_cnt", float64(3))}}
	v := &PrimaryKeyUniqueness{KeyColumns: []string{"id"}}
	ok, metrics, _, err := v.Execute(context.Background(), eng, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("expected pass, got metrics %v", metrics)
	}
	if metrics["row_cnt"] != float64(3) || metrics["distinct_cnt"] != float64(3) {
		t.Errorf("unexpected metrics: %v", metrics)
	}
}

// TestPrimaryKeyUniquenessExecuteFail mirrors spec.md's S5 scenario: rows
// (1,'a'), (1,'b'), (2,'c') keyed on id yield row_cnt=3, distinct_cnt=2.
func TestPrimaryKeyUniquenessExecuteFail(t *testing.T) {
	eng := &fakeEngine{responses: []dqcore.Rows{twoColRows("row_cnt", float64(3), "distinct_cnt", float64(2))}}
	v := &PrimaryKeyUniqueness{KeyColumns: []string{"id"}}
	ok, metrics, _, err := v.Execute(context.Background(), eng, "users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected fail when duplicates exist")
	}
	if metrics["row_cnt"] != float64(3) || metrics["distinct_cnt"] != float64(2) {
		t.Errorf("unexpected metrics: %v", metrics)
	}
}

func TestTableFreshnessValidatorInterpret(t *testing.T) {
	fixedNow := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	v := &TableFreshnessValidator{
		TimestampColumn: "updated_at",
		Threshold:       time.Hour,
		Now:             func() time.Time { return fixedNow },
	}
	fresh := fixedNow.Add(-30 * time.Minute)
	if ok, _ := v.Interpret(fresh); !ok {
		t.Error("expected pass for a timestamp within the threshold")
	}
	stale := fixedNow.Add(-2 * time.Hour)
	if ok, _ := v.Interpret(stale); ok {
		t.Error("expected fail for a timestamp older than the threshold")
	}
}

func TestTableFreshnessValidatorUnparsableValue(t *testing.T) {
	v := &TableFreshnessValidator{TimestampColumn: "updated_at", Threshold: time.Hour}
	ok, metrics := v.Interpret(42.5)
	if ok {
		t.Error("expected fail for an unparsable timestamp value")
	}
	if metrics["max_timestamp"] != nil {
		t.Errorf("expected nil max_timestamp, got %v", metrics["max_timestamp"])
	}
}

func TestParseTimestampVariants(t *testing.T) {
	if _, ok := parseTimestamp("not-a-time"); ok {
		t.Error("expected failure parsing a non-RFC3339 string")
	}
	if _, ok := parseTimestamp(int64(0)); !ok {
		t.Error("expected int64 unix timestamps to parse")
	}
	if _, ok := parseTimestamp("2026-08-06T12:00:00Z"); !ok {
		t.Error("expected RFC3339 string to parse")
	}
}
