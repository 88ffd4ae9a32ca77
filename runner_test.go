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
	"testing"
	"time"
)

// fakeEngine answers RunSQL with one pre-baked scalar per call, in call
// order, and never actually parses sql.
type fakeEngine struct {
	dialect   string
	responses []Rows
	calls     int
	runErr    error
}

func (f *fakeEngine) RunSQL(ctx context.Context, sql string) (Rows, error) {
	if f.runErr != nil {
		return Rows{}, f.runErr
	}
	r := f.responses[f.calls]
	f.calls++
	return r, nil
}

func (f *fakeEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	return nil, nil
}

func (f *fakeEngine) Dialect() string { return f.dialect }

func (f *fakeEngine) Close() error { return nil }

// blockingEngine never returns until ctx is done, so a Runner.Timeout causes
// every call to surface as a context deadline error.
type blockingEngine struct{}

func (f *blockingEngine) RunSQL(ctx context.Context, sql string) (Rows, error) {
	<-ctx.Done()
	return Rows{}, ctx.Err()
}

func (f *blockingEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	return nil, nil
}

func (f *blockingEngine) Dialect() string { return "test" }
func (f *blockingEngine) Close() error    { return nil }

// thresholdValidator passes when its metric's scalar is >= min.
type thresholdValidator struct {
	metric string
	column string
	min    float64
}

func (v *thresholdValidator) Kind() ValidatorKind { return KindMetric }
func (v *thresholdValidator) Name() string        { return "threshold" }
func (v *thresholdValidator) Where() string        { return "" }
func (v *thresholdValidator) Severity() Severity   { return SeverityFail }
func (v *thresholdValidator) Tags() []string       { return nil }

func (v *thresholdValidator) MetricRequest(alias, dialect string) MetricRequest {
	return MetricRequest{Metric: v.metric, Column: v.column, Alias: alias}
}

func (v *thresholdValidator) Interpret(value any) (bool, map[string]any) {
	f, _ := value.(float64)
	return f >= v.min, map[string]any{"value": f}
}

// fixedCustomValidator always returns the same outcome without touching the
// engine argument.
type fixedCustomValidator struct {
	ok   bool
	err  error
	name string
}

func (v *fixedCustomValidator) Kind() ValidatorKind { return KindCustom }
func (v *fixedCustomValidator) Name() string        { return v.name }
func (v *fixedCustomValidator) Where() string        { return "" }
func (v *fixedCustomValidator) Severity() Severity   { return SeverityFail }
func (v *fixedCustomValidator) Tags() []string       { return nil }

func (v *fixedCustomValidator) Execute(ctx context.Context, engine Engine, table string) (bool, map[string]any, []map[string]any, error) {
	if v.err != nil {
		return false, nil, nil, v.err
	}
	return v.ok, nil, nil, nil
}

// blockingCustomValidator never returns until ctx is done.
type blockingCustomValidator struct{}

func (v *blockingCustomValidator) Kind() ValidatorKind { return KindCustom }
func (v *blockingCustomValidator) Name() string        { return "blocking" }
func (v *blockingCustomValidator) Where() string       { return "" }
func (v *blockingCustomValidator) Severity() Severity  { return SeverityFail }
func (v *blockingCustomValidator) Tags() []string      { return nil }

func (v *blockingCustomValidator) Execute(ctx context.Context, engine Engine, table string) (bool, map[string]any, []map[string]any, error) {
	<-ctx.Done()
	return false, nil, nil, ctx.Err()
}

func testRunner(engines map[string]Engine) *Runner {
	return &Runner{
		Engines: engines,
		Batch:   &BatchBuilder{Registry: newTestRegistry()},
		Logger:  nil,
	}
}

func TestRunnerBatchesMetricValidatorsOnSameEngineTable(t *testing.T) {
	eng := &fakeEngine{responses: []Rows{
		{Columns: []string{"v0", "v1"}, Values: [][]any{{float64(5), float64(10)}}},
	}}
	r := testRunner(map[string]Engine{"e": eng})

	bindings := []Binding{
		{EngineName: "e", Table: "t", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
		{EngineName: "e", Table: "t", Validator: &thresholdValidator{metric: "min", column: "x", min: 1}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)

	if eng.calls != 1 {
		t.Errorf("expected exactly 1 batched RunSQL call, got %d", eng.calls)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Status != StatusPass {
			t.Errorf("expected PASS, got %v: %v", res.Status, res.ErrorMessage)
		}
	}
	if run.Status != RunComplete {
		t.Errorf("expected RunComplete, got %v", run.Status)
	}
}

func TestRunnerPreservesInputOrder(t *testing.T) {
	eng1 := &fakeEngine{responses: []Rows{{Columns: []string{"v0"}, Values: [][]any{{float64(100)}}}}}
	eng2 := &fakeEngine{responses: []Rows{{Columns: []string{"v0"}, Values: [][]any{{float64(0)}}}}}
	r := testRunner(map[string]Engine{"e1": eng1, "e2": eng2})

	bindings := []Binding{
		{EngineName: "e1", Table: "t1", Validator: &thresholdValidator{metric: "row_cnt", min: 50}},
		{EngineName: "e2", Table: "t2", Validator: &thresholdValidator{metric: "row_cnt", min: 50}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Table != "t1" || results[0].Status != StatusPass {
		t.Errorf("result 0 should be the t1 PASS, got %+v", results[0])
	}
	if results[1].Table != "t2" || results[1].Status != StatusFail {
		t.Errorf("result 1 should be the t2 FAIL, got %+v", results[1])
	}
}

func TestRunnerDispatchesCustomValidatorsIndividually(t *testing.T) {
	r := testRunner(map[string]Engine{"e": &fakeEngine{}})
	bindings := []Binding{
		{EngineName: "e", Table: "t", Validator: &fixedCustomValidator{ok: true, name: "c1"}},
		{EngineName: "e", Table: "t", Validator: &fixedCustomValidator{ok: false, name: "c2"}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusPass || results[1].Status != StatusFail {
		t.Errorf("unexpected statuses: %v, %v", results[0].Status, results[1].Status)
	}
}

func TestRunnerUnknownEngineProducesErrorResult(t *testing.T) {
	r := testRunner(map[string]Engine{})
	bindings := []Binding{
		{EngineName: "missing", Table: "t", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)
	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("expected single ERROR result, got %+v", results)
	}
}

func TestRunnerEngineRunSQLErrorProducesErrorResult(t *testing.T) {
	eng := &fakeEngine{runErr: fmt.Errorf("boom")}
	r := testRunner(map[string]Engine{"e": eng})
	bindings := []Binding{
		{EngineName: "e", Table: "t", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)
	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("expected single ERROR result, got %+v", results)
	}
}

func TestRunnerMetricGroupTimeoutProducesTimeoutError(t *testing.T) {
	r := testRunner(map[string]Engine{"e": &blockingEngine{}})
	r.Timeout = time.Millisecond

	bindings := []Binding{
		{EngineName: "e", Table: "t", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)

	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("expected single ERROR result, got %+v", results)
	}
	want := (&TimeoutError{Binding: "e.t"}).Error()
	if results[0].ErrorMessage != want {
		t.Errorf("expected error message %q, got %q", want, results[0].ErrorMessage)
	}
}

func TestRunnerCustomValidatorTimeoutProducesTimeoutError(t *testing.T) {
	r := testRunner(map[string]Engine{"e": &blockingEngine{}})
	r.Timeout = time.Millisecond

	bindings := []Binding{
		{EngineName: "e", Table: "t", Validator: &blockingCustomValidator{}},
	}
	run := &RunMetadata{}
	results := r.Run(context.Background(), run, bindings)

	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("expected single ERROR result, got %+v", results)
	}
	want := (&TimeoutError{Binding: "e.t"}).Error()
	if results[0].ErrorMessage != want {
		t.Errorf("expected error message %q, got %q", want, results[0].ErrorMessage)
	}
}

func TestRunnerAbortsOnCancelledContextBetweenPartitions(t *testing.T) {
	eng := &fakeEngine{responses: []Rows{{Columns: []string{"v0"}, Values: [][]any{{float64(1)}}}}}
	r := testRunner(map[string]Engine{"e": eng})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before Run starts

	bindings := []Binding{
		{EngineName: "e", Table: "t1", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
		{EngineName: "e", Table: "t2", Validator: &thresholdValidator{metric: "row_cnt", min: 1}},
	}
	run := &RunMetadata{}
	results := r.Run(ctx, run, bindings)

	if run.Status != RunAborted {
		t.Errorf("expected RunAborted, got %v", run.Status)
	}
	if len(results) != 0 {
		t.Errorf("expected no results once ctx is cancelled before the first partition runs, got %d", len(results))
	}
}
