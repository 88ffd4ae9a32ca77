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
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// partitionKey groups bindings by the (engine, table) they target.
type partitionKey struct {
	engine string
	table  string
}

// indexedBinding pairs a Binding with its position in the caller's input
// slice, so results can be written back in the original order regardless
// of which partition executes them.
type indexedBinding struct {
	idx int
	b   Binding
}

// Runner groups heterogeneous bindings into the minimum number of SQL
// statements per (engine, table), dispatches them through the engine map,
// and assembles a ValidationResult per binding.
type Runner struct {
	Engines map[string]Engine
	Batch   *BatchBuilder
	Logger  *slog.Logger

	// Timeout bounds a single metric-batch or custom-binding execution.
	// Zero disables the bound.
	Timeout time.Duration
}

// NewRunner returns a Runner wired to the process-wide default registry's
// batch builder.
func NewRunner(engines map[string]Engine) *Runner {
	return &Runner{
		Engines: engines,
		Batch:   NewBatchBuilder(),
		Logger:  slog.Default(),
	}
}

// Run executes bindings sequentially, partitioning metric-backed validators
// into one batched query per (engine, table) and dispatching custom
// validators individually. Every metric partition runs first, in the order
// of its first binding; the custom bindings follow in input order. It
// preserves input order in the output list and never lets one binding's
// failure prevent the rest from running.
//
// If ctx is cancelled between partitions, Run stops and returns the results
// produced so far with run.Status set to ABORTED; in-flight SQL already
// dispatched to an engine is not itself cancelled beyond what ctx.Done does
// for that one call.
func (r *Runner) Run(ctx context.Context, run *RunMetadata, bindings []Binding) []ValidationResult {
	run.StartedAt = time.Now()
	run.Status = RunRunning

	results := make([]ValidationResult, len(bindings))
	filled := make([]bool, len(bindings))

	groups := make(map[partitionKey][]indexedBinding)
	var order []partitionKey
	var customs []indexedBinding

	for i, b := range bindings {
		if b.Validator.Kind() == KindMetric {
			key := partitionKey{b.EngineName, b.Table}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], indexedBinding{i, b})
		} else {
			customs = append(customs, indexedBinding{i, b})
		}
	}

	aborted := false

	for _, key := range order {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		group := groups[key]
		r.runMetricGroup(ctx, key, group, results, filled)
	}

	if !aborted {
		for _, c := range customs {
			if ctx.Err() != nil {
				aborted = true
				break
			}
			results[c.idx] = r.runCustom(ctx, c.idx, c.b)
			filled[c.idx] = true
		}
	}

	now := time.Now()
	run.FinishedAt = now
	if aborted {
		run.Status = RunAborted
	} else {
		run.Status = RunComplete
	}

	// Any binding left unfilled because of an early abort gets dropped from
	// the returned slice entirely; callers only see results actually produced.
	out := make([]ValidationResult, 0, len(results))
	for i, ok := range filled {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

func (r *Runner) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func (r *Runner) runMetricGroup(ctx context.Context, key partitionKey, group []indexedBinding, results []ValidationResult, filled []bool) {
	engine, ok := r.Engines[key.engine]
	if !ok {
		err := fmt.Errorf("unknown engine %q", key.engine)
		for _, it := range group {
			results[it.idx] = errorResult(it.idx, it.b, err)
			filled[it.idx] = true
		}
		return
	}

	requests := make([]MetricRequest, len(group))
	for i, it := range group {
		v := it.b.Validator.(MetricValidator)
		alias := fmt.Sprintf("v%d", i)
		req := v.MetricRequest(alias, engine.Dialect())
		req.Alias = alias
		requests[i] = req
	}

	sql, err := r.Batch.Build(key.table, requests)
	if err != nil {
		for _, it := range group {
			results[it.idx] = errorResult(it.idx, it.b, err)
			filled[it.idx] = true
		}
		return
	}

	runCtx, cancel := r.callCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := engine.RunSQL(runCtx, sql)
	duration := time.Since(start)
	if err != nil {
		var wrapped error = &EngineError{SQL: sql, Err: err}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			wrapped = &TimeoutError{Binding: fmt.Sprintf("%s.%s", key.engine, key.table)}
		}
		for _, it := range group {
			res := errorResult(it.idx, it.b, wrapped)
			res.StartedAt = start
			res.Duration = duration
			results[it.idx] = res
			filled[it.idx] = true
		}
		return
	}

	for i, it := range group {
		v := it.b.Validator.(MetricValidator)
		val, _ := rows.Scalar(requests[i].Alias)
		ok, metrics := v.Interpret(val)
		status := StatusFail
		if ok {
			status = StatusPass
		}
		results[it.idx] = ValidationResult{
			BindingIndex:  it.idx,
			ValidatorType: v.Name(),
			EngineName:    it.b.EngineName,
			Table:         it.b.Table,
			Status:        status,
			Severity:      v.Severity(),
			MetricValues:  metrics,
			StartedAt:     start,
			Duration:      duration,
		}
		filled[it.idx] = true
	}
}

func (r *Runner) runCustom(ctx context.Context, idx int, b Binding) ValidationResult {
	engine, ok := r.Engines[b.EngineName]
	if !ok {
		return errorResult(idx, b, fmt.Errorf("unknown engine %q", b.EngineName))
	}
	v := b.Validator.(CustomValidator)

	runCtx, cancel := r.callCtx(ctx)
	defer cancel()

	start := time.Now()
	ok2, metrics, errRows, err := v.Execute(runCtx, engine, b.Table)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Binding: fmt.Sprintf("%s.%s", b.EngineName, b.Table)}
		}
		res := errorResult(idx, b, err)
		res.StartedAt = start
		res.Duration = duration
		return res
	}
	status := StatusFail
	if ok2 {
		status = StatusPass
	}
	return ValidationResult{
		BindingIndex:  idx,
		ValidatorType: v.Name(),
		EngineName:    b.EngineName,
		Table:         b.Table,
		Status:        status,
		Severity:      v.Severity(),
		MetricValues:  metrics,
		ErrorRows:     errRows,
		StartedAt:     start,
		Duration:      duration,
	}
}

func errorResult(idx int, b Binding, err error) ValidationResult {
	return ValidationResult{
		BindingIndex:  idx,
		ValidatorType: b.Validator.Name(),
		EngineName:    b.EngineName,
		Table:         b.Table,
		Status:        StatusError,
		Severity:      b.Validator.Severity(),
		ErrorMessage:  err.Error(),
		StartedAt:     time.Now(),
	}
}
