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
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// MetricBuilder is a pure function from a column reference (or "*") to a SQL
// aggregate expression. Builders are content-free state: registering one
// twice with the same value is a no-op.
type MetricBuilder func(column string) Expr

// MetricSet is an injectable collection of metric builders, usable where a
// test wants its own registry instead of the process-wide singleton.
type MetricSet struct {
	mu      sync.RWMutex
	metrics map[string]MetricBuilder
}

// NewMetricSet returns an empty set. Use RegisterBuiltins to populate it
// with the standard row-count, null-count and distinct-count metrics.
func NewMetricSet() *MetricSet {
	return &MetricSet{metrics: make(map[string]MetricBuilder)}
}

// Register adds builder under key. Registering the identical function value
// again is a no-op; registering a different builder under an already-used
// key returns ErrDuplicateMetric.
func (s *MetricSet) Register(key string, builder MetricBuilder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.metrics[key]; ok {
		if funcsEqual(existing, builder) {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateMetric, key)
	}
	s.metrics[key] = builder
	return nil
}

// Get returns the builder registered under key, or ErrUnknownMetric.
func (s *MetricSet) Get(key string) (MetricBuilder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.metrics[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	return b, nil
}

// Keys returns every registered metric key, in no particular order.
func (s *MetricSet) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.metrics))
	for k := range s.metrics {
		out = append(out, k)
	}
	return out
}

// RegisterPctWhere synthesizes and registers a builder equivalent to
// `SUM(CASE WHEN predicateSQL THEN 1 ELSE 0 END) / NULLIF(COUNT(*), 0)`
// under key.
func (s *MetricSet) RegisterPctWhere(key, predicateSQL string) error {
	builder := func(_ string) Expr {
		sumTrue := Agg{Kind: AggSum, Arg: CaseWhen{
			Cond: Raw{SQL: predicateSQL},
			Then: Literal{1},
			Else: Literal{0},
		}}
		denom := FuncCall{Name: "NULLIF", Args: []Expr{Agg{Kind: AggCount}, Literal{0}}}
		return Div{Num: sumTrue, Denom: denom}
	}
	return s.Register(key, builder)
}

// RegisterBuiltins populates s with the standard row-count, null-tracking,
// distinct-count and duplicate-row metrics, plus avg/stddev/min/max.
func (s *MetricSet) RegisterBuiltins() {
	must := func(key string, b MetricBuilder) {
		if err := s.Register(key, b); err != nil {
			panic(err) // only reachable if a built-in key collides with itself under two different funcs
		}
	}

	must("row_cnt", func(_ string) Expr { return Agg{Kind: AggCount} })

	must("null_cnt", func(c string) Expr {
		return Agg{Kind: AggSum, Arg: CaseWhen{
			Cond: BinaryOp{Op: "IS", Left: Column{c}, Right: Raw{"NULL"}},
			Then: Literal{1}, Else: Literal{0},
		}}
	})

	must("null_pct", func(c string) Expr {
		nullCnt, _ := s.Get("null_cnt")
		rowCnt, _ := s.Get("row_cnt")
		return Div{Num: nullCnt(c), Denom: rowCnt(c)}
	})

	must("distinct_cnt", func(c string) Expr {
		return Agg{Kind: AggCount, Distinct: true, Arg: Column{c}}
	})

	must("duplicate_row_cnt", func(cs string) Expr {
		fields := strings.Split(cs, ",")
		rendered := make([]string, 0, len(fields))
		for _, f := range fields {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			rendered = append(rendered, Column{f}.Render())
		}
		return Sub{
			Left:  Agg{Kind: AggCount},
			Right: Agg{Kind: AggCount, Distinct: true, Arg: Raw{SQL: strings.Join(rendered, ", ")}},
		}
	})

	must("min", func(c string) Expr { return Agg{Kind: AggMin, Arg: Column{c}} })
	must("max", func(c string) Expr { return Agg{Kind: AggMax, Arg: Column{c}} })
	must("avg", func(c string) Expr { return Agg{Kind: AggAvg, Arg: Column{c}} })
	must("stddev", func(c string) Expr { return Agg{Kind: AggStdev, Arg: Column{c}} })

	must("non_null_cnt", func(c string) Expr { return Agg{Kind: AggCount, Arg: Column{c}} })
}

// funcsEqual reports whether a and b are the same underlying function
// value. Go forbids comparing func values with ==; reflect.ValueOf(fn).Pointer()
// gives the code pointer, which is stable for non-closures and for the
// package-level closures RegisterBuiltins constructs once at startup.
func funcsEqual(a, b MetricBuilder) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// --------------------------------------------------------------------------
// Process-wide singleton
// --------------------------------------------------------------------------

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *MetricSet
)

// DefaultRegistry returns the process-wide MetricSet, lazily initialized
// with the mandatory built-ins on first use. Registration is safe to call
// concurrently, including while a run is in flight: existing builders
// already captured by an in-flight MetricRequest are never replaced, only
// new keys are added.
func DefaultRegistry() *MetricSet {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewMetricSet()
		defaultRegistry.RegisterBuiltins()
	})
	return defaultRegistry
}
