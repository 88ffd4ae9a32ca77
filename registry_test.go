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
	"errors"
	"testing"
)

func TestMetricSetRegisterAndGet(t *testing.T) {
	s := NewMetricSet()
	builder := func(c string) Expr { return Column{c} }
	if err := s.Register("identity", builder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get("identity")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got("x").Render() != "x" {
		t.Errorf("unexpected render from registered builder")
	}
}

func TestMetricSetGetUnknown(t *testing.T) {
	s := NewMetricSet()
	_, err := s.Get("nope")
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestMetricSetRegisterSameFuncIsNoop(t *testing.T) {
	s := NewMetricSet()
	builder := func(c string) Expr { return Column{c} }
	if err := s.Register("k", builder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Register("k", builder); err != nil {
		t.Errorf("re-registering the same func value should be a no-op, got %v", err)
	}
}

func TestMetricSetRegisterDifferentFuncUnderSameKeyFails(t *testing.T) {
	s := NewMetricSet()
	a := func(c string) Expr { return Column{c} }
	b := func(c string) Expr { return Column{c + "_b"} }
	if err := s.Register("k", a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Register("k", b); !errors.Is(err, ErrDuplicateMetric) {
		t.Errorf("expected ErrDuplicateMetric, got %v", err)
	}
}

func TestRegisterBuiltinsRowCnt(t *testing.T) {
	s := NewMetricSet()
	s.RegisterBuiltins()
	b, err := s.Get("row_cnt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b("*").Render(); got != "COUNT(*)" {
		t.Errorf("got %q, want COUNT(*)", got)
	}
}

func TestRegisterBuiltinsNullPct(t *testing.T) {
	s := NewMetricSet()
	s.RegisterBuiltins()
	b, err := s.Get("null_pct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(SUM(CASE WHEN (email IS NULL) THEN 1 ELSE 0 END) / COUNT(*))"
	if got := b("email").Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegisterBuiltinsDuplicateRowCnt(t *testing.T) {
	s := NewMetricSet()
	s.RegisterBuiltins()
	b, err := s.Get("duplicate_row_cnt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(COUNT(*) - COUNT(DISTINCT a, b))"
	if got := b(" a , b ").Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegisterPctWhere(t *testing.T) {
	s := NewMetricSet()
	if err := s.RegisterPctWhere("adult_pct", "age >= 18"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.Get("adult_pct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(SUM(CASE WHEN age >= 18 THEN 1 ELSE 0 END) / NULLIF(COUNT(*), 0))"
	if got := b("").Render(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDefaultRegistryIsPopulatedAndStable(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()
	if r1 != r2 {
		t.Error("DefaultRegistry should return the same singleton across calls")
	}
	if _, err := r1.Get("row_cnt"); err != nil {
		t.Errorf("expected row_cnt to be pre-registered: %v", err)
	}
}
