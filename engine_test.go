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
	"testing"
	"time"
)

func TestRowsScalar(t *testing.T) {
	r := Rows{Columns: []string{"a", "b"}, Values: [][]any{{1, "x"}}}
	v, ok := r.Scalar("b")
	if !ok || v != "x" {
		t.Errorf("got (%v, %v), want (x, true)", v, ok)
	}
	if _, ok := r.Scalar("missing"); ok {
		t.Error("expected ok=false for missing column")
	}
	if _, ok := (Rows{}).Scalar("a"); ok {
		t.Error("expected ok=false for empty Rows")
	}
}

func TestRowsEmpty(t *testing.T) {
	if !(Rows{}).Empty() {
		t.Error("zero-row Rows should be Empty")
	}
	if (Rows{Values: [][]any{{1}}}).Empty() {
		t.Error("non-empty Rows should not be Empty")
	}
}

func TestRowsMaps(t *testing.T) {
	r := Rows{Columns: []string{"a", "b"}, Values: [][]any{{1, "x"}, {2, "y"}}}
	maps := r.Maps()
	if len(maps) != 2 {
		t.Fatalf("expected 2 maps, got %d", len(maps))
	}
	if maps[0]["a"] != 1 || maps[0]["b"] != "x" {
		t.Errorf("unexpected first map: %v", maps[0])
	}
	if maps[1]["a"] != 2 || maps[1]["b"] != "y" {
		t.Errorf("unexpected second map: %v", maps[1])
	}
}

func TestPoolAcquireReleaseBounds(t *testing.T) {
	p := NewPool(1)
	ctx := context.Background()
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocked := make(chan error, 1)
	go func() {
		ctx2, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		blocked <- p.Acquire(ctx2)
	}()

	if err := <-blocked; err == nil {
		t.Error("expected second Acquire to time out while the pool's single slot is held")
	}

	p.Release()
	if err := p.Acquire(ctx); err != nil {
		t.Errorf("expected Acquire to succeed after Release, got %v", err)
	}
}

func TestNewPoolClampsSizeBelowOne(t *testing.T) {
	p := NewPool(0)
	ctx := context.Background()
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx2, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx2); err == nil {
		t.Error("expected size-0 pool to behave like size 1 and block a second acquire")
	}
}
