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

// Package profiler computes generic column statistics against any
// dqcore.Engine, fanning out one concurrent task per column the way the
// teacher's profiling layer fanned out per-column database calls.
package profiler

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// taskPool runs fire-and-forget tasks bounded by a semaphore, adapted from
// task_pool.go's TaskPool: same Enqueue/Join/Errors shape, renamed and kept
// unexported since nothing outside this package needs to schedule raw
// tasks directly.
type taskPool struct {
	semaphore chan struct{}
	logger    *slog.Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	errs      []error
}

func newTaskPool(size int, logger *slog.Logger) *taskPool {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if size < 1 {
		size = 1
	}
	return &taskPool{semaphore: make(chan struct{}, size), logger: logger}
}

func (p *taskPool) enqueue(id string, task func() error) {
	p.wg.Add(1)
	go func() {
		p.semaphore <- struct{}{}
		defer func() {
			<-p.semaphore
			p.wg.Done()
		}()

		start := time.Now()
		p.logger.Debug("profiling task starting", "task_id", id)
		if err := task(); err != nil {
			p.logger.Error("profiling task failed", "task_id", id, "error", err.Error())
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
		p.logger.Debug("profiling task finished", "task_id", id, "elapsed_ms", time.Since(start).Milliseconds())
	}()
}

func (p *taskPool) join() { p.wg.Wait() }

func (p *taskPool) errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}
