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
	"time"
)

// MetricStat is one historical (metric, column) observation persisted after
// a run, the unit MetricDriftValidator compares its current reading against.
type MetricStat struct {
	RunID      string
	EngineName string
	Table      string
	Metric     string
	Column     string
	Value      float64
	RecordedAt time.Time
}

// ResultStore persists the outcome of a run: the run's own metadata plus
// every ValidationResult it produced, and optionally a batch of metric
// statistics for later drift comparisons.
type ResultStore interface {
	PersistRun(ctx context.Context, run RunMetadata, results []ValidationResult) error
	PersistStats(ctx context.Context, stats []MetricStat) error
	// PersistSLA records the raw config of the SLA (or standalone suite)
	// that produced a run, keyed by name, so a dashboard can show what was
	// configured without re-reading the YAML file it came from.
	PersistSLA(ctx context.Context, slaName string, config map[string]any) error
}

// StatReader is the narrow read-only slice of ResultStore that
// MetricDriftValidator depends on. Keeping it separate from ResultStore lets
// a validator be constructed against a read replica or a stub in tests
// without pulling in write methods it never calls.
type StatReader interface {
	// RecentStats returns up to limit MetricStat rows for (engine, table,
	// metric, column), newest first.
	RecentStats(ctx context.Context, engineName, table, metric, column string, limit int) ([]MetricStat, error)
}
