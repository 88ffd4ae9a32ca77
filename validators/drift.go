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
	"math"

	"github.com/DataBridgeTech/dq-core"
)

// MetricDriftValidator flags a metric reading that deviates from its own
// recent history by more than ZThresh standard deviations. It needs both a
// live Engine (to compute the current value, as any MetricValidator does)
// and a StatReader (to read history), so it implements CustomValidator
// directly instead of letting the runner batch it: the history lookup has
// to happen after the current value is known.
type MetricDriftValidator struct {
	Envelope
	EngineName string
	Table      string
	Column     string // "" means the metric is table-scoped (e.g. row_cnt)
	Metric     string
	Window     int
	ZThresh    float64
	Stats      dqcore.StatReader
}

func (v *MetricDriftValidator) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *MetricDriftValidator) Name() string               { return "MetricDriftValidator" }

func (v *MetricDriftValidator) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	requests := []dqcore.MetricRequest{{Metric: v.Metric, Column: v.column(), Alias: "v", FilterSQL: v.FilterSQL}}
	sql, err := dqcore.NewBatchBuilder().Build(table, requests)
	if err != nil {
		return false, nil, nil, err
	}
	rows, err := engine.RunSQL(ctx, sql)
	if err != nil {
		return false, nil, nil, err
	}
	raw, _ := rows.Scalar("v")
	current := toFloat(raw)

	window := v.Window
	if window <= 0 {
		window = 20
	}
	hist, err := v.Stats.RecentStats(ctx, v.EngineName, table, v.Metric, v.Column, window)
	if err != nil {
		return false, nil, nil, err
	}
	if len(hist) < 5 {
		return true, map[string]any{"skipped": "insufficient history"}, nil, nil
	}

	mean, stddev := meanStddev(hist)
	z := 0.0
	if stddev != 0 {
		z = math.Abs((current - mean) / stddev)
	}

	threshold := v.ZThresh
	if threshold == 0 {
		threshold = 3.0
	}

	details := map[string]any{"mean": mean, "std": stddev, "z": z, "current": current}
	return z <= threshold, details, nil, nil
}

func (v *MetricDriftValidator) column() string {
	if v.Column == "" {
		return "*"
	}
	return v.Column
}

func meanStddev(stats []dqcore.MetricStat) (mean, stddev float64) {
	n := float64(len(stats))
	var sum float64
	for _, s := range stats {
		sum += s.Value
	}
	mean = sum / n

	var sqDiff float64
	for _, s := range stats {
		d := s.Value - mean
		sqDiff += d * d
	}
	if n > 1 {
		stddev = math.Sqrt(sqDiff / (n - 1))
	}
	return mean, stddev
}
