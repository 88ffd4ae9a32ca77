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
	"fmt"

	"github.com/DataBridgeTech/dq-core"
)

// SqlErrorRowsValidator runs an ad-hoc SQL statement that is expected to
// return zero rows; every returned row is treated as an error row, up to
// MaxErrorRows captured in the result for diagnostics. The underlying query
// is wrapped in LIMIT MaxErrorRows+1 so a table with millions of offending
// rows never gets pulled client-side in full; Overflow in the result
// metrics tells the caller the true count exceeds what was sampled.
type SqlErrorRowsValidator struct {
	Envelope
	SQL          string
	MaxErrorRows int
}

func (v *SqlErrorRowsValidator) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *SqlErrorRowsValidator) Name() string               { return "SqlErrorRowsValidator" }

func (v *SqlErrorRowsValidator) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	limit := v.MaxErrorRows
	if limit <= 0 {
		limit = 20
	}

	bounded := fmt.Sprintf("SELECT * FROM (%s) AS sql_error_rows_check LIMIT %d", v.SQL, limit+1)
	rows, err := engine.RunSQL(ctx, bounded)
	if err != nil {
		return false, nil, nil, err
	}

	all := rows.Maps()
	overflow := len(all) > limit
	sample := all
	if overflow {
		sample = all[:limit]
	}

	metrics := map[string]any{"error_row_count": len(sample), "overflow": overflow}
	return len(all) == 0, metrics, sample, nil
}

// ColumnZScoreOutlierRowsValidator flags rows whose Column value sits more
// than ZThresh standard deviations from that column's own mean, computed
// within this table in a single run. It is a sibling of MetricDriftValidator,
// not a duplicate of it: drift compares one run's aggregate metric against
// that metric's history across past runs via a StatReader, while this
// validator compares every row's value against the column's own mean/stddev
// within the current run, with no run history involved. Like
// SqlErrorRowsValidator, the offending-row query is wrapped in
// LIMIT MaxErrorRows+1 so a column with many outliers never gets pulled
// client-side in full.
type ColumnZScoreOutlierRowsValidator struct {
	Envelope
	Column       string
	ZThresh      float64
	MaxErrorRows int
}

func (v *ColumnZScoreOutlierRowsValidator) Kind() dqcore.ValidatorKind { return dqcore.KindCustom }
func (v *ColumnZScoreOutlierRowsValidator) Name() string               { return "ColumnZScoreOutlierRows" }

func (v *ColumnZScoreOutlierRowsValidator) Execute(ctx context.Context, engine dqcore.Engine, table string) (bool, map[string]any, []map[string]any, error) {
	threshold := v.ZThresh
	if threshold == 0 {
		threshold = 3.0
	}
	limit := v.MaxErrorRows
	if limit <= 0 {
		limit = 20
	}

	notNull := fmt.Sprintf("%s IS NOT NULL", v.Column)
	if v.FilterSQL != "" {
		notNull = fmt.Sprintf("%s AND (%s)", notNull, v.FilterSQL)
	}

	statsSQL := fmt.Sprintf(
		"SELECT AVG(%s) AS mean_val, STDDEV_SAMP(%s) AS stddev_val FROM %s WHERE %s",
		v.Column, v.Column, table, notNull,
	)
	statsRows, err := engine.RunSQL(ctx, statsSQL)
	if err != nil {
		return false, nil, nil, err
	}
	meanVal, _ := statsRows.Scalar("mean_val")
	stddevVal, _ := statsRows.Scalar("stddev_val")
	mean := toFloat(meanVal)
	stddev := toFloat(stddevVal)

	if stddev == 0 {
		return true, map[string]any{"mean": mean, "stddev": stddev, "error_row_count": 0}, nil, nil
	}

	outlierSQL := fmt.Sprintf(
		"SELECT * FROM (SELECT * FROM %s WHERE %s) AS column_zscore_outlier_rows_check WHERE ABS((CAST(%s AS DOUBLE) - %g) / %g) > %g LIMIT %d",
		table, notNull, v.Column, mean, stddev, threshold, limit+1,
	)
	rows, err := engine.RunSQL(ctx, outlierSQL)
	if err != nil {
		return false, nil, nil, err
	}

	all := rows.Maps()
	overflow := len(all) > limit
	sample := all
	if overflow {
		sample = all[:limit]
	}

	metrics := map[string]any{
		"mean":            mean,
		"stddev":          stddev,
		"error_row_count": len(sample),
		"overflow":        overflow,
	}
	return len(all) == 0, metrics, sample, nil
}
