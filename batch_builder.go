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
	"strings"
)

// MetricRequest is one metric application within a batch: a metric key, the
// column (or "*") it applies to, the alias it will be projected under, and
// an optional per-request filter predicate.
type MetricRequest struct {
	Metric    string
	Column    string
	Alias     string
	FilterSQL string
}

// BatchBuilder fuses many MetricRequests targeting the same table into one
// SELECT statement.
type BatchBuilder struct {
	Registry *MetricSet
}

// NewBatchBuilder returns a builder backed by the process-wide default
// registry. Use BatchBuilder{Registry: set} directly to inject a test
// MetricSet.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{Registry: DefaultRegistry()}
}

// Build renders the single SELECT statement for table and requests.
//
// Guarantees: exactly one SELECT is produced; aliases are preserved
// verbatim and checked for duplicates; projected column order matches
// request order; no WHERE clause is emitted unless every request shares
// an identical, non-empty filter, in which case the per-request rewrite
// is skipped in favor of one global WHERE.
func (b *BatchBuilder) Build(table string, requests []MetricRequest) (string, error) {
	if err := checkDuplicateAliases(requests); err != nil {
		return "", err
	}

	globalFilter := commonFilter(requests)

	projections := make([]string, len(requests))
	for i, req := range requests {
		builder, err := b.Registry.Get(req.Metric)
		if err != nil {
			return "", err
		}
		expr := builder(req.Column)

		filter := req.FilterSQL
		if globalFilter != "" {
			filter = "" // already applied via a single WHERE clause below
		}

		rewritten, err := rewriteForFilter(expr, filter)
		if err != nil {
			return "", err
		}
		projections[i] = fmt.Sprintf("%s AS %s", rewritten.Render(), req.Alias)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(projections, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if globalFilter != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(globalFilter)
	}
	return sb.String(), nil
}

func checkDuplicateAliases(requests []MetricRequest) error {
	seen := make(map[string]struct{}, len(requests))
	for _, r := range requests {
		if _, ok := seen[r.Alias]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, r.Alias)
		}
		seen[r.Alias] = struct{}{}
	}
	return nil
}

// commonFilter returns the shared filter string when every request has the
// identical non-empty FilterSQL, else "".
func commonFilter(requests []MetricRequest) string {
	if len(requests) == 0 {
		return ""
	}
	first := requests[0].FilterSQL
	if first == "" {
		return ""
	}
	for _, r := range requests[1:] {
		if r.FilterSQL != first {
			return ""
		}
	}
	return first
}
