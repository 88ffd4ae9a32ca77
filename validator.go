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

import "context"

// ValidatorKind distinguishes the two validator execution strategies the
// runner understands.
type ValidatorKind string

const (
	KindMetric ValidatorKind = "metric"
	KindCustom ValidatorKind = "custom"
)

// Validator is the common surface every expectation satisfies.
type Validator interface {
	// Kind tells the runner whether to batch this validator's metric
	// request or call Execute directly.
	Kind() ValidatorKind
	// Name is the expectation type name, used as ValidationResult.ValidatorType.
	Name() string
	// Where returns the validator's optional row filter.
	Where() string
	// Severity returns the validator's configured severity.
	Severity() Severity
	// Tags returns the validator's free-form labels.
	Tags() []string
}

// MetricValidator is a Validator of Kind() == KindMetric: it contributes one
// MetricRequest to the enclosing batch and interprets the resulting scalar.
// dialect is the target engine's Engine.Dialect(), passed through so a
// validator whose filter predicate isn't portable SQL (e.g. a regex match)
// can render the backend-appropriate syntax instead of guessing one vendor.
type MetricValidator interface {
	Validator
	MetricRequest(alias, dialect string) MetricRequest
	Interpret(value any) (bool, map[string]any)
}

// CustomValidator is a Validator of Kind() == KindCustom: it owns its own
// SQL and is executed standalone, once per binding.
type CustomValidator interface {
	Validator
	Execute(ctx context.Context, engine Engine, table string) (bool, map[string]any, []map[string]any, error)
}
