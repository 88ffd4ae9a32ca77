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

// Package validators implements the ready-to-use expectation types bound
// to tables through suiteconfig: column-level checks, table-level checks,
// custom SQL checks, reconciliation checks, and a metric-drift check.
package validators

import "github.com/DataBridgeTech/dq-core"

// Envelope holds the fields every validator in this package shares: an
// optional row filter, a severity, and free-form tags. Concrete types embed
// it and implement the rest of dqcore.Validator.
type Envelope struct {
	FilterSQL   string
	Sev         dqcore.Severity
	TagList     []string
	Description string
}

func (e Envelope) Where() string  { return e.FilterSQL }
func (e Envelope) Tags() []string { return e.TagList }

func (e Envelope) Severity() dqcore.Severity {
	if e.Sev == "" {
		return dqcore.SeverityFail
	}
	return e.Sev
}
