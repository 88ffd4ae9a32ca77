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

// Package dqcore implements the metric/batching/runner core of the data
// quality validation engine: a thread-safe metric registry, a minimal SQL
// expression model with a single ANSI-style render pass, a batch builder that
// fuses many metric requests into one scan, a uniform engine abstraction
// with a bounded connection pool, and a sequential runner that turns
// validator bindings into ValidationResults.
package dqcore

import "time"

// Severity classifies how a failing validator should be treated downstream.
// It is orthogonal to Status: a WARN validator that fails still reports
// Status=FAIL, but a consumer may choose not to break a pipeline on it.
type Severity string

const (
	SeverityFail Severity = "FAIL"
	SeverityWarn Severity = "WARN"
	SeverityInfo Severity = "INFO"
)

// Status is the terminal outcome of a single validator execution.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// RunStatus is the lifecycle state of a RunMetadata.
type RunStatus string

const (
	RunRunning  RunStatus = "RUNNING"
	RunComplete RunStatus = "COMPLETE"
	RunAborted  RunStatus = "ABORTED"
)

// DataSourceType names a backend kind understood by engines.New.
type DataSourceType string

const (
	DataSourceTypeSQLite     DataSourceType = "sqlite"
	DataSourceTypeFile       DataSourceType = "file"
	DataSourceTypeClickhouse DataSourceType = "clickhouse"
	DataSourceTypePostgresql DataSourceType = "postgresql"
	DataSourceTypeMysql      DataSourceType = "mysql"
)

// ConnectionConfig carries the fields a concrete engine needs to dial its
// backend. Not every field applies to every backend (e.g. SQLite only uses
// Path).
type ConnectionConfig struct {
	Host     string
	Database string
	Username string
	Password string
	Path     string // SQLite / file-engine path or glob
	PoolSize int    // 0 defaults to 1
}

// DataSource names a backend and how to connect to it. It is the input to
// engines.New.
type DataSource struct {
	Name          string
	Type          DataSourceType
	Configuration ConnectionConfig
}

// Binding pairs a validator to the (engine, table) it targets. Bindings are
// the unit of scheduling for the Runner.
type Binding struct {
	EngineName string
	Table      string
	Validator  Validator
}

// ValidationResult is the immutable outcome of one binding's execution.
type ValidationResult struct {
	BindingIndex  int
	ValidatorType string
	EngineName    string
	Table         string
	Status        Status
	Severity      Severity
	MetricValues  map[string]any
	ErrorRows     []map[string]any
	ErrorMessage  string
	StartedAt     time.Time
	Duration      time.Duration
}

// RunMetadata identifies one execution of a suite. RunID flows into every
// result produced during the run.
type RunMetadata struct {
	RunID      string
	SuiteName  string
	SLAName    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
}

// ColumnInfo describes one column for callers that need more than the bare
// name Engine.ListColumns reports (the profiler).
type ColumnInfo struct {
	Name     string
	Type     string
	Position int
}
