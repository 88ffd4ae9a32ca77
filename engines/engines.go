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

// Package engines implements dqcore.Engine against the backends a suite can
// target: an embedded SQLite reference engine, a CSV/file engine layered on
// top of it, and the three warehouse drivers.
package engines

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/DataBridgeTech/dq-core"
)

// New dials the backend named by src.Type and returns a ready dqcore.Engine.
// It is the single entry point suiteconfig and cmd/dqctl use to turn a
// DataSource into something the Runner can execute SQL against.
func New(src dqcore.DataSource, logger *slog.Logger) (dqcore.Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch src.Type {
	case dqcore.DataSourceTypeSQLite:
		return NewSQLiteEngine(src.Configuration, logger)
	case dqcore.DataSourceTypeFile:
		return NewFileEngine(src.Configuration, logger)
	case dqcore.DataSourceTypeClickhouse:
		return NewClickHouseEngine(src.Configuration, logger)
	case dqcore.DataSourceTypePostgresql:
		return NewPostgresEngine(src.Configuration, logger)
	case dqcore.DataSourceTypeMysql:
		return NewMySQLEngine(src.Configuration, logger)
	default:
		return nil, fmt.Errorf("engines: unknown data source type %q", src.Type)
	}
}
