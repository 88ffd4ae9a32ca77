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

package engines

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataBridgeTech/dq-core"
)

// FileEngine exposes one or more CSV files as a single table by loading
// them into an embedded SQLiteEngine, the same way the file engine this
// module is modeled on exposes a glob of files as a view over an embedded
// analytical engine: every table a suite references is really backed by
// SQL underneath.
type FileEngine struct {
	*SQLiteEngine
	path  string
	table string
}

// NewFileEngine loads cfg.Path into an in-memory SQLite database as table
// "t" (cfg.Database, when set, overrides the table name). cfg.Path may be a
// direct file path or a glob (e.g. "data/orders-*.csv"); every file the
// glob matches is loaded into the same table, in filepath.Glob's sorted
// order. A path with no glob metacharacters that doesn't match anything is
// treated as a literal single file, so NewFileEngine's error on a missing
// file stays a clear "open file" error instead of a silent empty table.
func NewFileEngine(cfg dqcore.ConnectionConfig, logger *slog.Logger) (*FileEngine, error) {
	sqliteCfg := cfg
	sqliteCfg.Path = ":memory:"
	base, err := NewSQLiteEngine(sqliteCfg, logger)
	if err != nil {
		return nil, err
	}

	table := cfg.Database
	if table == "" {
		table = "t"
	}

	f := &FileEngine{SQLiteEngine: base, path: cfg.Path, table: table}
	if err := f.load(context.Background()); err != nil {
		base.Close()
		return nil, err
	}
	return f, nil
}

func (f *FileEngine) load(ctx context.Context) error {
	paths, err := filepath.Glob(f.path)
	if err != nil {
		return fmt.Errorf("engines: glob %q: %w", f.path, err)
	}
	if len(paths) == 0 {
		paths = []string{f.path}
	}

	var insertSQL string
	var wantCols int
	for i, path := range paths {
		if err := f.loadFile(ctx, path, i == 0, &insertSQL, &wantCols); err != nil {
			return fmt.Errorf("engines: load %q: %w", path, err)
		}
	}
	return nil
}

// loadFile reads one CSV file's header and rows. On the first matched file
// it creates the backing table from the header and fills in insertSQL;
// every subsequent file's header must have the same column count or loading
// fails rather than silently inserting misaligned columns.
func (f *FileEngine) loadFile(ctx context.Context, path string, first bool, insertSQL *string, wantCols *int) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	if first {
		createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", f.table, strings.Join(quoteAll(cols), ", "))
		if _, err := f.db.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table %q: %w", f.table, err)
		}
		placeholders := strings.TrimRight(strings.Repeat("?, ", len(cols)), ", ")
		*insertSQL = fmt.Sprintf("INSERT INTO %s VALUES (%s)", f.table, placeholders)
		*wantCols = len(cols)
	} else if len(cols) != *wantCols {
		return fmt.Errorf("header has %d column(s), expected %d to match the first file loaded into %q", len(cols), *wantCols, f.table)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv row: %w", err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := f.db.ExecContext(ctx, *insertSQL, args...); err != nil {
			return fmt.Errorf("insert row into %q: %w", f.table, err)
		}
	}
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("%q", c)
	}
	return out
}
