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

package suiteconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DataBridgeTech/dq-core"
	"github.com/DataBridgeTech/dq-core/validators"
	"gopkg.in/yaml.v3"
)

type fakeEngine struct {
	columns []string
	listErr error
}

func (f *fakeEngine) RunSQL(ctx context.Context, sql string) (dqcore.Rows, error) {
	return dqcore.Rows{}, nil
}

func (f *fakeEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.columns, nil
}

func (f *fakeEngine) Dialect() string { return "test" }
func (f *fakeEngine) Close() error    { return nil }

const sampleSuiteYAML = `
version: "1"
sla: nightly
data_sources:
  - name: primary
    type: sqlite
    path: ./data.db
suites:
  - table: users
    engine: primary
    expectations:
      - expectation_type: ColumnNotNull
        column: email
      - expectation_type: RowCountValidator
        min_rows: 1
`

func TestLoadDecodesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	if err := os.WriteFile(path, []byte(sampleSuiteYAML), 0o644); err != nil {
		t.Fatalf("write suite file: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.SLAName != "nightly" {
		t.Errorf("unexpected SLAName: %q", doc.SLAName)
	}
	if len(doc.DataSources) != 1 || doc.DataSources[0].Name != "primary" {
		t.Errorf("unexpected data sources: %+v", doc.DataSources)
	}
	if len(doc.Suites) != 1 || len(doc.Suites[0].Expectations) != 2 {
		t.Fatalf("unexpected suites: %+v", doc.Suites)
	}
	if doc.Suites[0].Expectations[0].Type != "ColumnNotNull" {
		t.Errorf("unexpected expectation type: %q", doc.Suites[0].Expectations[0].Type)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/suite.yaml")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestExpectationUnmarshalYAMLRequiresType(t *testing.T) {
	var e Expectation
	err := yaml.Unmarshal([]byte("column: id\n"), &e)
	if err == nil {
		t.Fatal("expected an error when expectation_type is missing")
	}
}

func TestExpectationUnmarshalYAMLFlattensParams(t *testing.T) {
	var e Expectation
	if err := yaml.Unmarshal([]byte("expectation_type: ColumnNotNull\ncolumn: email\n"), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Type != "ColumnNotNull" {
		t.Errorf("unexpected type: %q", e.Type)
	}
	if e.Params["column"] != "email" {
		t.Errorf("unexpected params: %v", e.Params)
	}
}

func TestDataSourceConfigToDataSource(t *testing.T) {
	c := DataSourceConfig{Name: "primary", Type: "sqlite", Path: "./data.db", PoolSize: 4}
	ds := c.ToDataSource()
	if ds.Name != "primary" || ds.Type != dqcore.DataSourceTypeSQLite {
		t.Errorf("unexpected data source: %+v", ds)
	}
	if ds.Configuration.Path != "./data.db" || ds.Configuration.PoolSize != 4 {
		t.Errorf("unexpected configuration: %+v", ds.Configuration)
	}
}

func TestBuildBindingsSuccess(t *testing.T) {
	var doc File
	if err := yaml.Unmarshal([]byte(sampleSuiteYAML), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engines := map[string]dqcore.Engine{"primary": &fakeEngine{columns: []string{"id", "email"}}}
	bindings, err := BuildBindings(context.Background(), &doc, engines, validators.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}
	for _, b := range bindings {
		if b.EngineName != "primary" || b.Table != "users" {
			t.Errorf("unexpected binding: %+v", b)
		}
	}
}

func TestBuildBindingsUnknownEngine(t *testing.T) {
	var doc File
	if err := yaml.Unmarshal([]byte(sampleSuiteYAML), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := BuildBindings(context.Background(), &doc, map[string]dqcore.Engine{}, validators.NewRegistry())
	var cfgErr *dqcore.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *dqcore.ConfigError, got %v", err)
	}
}

func TestBuildBindingsUnknownColumn(t *testing.T) {
	var doc File
	if err := yaml.Unmarshal([]byte(sampleSuiteYAML), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engines := map[string]dqcore.Engine{"primary": &fakeEngine{columns: []string{"id"}}}
	_, err := BuildBindings(context.Background(), &doc, engines, validators.NewRegistry())
	var cfgErr *dqcore.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *dqcore.ConfigError for a reference to an unknown column, got %v", err)
	}
}

func TestToConfigMapRoundTripsNameAndSuiteCount(t *testing.T) {
	var doc File
	if err := yaml.Unmarshal([]byte(sampleSuiteYAML), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := ToConfigMap(&doc)
	if cfg["sla"] != "nightly" {
		t.Errorf("unexpected sla name: %v", cfg["sla"])
	}
	suites, ok := cfg["suites"].([]TableSuite)
	if !ok || len(suites) != 1 {
		t.Errorf("unexpected suites in config map: %v", cfg["suites"])
	}
}

func TestBuildBindingsUnknownKeyColumn(t *testing.T) {
	doc := File{
		Suites: []TableSuite{{
			Table:  "users",
			Engine: "primary",
			Expectations: []Expectation{
				{Type: "DuplicateRowValidator", Params: map[string]any{"key_columns": []any{"id", "ghost"}}},
			},
		}},
	}
	engines := map[string]dqcore.Engine{"primary": &fakeEngine{columns: []string{"id", "email"}}}
	_, err := BuildBindings(context.Background(), &doc, engines, validators.NewRegistry())
	var cfgErr *dqcore.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *dqcore.ConfigError for a reference to an unknown key column, got %v", err)
	}
}

func TestBuildBindingsUnknownOtherColumn(t *testing.T) {
	doc := File{
		Suites: []TableSuite{{
			Table:  "users",
			Engine: "primary",
			Expectations: []Expectation{
				{Type: "ColumnGreaterEqual", Params: map[string]any{"column": "id", "other_column": "ghost"}},
			},
		}},
	}
	engines := map[string]dqcore.Engine{"primary": &fakeEngine{columns: []string{"id", "email"}}}
	_, err := BuildBindings(context.Background(), &doc, engines, validators.NewRegistry())
	var cfgErr *dqcore.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *dqcore.ConfigError for a reference to an unknown other_column, got %v", err)
	}
}

func TestBuildBindingsUnknownExpectationType(t *testing.T) {
	doc := File{
		Suites: []TableSuite{{
			Table:  "users",
			Engine: "primary",
			Expectations: []Expectation{
				{Type: "NoSuchValidator", Params: map[string]any{}},
			},
		}},
	}
	engines := map[string]dqcore.Engine{"primary": &fakeEngine{columns: []string{"id"}}}
	_, err := BuildBindings(context.Background(), &doc, engines, validators.NewRegistry())
	if err == nil {
		t.Fatal("expected an error for an unregistered expectation type")
	}
}
