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

// Package suiteconfig loads a YAML suite file into dqcore.Binding values,
// resolving each expectation's type name through a validators.Registry and
// validating referenced columns against the live engine. It depends on
// gopkg.in/yaml.v3 so that dqcore itself never has to.
package suiteconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/DataBridgeTech/dq-core"
	"github.com/DataBridgeTech/dq-core/validators"
	"gopkg.in/yaml.v3"
)

// DataSourceConfig is one entry under data_sources in a suite file.
type DataSourceConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Host     string `yaml:"host,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Path     string `yaml:"path,omitempty"`
	PoolSize int    `yaml:"pool_size,omitempty"`
}

// ToDataSource converts the YAML-decoded config to the dqcore input type.
func (c DataSourceConfig) ToDataSource() dqcore.DataSource {
	return dqcore.DataSource{
		Name: c.Name,
		Type: dqcore.DataSourceType(c.Type),
		Configuration: dqcore.ConnectionConfig{
			Host:     c.Host,
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
			Path:     c.Path,
			PoolSize: c.PoolSize,
		},
	}
}

// Expectation is one expectation_type entry under a suite's table. Params
// carries every YAML key of the node verbatim, flattening a mapping check
// node into a typed struct plus a free-form remainder.
type Expectation struct {
	Type   string
	Params map[string]any
}

// UnmarshalYAML decodes a mapping node such as:
//
//	- expectation_type: ColumnNotNull
//	  column: id
//
// into Type="ColumnNotNull", Params={"column": "id", "expectation_type": "ColumnNotNull"}.
func (e *Expectation) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	typeName, ok := raw["expectation_type"].(string)
	if !ok || typeName == "" {
		return fmt.Errorf("suiteconfig: expectation missing expectation_type")
	}
	e.Type = typeName
	e.Params = raw
	return nil
}

// TableSuite binds a list of expectations to one (engine, table) pair.
type TableSuite struct {
	Table        string        `yaml:"table"`
	Engine       string        `yaml:"engine"`
	Expectations []Expectation `yaml:"expectations"`
}

// File is the root document of a suite YAML file.
type File struct {
	Version     string             `yaml:"version"`
	SLAName     string             `yaml:"sla,omitempty"`
	DataSources []DataSourceConfig `yaml:"data_sources"`
	Suites      []TableSuite       `yaml:"suites"`
}

// Load decodes path into a File.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("suiteconfig: open %q: %w", path, err)
	}
	defer f.Close()

	var doc File
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("suiteconfig: decode %q: %w", path, err)
	}
	return &doc, nil
}

// ToConfigMap round-trips f through YAML-compatible generic types so a
// dqcore.ResultStore.PersistSLA call can record exactly what was loaded
// without either side depending on the other's types.
func ToConfigMap(f *File) map[string]any {
	return map[string]any{
		"version":      f.Version,
		"sla":          f.SLAName,
		"data_sources": f.DataSources,
		"suites":       f.Suites,
	}
}

// BuildBindings resolves every expectation in f against registry, validating
// that any column parameter actually exists on the target table (read via
// engines[...].ListColumns), and returns the flat binding list the Runner
// consumes. A suite that references an unconfigured engine or an unknown
// expectation type is rejected with a dqcore.ConfigError before any SQL is
// ever run — "fail the whole suite at load time", not mid-run.
func BuildBindings(ctx context.Context, f *File, engines map[string]dqcore.Engine, registry *validators.Registry) ([]dqcore.Binding, error) {
	var bindings []dqcore.Binding

	for _, suite := range f.Suites {
		engine, ok := engines[suite.Engine]
		if !ok {
			return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("suite table %q references unknown engine %q", suite.Table, suite.Engine)}
		}

		cols, err := engine.ListColumns(ctx, suite.Table)
		if err != nil {
			return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("listing columns for %q", suite.Table), Err: err}
		}
		colSet := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			colSet[c] = struct{}{}
		}

		for _, exp := range suite.Expectations {
			if col, ok := exp.Params["column"].(string); ok && col != "" {
				if _, known := colSet[col]; !known {
					return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("expectation %q references unknown column %q on table %q", exp.Type, col, suite.Table)}
				}
			}
			if other, ok := exp.Params["other_column"].(string); ok && other != "" {
				if _, known := colSet[other]; !known {
					return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("expectation %q references unknown column %q on table %q", exp.Type, other, suite.Table)}
				}
			}
			if raw, ok := exp.Params["key_columns"].([]any); ok {
				for _, k := range raw {
					key, ok := k.(string)
					if !ok || key == "" {
						return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("expectation %q has a non-string key_columns entry on table %q", exp.Type, suite.Table)}
					}
					if _, known := colSet[key]; !known {
						return nil, &dqcore.ConfigError{Reason: fmt.Sprintf("expectation %q references unknown column %q on table %q", exp.Type, key, suite.Table)}
					}
				}
			}

			validator, err := registry.Build(exp.Type, exp.Params)
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, dqcore.Binding{
				EngineName: suite.Engine,
				Table:      suite.Table,
				Validator:  validator,
			})
		}
	}
	return bindings, nil
}
