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

package main

import (
	"context"
	"fmt"

	"github.com/DataBridgeTech/dq-core"
	"github.com/DataBridgeTech/dq-core/engines"
	"github.com/DataBridgeTech/dq-core/suiteconfig"
	"github.com/DataBridgeTech/dq-core/validators"
	"github.com/spf13/cobra"
)

// newCheckSuiteCmd validates a suite file without running any SQL beyond
// what ListColumns needs: every expectation_type must resolve, every
// referenced column must exist. Useful in CI before a suite is trusted to
// run against production.
func newCheckSuiteCmd() *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:   "check-suite",
		Short: "Validate a suite file's structure and column references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkSuite(cmd.Context(), suitePath)
		},
	}
	cmd.Flags().StringVarP(&suitePath, "suite", "s", "", "path to a suite YAML file")
	cmd.MarkFlagRequired("suite")
	return cmd
}

func checkSuite(ctx context.Context, suitePath string) error {
	doc, err := suiteconfig.Load(suitePath)
	if err != nil {
		return err
	}

	liveEngines := make(map[string]dqcore.Engine, len(doc.DataSources))
	for _, dsCfg := range doc.DataSources {
		eng, err := engines.New(dsCfg.ToDataSource(), logger)
		if err != nil {
			return fmt.Errorf("dqctl: dial %q: %w", dsCfg.Name, err)
		}
		defer eng.Close()
		liveEngines[dsCfg.Name] = eng
	}

	registry := validators.NewRegistry()
	bindings, err := suiteconfig.BuildBindings(ctx, doc, liveEngines, registry)
	if err != nil {
		return err
	}

	fmt.Printf("suite %q is valid: %d binding(s) across %d engine(s)\n", suitePath, len(bindings), len(liveEngines))
	return nil
}
