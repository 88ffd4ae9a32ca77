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
	"github.com/DataBridgeTech/dq-core/store"
	"github.com/DataBridgeTech/dq-core/suiteconfig"
	"github.com/DataBridgeTech/dq-core/validators"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var suitePath string
	var storePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a suite file and print a PASS/FAIL summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), suitePath, storePath)
		},
	}
	cmd.Flags().StringVarP(&suitePath, "suite", "s", "", "path to a suite YAML file")
	cmd.Flags().StringVar(&storePath, "store", ":memory:", "sqlite path for result persistence")
	cmd.MarkFlagRequired("suite")
	return cmd
}

func runSuite(ctx context.Context, suitePath, storePath string) error {
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

	resultStore, err := store.NewSQLiteStore(storePath)
	if err != nil {
		return err
	}
	defer resultStore.Close()

	runner := dqcore.NewRunner(liveEngines)
	runner.Logger = logger

	run := &dqcore.RunMetadata{RunID: uuid.NewString(), SuiteName: suitePath, SLAName: doc.SLAName}
	results := runner.Run(ctx, run, bindings)

	if err := resultStore.PersistRun(ctx, *run, results); err != nil {
		return fmt.Errorf("dqctl: persist run: %w", err)
	}
	if doc.SLAName != "" {
		if err := resultStore.PersistSLA(ctx, doc.SLAName, suiteconfig.ToConfigMap(doc)); err != nil {
			return fmt.Errorf("dqctl: persist sla: %w", err)
		}
	}

	passed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case dqcore.StatusPass:
			passed++
		default:
			failed++
			fmt.Printf("FAIL [%s] %s on %s.%s: %s\n", r.Severity, r.ValidatorType, r.EngineName, r.Table, r.ErrorMessage)
		}
	}
	fmt.Printf("%d passed, %d failed, run=%s status=%s\n", passed, failed, run.RunID, run.Status)
	if failed > 0 {
		return fmt.Errorf("dqctl: %d expectation(s) failed", failed)
	}
	return nil
}
