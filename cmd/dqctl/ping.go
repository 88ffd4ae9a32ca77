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

	"github.com/DataBridgeTech/dq-core/engines"
	"github.com/DataBridgeTech/dq-core/suiteconfig"
	"github.com/spf13/cobra"
)

// newPingCmd dials every data source in a suite file and confirms each one
// actually answers a query, without running any expectation.
func newPingCmd() *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Dial every data source in a suite file and report connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ping(cmd.Context(), suitePath)
		},
	}
	cmd.Flags().StringVarP(&suitePath, "suite", "s", "", "path to a suite YAML file")
	cmd.MarkFlagRequired("suite")
	return cmd
}

func ping(ctx context.Context, suitePath string) error {
	doc, err := suiteconfig.Load(suitePath)
	if err != nil {
		return err
	}

	failed := 0
	for _, dsCfg := range doc.DataSources {
		eng, err := engines.New(dsCfg.ToDataSource(), logger)
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", dsCfg.Name, err)
			continue
		}
		if _, err := eng.RunSQL(ctx, "SELECT 1"); err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", dsCfg.Name, err)
		} else {
			fmt.Printf("OK   %s (%s)\n", dsCfg.Name, eng.Dialect())
		}
		eng.Close()
	}

	if failed > 0 {
		return fmt.Errorf("dqctl: %d data source(s) unreachable", failed)
	}
	return nil
}
