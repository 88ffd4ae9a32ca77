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
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logger *slog.Logger

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "dqctl",
		Short: "Run data-quality expectation suites against one or more SQL engines",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelDebug
			handlerOut := io.Writer(os.Stdout)
			if !verbose {
				handlerOut = io.Discard
				level = slog.LevelError
			}
			logger = slog.New(slog.NewTextHandler(handlerOut, &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckSuiteCmd())
	root.AddCommand(newPingCmd())
	return root
}
