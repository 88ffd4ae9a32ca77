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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DataBridgeTech/dq-core"
)

// FileStore writes run, result, and stat artifacts as JSON/JSONL files
// under a directory, one subdirectory per kind.
type FileStore struct {
	base string
}

// NewFileStore ensures base/{runs,results,statistics} exist and returns a
// FileStore rooted there.
func NewFileStore(base string) (*FileStore, error) {
	for _, sub := range []string{"runs", "results", "statistics", "slas"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %q: %w", sub, err)
		}
	}
	return &FileStore{base: base}, nil
}

func (s *FileStore) PersistRun(ctx context.Context, run dqcore.RunMetadata, results []dqcore.ValidationResult) error {
	runBytes, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("store: marshal run: %w", err)
	}
	runPath := filepath.Join(s.base, "runs", run.RunID+".json")
	if err := os.WriteFile(runPath, runBytes, 0o644); err != nil {
		return fmt.Errorf("store: write run file: %w", err)
	}

	resPath := filepath.Join(s.base, "results", run.RunID+".jsonl")
	fh, err := os.Create(resPath)
	if err != nil {
		return fmt.Errorf("store: create results file: %w", err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("store: write result line: %w", err)
		}
	}
	return nil
}

// PersistSLA writes slas/<slaName>.json, overwriting any prior config for
// that name — the file-artifact store keeps only the latest SLA definition,
// not a history of edits.
func (s *FileStore) PersistSLA(ctx context.Context, slaName string, config map[string]any) error {
	blob, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("store: marshal sla config: %w", err)
	}
	slaPath := filepath.Join(s.base, "slas", slaName+".json")
	if err := os.WriteFile(slaPath, blob, 0o644); err != nil {
		return fmt.Errorf("store: write sla file: %w", err)
	}
	return nil
}

func (s *FileStore) PersistStats(ctx context.Context, stats []dqcore.MetricStat) error {
	if len(stats) == 0 {
		return nil
	}
	statsPath := filepath.Join(s.base, "statistics", stats[0].RunID+".jsonl")
	fh, err := os.Create(statsPath)
	if err != nil {
		return fmt.Errorf("store: create statistics file: %w", err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	for _, st := range stats {
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("store: write statistic line: %w", err)
		}
	}
	return nil
}
