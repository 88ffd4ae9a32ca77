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

package validators

import (
	"context"

	"github.com/DataBridgeTech/dq-core"
)

// fakeEngine answers RunSQL with pre-baked scalar rows in call order,
// ignoring the SQL text entirely.
type fakeEngine struct {
	responses []dqcore.Rows
	calls     int
	runErr    error
}

func (f *fakeEngine) RunSQL(ctx context.Context, sql string) (dqcore.Rows, error) {
	if f.runErr != nil {
		return dqcore.Rows{}, f.runErr
	}
	r := f.responses[f.calls]
	f.calls++
	return r, nil
}

func (f *fakeEngine) ListColumns(ctx context.Context, table string) ([]string, error) {
	return nil, nil
}

func (f *fakeEngine) Dialect() string { return "test" }
func (f *fakeEngine) Close() error    { return nil }

func scalarRows(column string, value any) dqcore.Rows {
	return dqcore.Rows{Columns: []string{column}, Values: [][]any{{value}}}
}
