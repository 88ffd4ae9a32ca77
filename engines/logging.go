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
	"log/slog"
	"time"
)

// sqlStartLog and sqlEndLog mirror the debug/elapsed logging pair
// task_pool.go uses around every enqueued task, applied here to every SQL
// round trip instead of every concurrent job.
func sqlStartLog(logger *slog.Logger, query string) time.Time {
	if logger != nil {
		logger.Debug("executing sql", "sql", query)
	}
	return time.Now()
}

func sqlEndLog(logger *slog.Logger, start time.Time, query string, err error) {
	if logger == nil {
		return
	}
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logger.Error("sql failed", "sql", query, "elapsed_ms", elapsed, "error", err.Error())
		return
	}
	logger.Debug("sql completed", "sql", query, "elapsed_ms", elapsed)
}
