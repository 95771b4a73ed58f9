// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"encoding/json"
	"fmt"
)

// PlanNode mirrors the part of the PostgreSQL EXPLAIN (FORMAT JSON)
// node shape we actually read. The full document contains dozens more
// attributes; they survive in RunResult.RawPlan.
type PlanNode struct {
	NodeType        string     `json:"Node Type"`
	StartupCost     float64    `json:"Startup Cost"`
	TotalCost       float64    `json:"Total Cost"`
	PlanRows        int64      `json:"Plan Rows"`
	ActualTotalTime float64    `json:"Actual Total Time,omitempty"`
	ActualRows      int64      `json:"Actual Rows,omitempty"`
	RelationName    string     `json:"Relation Name,omitempty"`
	IndexName       string     `json:"Index Name,omitempty"`
	JoinType        string     `json:"Join Type,omitempty"`
	Plans           []PlanNode `json:"Plans,omitempty"`
}

type explainEntry struct {
	Plan          PlanNode `json:"Plan"`
	PlanningTime  float64  `json:"Planning Time,omitempty"`
	ExecutionTime float64  `json:"Execution Time,omitempty"`
}

// parseExplain decodes the JSON document produced by
// EXPLAIN (FORMAT JSON), which is a single-element array.
func parseExplain(raw []byte) (explainEntry, error) {
	var entries []explainEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return explainEntry{}, fmt.Errorf("failed to parse explain output: %w", err)
	}
	if len(entries) == 0 {
		return explainEntry{}, fmt.Errorf("failed to parse explain output: empty document")
	}
	return entries[0], nil
}
