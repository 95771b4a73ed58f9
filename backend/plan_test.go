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
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleAnalyzeOutput = `[
  {
    "Plan": {
      "Node Type": "Hash Join",
      "Join Type": "Inner",
      "Startup Cost": 1.09,
      "Total Cost": 28.18,
      "Plan Rows": 410,
      "Actual Total Time": 0.037,
      "Actual Rows": 6,
      "Plans": [
        {
          "Node Type": "Seq Scan",
          "Relation Name": "employees",
          "Startup Cost": 0.00,
          "Total Cost": 17.10,
          "Plan Rows": 710,
          "Actual Total Time": 0.008,
          "Actual Rows": 6
        },
        {
          "Node Type": "Hash",
          "Startup Cost": 1.04,
          "Total Cost": 1.04,
          "Plan Rows": 4,
          "Actual Total Time": 0.011,
          "Actual Rows": 4
        }
      ]
    },
    "Planning Time": 0.215,
    "Execution Time": 0.089
  }
]`

func TestParseExplainAnalyze(t *testing.T) {
	entry, err := parseExplain([]byte(sampleAnalyzeOutput))
	assert.NoError(t, err)
	assert.Equal(t, "Hash Join", entry.Plan.NodeType)
	assert.InDelta(t, 28.18, entry.Plan.TotalCost, 0.001)
	assert.InDelta(t, 0.089, entry.ExecutionTime, 0.0001)
	assert.Equal(t, 2, len(entry.Plan.Plans))
	assert.Equal(t, "employees", entry.Plan.Plans[0].RelationName)
}

func TestParseExplainPlanOnly(t *testing.T) {
	raw := `[{"Plan": {"Node Type": "Seq Scan", "Startup Cost": 0.0, "Total Cost": 17.1, "Plan Rows": 710}}]`
	entry, err := parseExplain([]byte(raw))
	assert.NoError(t, err)
	assert.InDelta(t, 17.1, entry.Plan.TotalCost, 0.001)
	assert.Equal(t, 0.0, entry.ExecutionTime)
}

func TestParseExplainEmpty(t *testing.T) {
	_, err := parseExplain([]byte(`[]`))
	assert.Error(t, err)
}

func TestParseExplainGarbage(t *testing.T) {
	_, err := parseExplain([]byte(`not json at all`))
	assert.Error(t, err)
}
