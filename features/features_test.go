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

package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSimpleSelect(t *testing.T) {
	vec := Extract("SELECT * FROM employees WHERE salary > 50000")
	assert.Equal(t, 1, vec.NumTables)
	assert.Equal(t, 0, vec.NumJoins)
	assert.Equal(t, 1, vec.NumConditions)
	assert.Equal(t, 0, vec.NumSubqueries)
	assert.Equal(t, 0, vec.HasOrderBy)
	assert.Equal(t, 0, vec.HasLimit)
	assert.Equal(t, len("SELECT * FROM employees WHERE salary > 50000"), vec.QueryLength)
}

func TestExtractJoinQuery(t *testing.T) {
	q := "SELECT e.name, d.dept_name FROM employees e " +
		"JOIN departments d ON e.dept_id = d.id " +
		"WHERE e.salary > 50000 AND d.active = 1 " +
		"ORDER BY e.name"
	vec := Extract(q)
	assert.Equal(t, 2, vec.NumTables)
	assert.Equal(t, 1, vec.NumJoins)
	assert.Equal(t, 2, vec.NumConditions)
	assert.Equal(t, 1, vec.HasOrderBy)
	assert.Equal(t, 0, vec.HasGroupBy)
}

func TestExtractSubqueriesAndAggregations(t *testing.T) {
	q := "SELECT dept_id, COUNT(*), AVG(salary) FROM employees " +
		"WHERE dept_id IN (SELECT id FROM departments) GROUP BY dept_id"
	vec := Extract(q)
	assert.Equal(t, 1, vec.NumSubqueries)
	assert.Equal(t, 2, vec.NumAggregations)
	assert.Equal(t, 1, vec.HasGroupBy)
	assert.Equal(t, 1, vec.NestingDepth)
}

func TestExtractComplexityWeights(t *testing.T) {
	q := "SELECT a FROM t1 JOIN t2 ON t1.x = t2.x WHERE t1.y = 1"
	vec := Extract(q)
	// 1 join * 2.0 + 1 condition * 0.5
	assert.InDelta(t, 2.5, vec.Complexity, 0.0001)
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	for _, q := range []string{"", "   ", "not sql at all", "((((", "SELECT", ");DROP"} {
		vec := Extract(q)
		assert.Equal(t, len(q), vec.QueryLength)
		assert.Equal(t, NumFeatures, len(vec.AsSlice()))
	}
}

func TestExtractDeterministic(t *testing.T) {
	q := "SELECT * FROM a JOIN b ON a.x = b.x WHERE a.y > 3 ORDER BY a.z"
	v1 := Extract(q)
	v2 := Extract(q)
	assert.Equal(t, v1, v2)
	assert.Equal(t, v1.AsSlice(), v2.AsSlice())
}

func TestVectorSchemaStability(t *testing.T) {
	vec := Extract("SELECT 1")
	assert.Equal(t, len(FieldNames()), len(vec.AsSlice()))
	assert.Equal(t, len(FieldNames()), len(vec.AsMap()))
}

func TestProjectSubset(t *testing.T) {
	vec := Extract("SELECT * FROM a JOIN b ON a.x = b.x")
	sub, err := vec.Project([]string{"numJoins", "numTables"})
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, sub)
}

func TestProjectUnknownNameYieldsZero(t *testing.T) {
	vec := Extract("SELECT * FROM a")
	sub, err := vec.Project([]string{"numTables", "someFutureFeature"})
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, sub)
}

func TestProjectEmptySubsetFails(t *testing.T) {
	vec := Extract("SELECT * FROM a")
	_, err := vec.Project(nil)
	assert.Error(t, err)
}

func TestHeuristicCostAlwaysPositive(t *testing.T) {
	w := DefaultHeuristicWeights()
	assert.GreaterOrEqual(t, HeuristicCost(Extract(""), w), 1.0)
	assert.GreaterOrEqual(t, HeuristicCost(Extract("garbage input"), w), 1.0)
}

func TestHeuristicCostOrdersByComplexity(t *testing.T) {
	w := DefaultHeuristicWeights()
	simple := HeuristicCost(Extract("SELECT * FROM a"), w)
	complex := HeuristicCost(
		Extract("SELECT COUNT(*) FROM a JOIN b ON a.x = b.x JOIN c ON b.y = c.y GROUP BY a.z"), w)
	assert.Greater(t, complex, simple)
}
