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

package candidate

import (
	"strings"
	"testing"

	"github.com/czcorpus/sqlizer/sqlparse"
	"github.com/stretchr/testify/assert"
)

func findByStrategy(cands []Candidate, strategy Strategy) (Candidate, bool) {
	for _, c := range cands {
		if c.Strategy == strategy {
			return c, true
		}
	}
	return Candidate{}, false
}

func TestGenerateJoinQuery(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT e.name, d.name FROM employees e JOIN departments d ON e.dept_id = d.id")
	assert.NotEmpty(t, cands)
	for i, c := range cands {
		assert.Equal(t, i+1, c.ID)
		assert.NoError(t, sqlparse.Validate(c.Query))
	}
	_, ok := findByStrategy(cands, StrategyHintNestedLoop)
	assert.True(t, ok)
	_, ok = findByStrategy(cands, StrategyHintHashJoin)
	assert.True(t, ok)
	impl, ok := findByStrategy(cands, StrategyImplicitJoin)
	assert.True(t, ok)
	if ok {
		assert.NotContains(t, strings.ToUpper(impl.Query), " JOIN ")
		assert.Contains(t, impl.Query, ",")
		assert.Contains(t, strings.ToUpper(impl.Query), "WHERE")
	}
}

func TestGenerateImplicitJoinKeepsOriginalWhere(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT e.name FROM employees e JOIN departments d ON e.dept_id = d.id WHERE e.salary > 50000")
	impl, ok := findByStrategy(cands, StrategyImplicitJoin)
	assert.True(t, ok)
	if ok {
		assert.Contains(t, strings.ToUpper(impl.Query), "AND")
		assert.Contains(t, impl.Query, "50000")
	}
}

func TestGeneratePlainFilterHasNoCandidates(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate("SELECT * FROM employees WHERE salary > 50000")
	assert.Empty(t, cands)
}

func TestGenerateWhereReorder(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM employees WHERE name LIKE '%ova%' AND dept_id = 3")
	rw, ok := findByStrategy(cands, StrategyWhereReorder)
	assert.True(t, ok)
	if ok {
		assert.NoError(t, sqlparse.Validate(rw.Query))
		eqPos := strings.Index(rw.Query, "dept_id")
		likePos := strings.Index(strings.ToUpper(rw.Query), "LIKE")
		assert.True(t, eqPos >= 0 && likePos >= 0 && eqPos < likePos)
	}
}

func TestGenerateWhereReorderRefusesMixedAndOr(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM employees WHERE name LIKE '%ova%' AND (dept_id = 3 OR dept_id = 4)")
	_, ok := findByStrategy(cands, StrategyWhereReorder)
	assert.False(t, ok)
}

func TestGenerateWhereReorderAlreadyOrdered(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM employees WHERE dept_id = 3 AND name LIKE '%ova%'")
	_, ok := findByStrategy(cands, StrategyWhereReorder)
	assert.False(t, ok)
}

func TestGenerateLimitInject(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate("SELECT * FROM employees ORDER BY salary")
	rw, ok := findByStrategy(cands, StrategyLimitInject)
	assert.True(t, ok)
	if ok {
		assert.True(t, strings.HasSuffix(rw.Query, "LIMIT 1000"))
	}
}

func TestGenerateLimitInjectCustomRowLimit(t *testing.T) {
	gen := NewGenerator(0, 50)
	cands := gen.Generate("SELECT * FROM employees ORDER BY salary")
	rw, ok := findByStrategy(cands, StrategyLimitInject)
	assert.True(t, ok)
	if ok {
		assert.True(t, strings.HasSuffix(rw.Query, "LIMIT 50"))
	}
}

func TestGenerateNoLimitInjectWithoutOrderBy(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate("SELECT name FROM employees e JOIN departments d ON e.dept_id = d.id")
	_, ok := findByStrategy(cands, StrategyLimitInject)
	assert.False(t, ok)
}

func TestGenerateRefusesOuterJoinRewrite(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM employees e LEFT JOIN departments d ON e.dept_id = d.id")
	_, ok := findByStrategy(cands, StrategyImplicitJoin)
	assert.False(t, ok)
	// hints are still fine for an outer join
	_, ok = findByStrategy(cands, StrategyHintHashJoin)
	assert.True(t, ok)
}

func TestGenerateRefusesCompoundJoinPredicate(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM a JOIN b ON a.x = b.y AND a.z = b.w")
	_, ok := findByStrategy(cands, StrategyImplicitJoin)
	assert.False(t, ok)
}

func TestGenerateRefusesThreeTableRewrite(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate(
		"SELECT * FROM a JOIN b ON a.id = b.aid JOIN c ON b.id = c.bid")
	_, ok := findByStrategy(cands, StrategyImplicitJoin)
	assert.False(t, ok)
}

func TestGenerateRespectsCap(t *testing.T) {
	gen := NewGenerator(2, 0)
	cands := gen.Generate(
		"SELECT e.name FROM employees e JOIN departments d ON e.dept_id = d.id WHERE e.salary > 1 AND e.name LIKE '%a%' ORDER BY e.name")
	assert.LessOrEqual(t, len(cands), 2)
}

func TestGenerateUnparseableQuery(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate("SELEKT foo FRM bar")
	assert.Empty(t, cands)
}

func TestGenerateNonSelect(t *testing.T) {
	gen := NewGenerator(0, 0)
	cands := gen.Generate("DELETE FROM employees WHERE id = 3")
	assert.Empty(t, cands)
}
