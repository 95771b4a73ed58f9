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
	"github.com/czcorpus/sqlizer/sqlparse"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/rs/zerolog/log"
)

const (
	dfltMaxCandidates = 8
	dfltRowLimit      = 1000
)

type Generator struct {
	maxCandidates int
	rowLimit      int
}

// NewGenerator creates a Generator. Non-positive arguments fall back to
// package defaults.
func NewGenerator(maxCandidates, rowLimit int) *Generator {
	if maxCandidates <= 0 {
		maxCandidates = dfltMaxCandidates
	}
	if rowLimit <= 0 {
		rowLimit = dfltRowLimit
	}
	return &Generator{
		maxCandidates: maxCandidates,
		rowLimit:      rowLimit,
	}
}

type rewrite struct {
	query    string
	strategy Strategy
}

// Generate returns at most maxCandidates rewrite variants of query,
// without duplicates (compared as whitespace-normalized text). Strategies
// are applied in a fixed priority order and the budget cuts off the
// lowest-priority ones first. Input that cannot be parsed as a single
// SELECT yields an empty slice - the caller then simply ranks the
// original query alone.
func (gen *Generator) Generate(query string) []Candidate {
	sel, err := sqlparse.ParseSelect(query)
	if err != nil {
		log.Debug().Err(err).Msg("skipping candidate generation for unparseable query")
		return []Candidate{}
	}

	rewrites := make([]rewrite, 0, gen.maxCandidates)
	rewrites = append(rewrites, gen.applyJoinHints(query, sel)...)
	if rw, ok := gen.applyImplicitJoin(sel); ok {
		rewrites = append(rewrites, rw)
	}
	if rw, ok := gen.applyWhereReorder(query); ok {
		rewrites = append(rewrites, rw)
	}
	if rw, ok := gen.applyLimitInject(query, sel); ok {
		rewrites = append(rewrites, rw)
	}

	seen := map[string]bool{sqlparse.Normalize(query): true}
	ans := make([]Candidate, 0, gen.maxCandidates)
	for _, rw := range rewrites {
		if len(ans) >= gen.maxCandidates {
			break
		}
		norm := sqlparse.Normalize(rw.query)
		if seen[norm] {
			continue
		}
		if err := sqlparse.Validate(rw.query); err != nil {
			log.Warn().
				Err(err).
				Str("strategy", string(rw.strategy)).
				Msg("dropping candidate which failed the syntax check")
			continue
		}
		seen[norm] = true
		ans = append(
			ans,
			Candidate{
				ID:       len(ans) + 1,
				Query:    rw.query,
				Strategy: rw.strategy,
			},
		)
	}
	return ans
}

// countJoins counts actual join operations (a Join node with a single
// child is how the parser represents a plain FROM t).
func countJoins(sel *ast.SelectStmt) int {
	if sel.From == nil || sel.From.TableRefs == nil {
		return 0
	}
	var walk func(node ast.ResultSetNode) int
	walk = func(node ast.ResultSetNode) int {
		join, ok := node.(*ast.Join)
		if !ok || join.Right == nil {
			return 0
		}
		return 1 + walk(join.Left) + walk(join.Right)
	}
	return walk(sel.From.TableRefs)
}
