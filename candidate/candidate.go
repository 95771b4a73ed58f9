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

// Package candidate produces bounded sets of syntactically verified
// rewrite variants for a SQL query. Each transformation is expressed as a
// precondition check over the parsed statement plus a rewrite - when the
// precondition does not hold exactly, the strategy emits nothing rather
// than a best-effort string edit. Candidates that fail re-parsing are
// dropped, so malformed SQL can never leave this package.
package candidate

// Strategy names the transformation that produced a candidate.
type Strategy string

const (
	// StrategyHintNestedLoop wraps the query with a nested-loop join hint.
	StrategyHintNestedLoop Strategy = "hint-nl"

	// StrategyHintHashJoin wraps the query with a hash-join hint.
	StrategyHintHashJoin Strategy = "hint-hash"

	// StrategyImplicitJoin converts a single two-table equality JOIN into
	// the comma-separated form with the join predicate moved to WHERE.
	StrategyImplicitJoin Strategy = "implicit-join"

	// StrategyWhereReorder reorders AND-joined WHERE predicates by a
	// selectivity guess.
	StrategyWhereReorder Strategy = "where-reorder"

	// StrategyLimitInject appends a LIMIT to an ORDER BY query lacking one.
	StrategyLimitInject Strategy = "limit-inject"
)

// Candidate is one generated rewrite. IDs number the candidates of a
// single Generate call starting from 1 and carry no meaning across calls.
type Candidate struct {
	ID       int      `json:"id"`
	Query    string   `json:"query"`
	Strategy Strategy `json:"strategy"`
}
