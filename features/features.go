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

// Package features turns raw SQL text into a fixed-schema numeric vector.
// The extraction is purely textual - it never parses the query into an AST
// and it never fails, so even a completely malformed input yields a usable
// (mostly zero) vector. This property is required both by the heuristic
// cost fallback and by the ML model, which must be able to featurize
// anything the query log may contain.
package features

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SchemaVersion identifies the feature schema. Any change to the set,
// order or semantics of the fields below requires a bump here, plus
// retraining of models bound to the old version.
const SchemaVersion = "v1"

// Complexity score weights. These are design constants applied identically
// at training and inference time:
// joins dominate (2.0), subqueries are the most expensive construct (3.0),
// plain conditions add little (0.5), aggregations sit in between (1.5).
const (
	complexityJoinWeight      = 2.0
	complexitySubqueryWeight  = 3.0
	complexityConditionWeight = 0.5
	complexityAggWeight       = 1.5
)

var (
	joinRegexp       = regexp.MustCompile(`(?i)\b(?:INNER\s+|LEFT\s+(?:OUTER\s+)?|RIGHT\s+(?:OUTER\s+)?|FULL\s+(?:OUTER\s+)?|CROSS\s+)?JOIN\b`)
	selectRegexp     = regexp.MustCompile(`(?i)\bSELECT\b`)
	aggRegexp        = regexp.MustCompile(`(?i)\b(?:COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT)\s*\(`)
	whereRegexp      = regexp.MustCompile(`(?is)\bWHERE\s+(.+?)(?:\s+GROUP\s+BY|\s+ORDER\s+BY|\s+LIMIT|\s*;|\s*$)`)
	andOrRegexp      = regexp.MustCompile(`(?i)\b(?:AND|OR)\b`)
	fromClauseRegexp = regexp.MustCompile(`(?is)\bFROM\s+(.+?)(?:\s+WHERE\b|\s+GROUP\s+BY\b|\s+ORDER\s+BY\b|\s+HAVING\b|\s+LIMIT\b|\s*;|\s*$)`)
	tblNameRegexp    = regexp.MustCompile("`?(\\w+)`?")
	joinTblRegexp    = regexp.MustCompile("(?i)\\bJOIN\\s+`?(\\w+)`?")
	orderByRegexp    = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	groupByRegexp    = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	distinctRegexp   = regexp.MustCompile(`(?i)\bDISTINCT\b`)
	limitRegexp      = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// FieldNames returns the schema field names in their fixed vector order.
// The order here and the order in Vector.AsSlice must never diverge.
func FieldNames() []string {
	return []string{
		"numTables",
		"numJoins",
		"numConditions",
		"numSubqueries",
		"numAggregations",
		"hasOrderBy",
		"hasGroupBy",
		"hasDistinct",
		"hasLimit",
		"queryLength",
		"nestingDepth",
		"complexity",
	}
}

// NumFeatures is the fixed length of any extracted vector under SchemaVersion.
var NumFeatures = len(FieldNames())

// Vector is a fixed-schema numeric summary of a query's structure.
// Boolean flags are stored as 0/1 so the whole vector is homogeneous.
type Vector struct {
	NumTables       int     `json:"numTables"`
	NumJoins        int     `json:"numJoins"`
	NumConditions   int     `json:"numConditions"`
	NumSubqueries   int     `json:"numSubqueries"`
	NumAggregations int     `json:"numAggregations"`
	HasOrderBy      int     `json:"hasOrderBy"`
	HasGroupBy      int     `json:"hasGroupBy"`
	HasDistinct     int     `json:"hasDistinct"`
	HasLimit        int     `json:"hasLimit"`
	QueryLength     int     `json:"queryLength"`
	NestingDepth    int     `json:"nestingDepth"`
	Complexity      float64 `json:"complexity"`
}

// AsSlice returns the vector as []float64 in FieldNames order.
func (v Vector) AsSlice() []float64 {
	return []float64{
		float64(v.NumTables),
		float64(v.NumJoins),
		float64(v.NumConditions),
		float64(v.NumSubqueries),
		float64(v.NumAggregations),
		float64(v.HasOrderBy),
		float64(v.HasGroupBy),
		float64(v.HasDistinct),
		float64(v.HasLimit),
		float64(v.QueryLength),
		float64(v.NestingDepth),
		v.Complexity,
	}
}

// AsMap returns a name -> value view of the vector.
func (v Vector) AsMap() map[string]float64 {
	names := FieldNames()
	vals := v.AsSlice()
	ans := make(map[string]float64, len(names))
	for i, n := range names {
		ans[n] = vals[i]
	}
	return ans
}

// Project re-projects the vector onto the provided ordered subset of
// feature names. Names unknown to the current schema yield zero - this is
// what keeps models trained against an older (smaller) schema working
// after the live schema has grown. An empty subset is refused as it can
// only come from a corrupt model state.
func (v Vector) Project(names []string) ([]float64, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("cannot project feature vector: empty feature subset")
	}
	m := v.AsMap()
	ans := make([]float64, len(names))
	for i, n := range names {
		ans[i] = m[n]
	}
	return ans, nil
}

func (v Vector) AsJSONString() string {
	ans, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to serialize features.Vector: %s", err))
	}
	return string(ans)
}

func countTables(query string) int {
	tables := make(map[string]bool)
	if srch := fromClauseRegexp.FindStringSubmatch(query); srch != nil {
		// the first identifier of each comma-separated chunk is a table name
		for _, chunk := range strings.Split(srch[1], ",") {
			if m := tblNameRegexp.FindStringSubmatch(chunk); m != nil {
				tables[strings.ToLower(m[1])] = true
			}
		}
	}
	for _, srch := range joinTblRegexp.FindAllStringSubmatch(query, -1) {
		tables[strings.ToLower(srch[1])] = true
	}
	return len(tables)
}

func countConditions(query string) int {
	srch := whereRegexp.FindStringSubmatch(query)
	if srch == nil {
		return 0
	}
	return len(andOrRegexp.FindAllString(srch[1], -1)) + 1
}

func countSubqueries(query string) int {
	n := len(selectRegexp.FindAllString(query, -1)) - 1
	if n < 0 {
		return 0
	}
	return n
}

func nestingDepth(query string) int {
	var depth, maxDepth int
	for _, c := range query {
		switch c {
		case '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return maxDepth
}

func boolFlag(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Extract produces the feature vector for a query text. It is a pure,
// deterministic function of the text: no I/O, no randomness, no failure
// mode. Structural elements missing from the query simply stay zero.
func Extract(query string) Vector {
	vec := Vector{
		NumTables:       countTables(query),
		NumJoins:        len(joinRegexp.FindAllString(query, -1)),
		NumConditions:   countConditions(query),
		NumSubqueries:   countSubqueries(query),
		NumAggregations: len(aggRegexp.FindAllString(query, -1)),
		HasOrderBy:      boolFlag(orderByRegexp.MatchString(query)),
		HasGroupBy:      boolFlag(groupByRegexp.MatchString(query)),
		HasDistinct:     boolFlag(distinctRegexp.MatchString(query)),
		HasLimit:        boolFlag(limitRegexp.MatchString(query)),
		QueryLength:     len(query),
		NestingDepth:    nestingDepth(query),
	}
	vec.Complexity = float64(vec.NumJoins)*complexityJoinWeight +
		float64(vec.NumSubqueries)*complexitySubqueryWeight +
		float64(vec.NumConditions)*complexityConditionWeight +
		float64(vec.NumAggregations)*complexityAggWeight
	return vec
}
