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

// HeuristicWeights configures the last-resort cost function. The zero
// value is not usable directly - obtain defaults via DefaultHeuristicWeights
// (done by cnf.ValidateAndDefaults for values missing in the config file).
type HeuristicWeights struct {
	Table       float64 `json:"table"`
	Join        float64 `json:"join"`
	Condition   float64 `json:"condition"`
	Subquery    float64 `json:"subquery"`
	Aggregation float64 `json:"aggregation"`
	GroupBy     float64 `json:"groupBy"`
	OrderBy     float64 `json:"orderBy"`
	Length      float64 `json:"length"`
}

func DefaultHeuristicWeights() HeuristicWeights {
	return HeuristicWeights{
		Table:       10.0,
		Join:        25.0,
		Condition:   2.0,
		Subquery:    40.0,
		Aggregation: 8.0,
		GroupBy:     15.0,
		OrderBy:     10.0,
		Length:      0.01,
	}
}

func (w HeuristicWeights) IsZero() bool {
	return w == HeuristicWeights{}
}

// HeuristicCost is the source of last resort for cost estimation: a pure
// function of the feature vector which always yields a value and never
// fails. The result has no unit - it is only meaningful for comparing
// variants of the same query against each other.
func HeuristicCost(v Vector, w HeuristicWeights) float64 {
	cost := float64(v.NumTables)*w.Table +
		float64(v.NumJoins)*w.Join +
		float64(v.NumConditions)*w.Condition +
		float64(v.NumSubqueries)*w.Subquery +
		float64(v.NumAggregations)*w.Aggregation +
		float64(v.HasGroupBy)*w.GroupBy +
		float64(v.HasOrderBy)*w.OrderBy +
		float64(v.QueryLength)*w.Length
	if cost < 1 {
		cost = 1
	}
	return cost
}
