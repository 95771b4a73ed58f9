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

// Package estimate combines up to four cost sources for a query into a
// single estimate: a measured runtime, the database planner's cost, a
// learned model prediction and a heuristic score. The sources use
// different units and are never mixed numerically; trust between them
// is purely ordinal.
package estimate

import (
	"context"
	"errors"

	"github.com/czcorpus/sqlizer/backend"
	"github.com/czcorpus/sqlizer/features"
	"github.com/czcorpus/sqlizer/model"
	"github.com/czcorpus/sqlizer/sqlparse"
	"github.com/rs/zerolog/log"
)

var ErrNoEstimate = errors.New("no cost source produced an estimate")

// Source identifies which cost source supplied the best value.
type Source string

const (
	SourceNone      Source = ""
	SourceMeasured  Source = "measured"
	SourcePlanner   Source = "planner"
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// TrustRank orders sources by how much we believe them. A higher rank
// always wins regardless of the numeric values involved.
func (s Source) TrustRank() int {
	switch s {
	case SourceMeasured:
		return 4
	case SourcePlanner:
		return 3
	case SourceModel:
		return 2
	case SourceHeuristic:
		return 1
	}
	return 0
}

// Estimate carries all the readings obtained for a query. Best holds
// the value of the most trusted present source; its unit depends on
// Source (milliseconds for measured and model, planner units for
// planner, abstract score for heuristic).
type Estimate struct {
	Measured  backend.Reading `json:"measured"`
	Planner   backend.Reading `json:"planner"`
	Model     backend.Reading `json:"model"`
	Heuristic backend.Reading `json:"heuristic"`
	Best      float64         `json:"best"`
	Source    Source          `json:"source"`
	RawPlan   []byte          `json:"-"`
}

// Estimator resolves query cost estimates. Both the backend runner and
// the model state are optional; a missing tier just narrows the set of
// sources.
type Estimator struct {
	runner             backend.Runner
	state              *model.State
	weights            features.HeuristicWeights
	allowNonSelectExec bool
}

func NewEstimator(
	runner backend.Runner,
	state *model.State,
	weights features.HeuristicWeights,
	allowNonSelectExec bool,
) *Estimator {
	if weights.IsZero() {
		weights = features.DefaultHeuristicWeights()
	}
	return &Estimator{
		runner:             runner,
		state:              state,
		weights:            weights,
		allowNonSelectExec: allowNonSelectExec,
	}
}

// Estimate obtains all reachable cost readings for a query. A failing
// source is recorded as absent, never as an error; the call fails only
// when no source at all produced a value. Statements other than SELECT
// are planned but not executed unless non-select execution is
// explicitly enabled.
func (e *Estimator) Estimate(ctx context.Context, query string) (Estimate, error) {
	var ans Estimate

	if e.runner != nil {
		kind := sqlparse.Kind(query)
		var result backend.RunResult
		var err error
		if kind == sqlparse.KindSelect || e.allowNonSelectExec {
			result, err = e.runner.Run(ctx, query)

		} else {
			result, err = e.runner.PlanOnly(ctx, query)
		}
		if err != nil {
			log.Debug().Err(err).Str("query", query).Msg("backend measurement not available")

		} else {
			ans.Measured = result.MeasuredTimeMs
			ans.Planner = result.PlannerCost
			ans.RawPlan = result.RawPlan
		}
	}

	if e.state != nil {
		pred, err := model.Predict(e.state, query)
		if err != nil {
			log.Debug().Err(err).Str("query", query).Msg("model prediction not available")

		} else {
			ans.Model = backend.ValidReading(pred)
		}
	}

	vec := features.Extract(query)
	ans.Heuristic = backend.ValidReading(features.HeuristicCost(vec, e.weights))

	switch {
	case ans.Measured.Valid:
		ans.Best = ans.Measured.Value
		ans.Source = SourceMeasured
	case ans.Planner.Valid:
		ans.Best = ans.Planner.Value
		ans.Source = SourcePlanner
	case ans.Model.Valid:
		ans.Best = ans.Model.Value
		ans.Source = SourceModel
	case ans.Heuristic.Valid:
		ans.Best = ans.Heuristic.Value
		ans.Source = SourceHeuristic
	default:
		return ans, ErrNoEstimate
	}
	return ans, nil
}
