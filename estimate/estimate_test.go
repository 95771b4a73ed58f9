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

package estimate

import (
	"context"
	"fmt"
	"testing"

	"github.com/czcorpus/sqlizer/backend"
	"github.com/czcorpus/sqlizer/features"
	"github.com/stretchr/testify/assert"
)

type fakeRunner struct {
	runResult  backend.RunResult
	runErr     error
	planResult backend.RunResult
	planErr    error
	numRun     int
	numPlan    int
}

func (r *fakeRunner) Run(ctx context.Context, query string) (backend.RunResult, error) {
	r.numRun++
	return r.runResult, r.runErr
}

func (r *fakeRunner) PlanOnly(ctx context.Context, query string) (backend.RunResult, error) {
	r.numPlan++
	return r.planResult, r.planErr
}

func TestTrustRankOrdering(t *testing.T) {
	assert.Greater(t, SourceMeasured.TrustRank(), SourcePlanner.TrustRank())
	assert.Greater(t, SourcePlanner.TrustRank(), SourceModel.TrustRank())
	assert.Greater(t, SourceModel.TrustRank(), SourceHeuristic.TrustRank())
	assert.Greater(t, SourceHeuristic.TrustRank(), SourceNone.TrustRank())
}

func TestMeasuredAlwaysWins(t *testing.T) {
	runner := &fakeRunner{
		runResult: backend.RunResult{
			// measured is numerically larger than the planner cost
			// but trust is ordinal, not magnitude-based
			MeasuredTimeMs: backend.ValidReading(5000),
			PlannerCost:    backend.ValidReading(12.5),
		},
	}
	est := NewEstimator(runner, nil, features.DefaultHeuristicWeights(), false)
	ans, err := est.Estimate(context.Background(), "SELECT * FROM employees")
	assert.NoError(t, err)
	assert.Equal(t, SourceMeasured, ans.Source)
	assert.Equal(t, 5000.0, ans.Best)
	assert.True(t, ans.Planner.Valid)
	assert.True(t, ans.Heuristic.Valid)
}

func TestPlannerWinsWithoutMeasurement(t *testing.T) {
	runner := &fakeRunner{
		planResult: backend.RunResult{
			PlannerCost: backend.ValidReading(42.0),
		},
	}
	est := NewEstimator(runner, nil, features.DefaultHeuristicWeights(), false)
	ans, err := est.Estimate(context.Background(), "DELETE FROM employees WHERE id = 1")
	assert.NoError(t, err)
	assert.Equal(t, SourcePlanner, ans.Source)
	assert.Equal(t, 42.0, ans.Best)
	assert.Equal(t, 1, runner.numPlan)
	assert.Equal(t, 0, runner.numRun)
}

func TestNonSelectExecutionGate(t *testing.T) {
	runner := &fakeRunner{
		runResult: backend.RunResult{
			MeasuredTimeMs: backend.ValidReading(3.0),
			PlannerCost:    backend.ValidReading(1.0),
		},
	}
	est := NewEstimator(runner, nil, features.DefaultHeuristicWeights(), true)
	ans, err := est.Estimate(context.Background(), "DELETE FROM employees WHERE id = 1")
	assert.NoError(t, err)
	assert.Equal(t, SourceMeasured, ans.Source)
	assert.Equal(t, 1, runner.numRun)
	assert.Equal(t, 0, runner.numPlan)
}

func TestBackendFailureFallsBackToHeuristic(t *testing.T) {
	runner := &fakeRunner{
		runErr:  fmt.Errorf("connection refused"),
		planErr: fmt.Errorf("connection refused"),
	}
	est := NewEstimator(runner, nil, features.DefaultHeuristicWeights(), false)
	ans, err := est.Estimate(context.Background(), "SELECT * FROM employees")
	assert.NoError(t, err)
	assert.Equal(t, SourceHeuristic, ans.Source)
	assert.False(t, ans.Measured.Valid)
	assert.False(t, ans.Planner.Valid)
	assert.Greater(t, ans.Best, 0.0)
}

func TestNoBackendNoModel(t *testing.T) {
	est := NewEstimator(nil, nil, features.DefaultHeuristicWeights(), false)
	ans, err := est.Estimate(context.Background(), "SELECT * FROM employees WHERE x = 1")
	assert.NoError(t, err)
	assert.Equal(t, SourceHeuristic, ans.Source)
	assert.Greater(t, ans.Best, 0.0)
}

func TestHeuristicAlwaysRecorded(t *testing.T) {
	runner := &fakeRunner{
		runResult: backend.RunResult{
			MeasuredTimeMs: backend.ValidReading(1.0),
			PlannerCost:    backend.ValidReading(2.0),
		},
	}
	est := NewEstimator(runner, nil, features.DefaultHeuristicWeights(), false)
	ans, err := est.Estimate(context.Background(), "SELECT * FROM employees")
	assert.NoError(t, err)
	assert.True(t, ans.Heuristic.Valid)
	assert.Greater(t, ans.Heuristic.Value, 0.0)
}
