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

package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/czcorpus/sqlizer/features"
	"github.com/rs/zerolog/log"
)

// TrainConf configures a single training run.
type TrainConf struct {
	ModelType          string
	MinTrainingSamples int
}

// Train fits a fresh model on measured samples and returns its state.
// Samples without a measured runtime are dropped up front. If fewer
// than MinTrainingSamples measured samples remain, training is refused
// with ErrInsufficientData and no state is produced. A previously
// loaded model is never touched by a failed training.
func Train(ctx context.Context, conf TrainConf, samples []Sample) (*State, error) {
	var x [][]float64
	var y []float64
	numSkipped := 0
	for _, smp := range samples {
		if !smp.Measured {
			numSkipped++
			continue
		}
		vec := features.Extract(smp.Query)
		row, err := vec.Project(TrainedFeatures)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare training data: %w", err)
		}
		x = append(x, row)
		y = append(y, smp.TimeMs)
	}
	log.Debug().
		Int("numMeasured", len(x)).
		Int("numSkipped", numSkipped).
		Msg("prepared training vectors")

	if len(x) < conf.MinTrainingSamples {
		return nil, fmt.Errorf(
			"%w: have %d measured samples, need %d",
			ErrInsufficientData, len(x), conf.MinTrainingSamples)
	}

	reg, err := GetRegressor(conf.ModelType)
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(ctx, x, y); err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	return &State{
		SchemaVersion: features.SchemaVersion,
		ModelType:     conf.ModelType,
		Features:      append([]string{}, TrainedFeatures...),
		SampleCount:   len(x),
		TrainedAt:     time.Now(),
		regressor:     reg,
	}, nil
}

// EvalReport summarizes model accuracy on a set of measured samples.
type EvalReport struct {
	NumSamples int     `json:"numSamples"`
	MAE        float64 `json:"mae"`
	RMSE       float64 `json:"rmse"`
	R2         float64 `json:"r2"`
}

// Evaluate measures prediction accuracy of a trained state against
// measured samples (typically a holdout split).
func Evaluate(state *State, samples []Sample) (EvalReport, error) {
	var residSq, residAbs, sumActual float64
	var actual []float64
	var predicted []float64
	for _, smp := range samples {
		if !smp.Measured {
			continue
		}
		pred, err := Predict(state, smp.Query)
		if err != nil {
			return EvalReport{}, fmt.Errorf("failed to evaluate model: %w", err)
		}
		actual = append(actual, smp.TimeMs)
		predicted = append(predicted, pred)
		sumActual += smp.TimeMs
	}
	n := len(actual)
	if n == 0 {
		return EvalReport{}, fmt.Errorf("failed to evaluate model: no measured samples")
	}
	meanActual := sumActual / float64(n)
	var totalSq float64
	for i := range actual {
		resid := predicted[i] - actual[i]
		residSq += resid * resid
		residAbs += math.Abs(resid)
		totalSq += (actual[i] - meanActual) * (actual[i] - meanActual)
	}
	r2 := 0.0
	if totalSq > 0 {
		r2 = 1.0 - residSq/totalSq
	}
	return EvalReport{
		NumSamples: n,
		MAE:        residAbs / float64(n),
		RMSE:       math.Sqrt(residSq / float64(n)),
		R2:         r2,
	}, nil
}
