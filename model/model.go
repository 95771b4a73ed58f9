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

// Package model provides a learned cost model trained on previously
// measured query runtimes. A trained model is a frozen value: it
// remembers the exact list of feature names it was trained on and every
// later prediction projects the live feature vector onto that list, so
// feature schema growth never silently shifts column meanings.
package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/czcorpus/sqlizer/features"
	"github.com/czcorpus/sqlizer/model/linear"
	"github.com/czcorpus/sqlizer/model/nn"
	"github.com/czcorpus/sqlizer/model/rf"
)

var (
	ErrNoSuchModel      = errors.New("no such model")
	ErrInsufficientData = errors.New("insufficient training data")
	ErrEmptyState       = errors.New("empty model state")
)

// TrainedFeatures is the feature subset models are trained on. It is
// deliberately smaller than the live extractor schema and must stay
// stable; anything added to the extractor becomes available to future
// trainings without affecting models trained before.
var TrainedFeatures = []string{
	"numTables",
	"numJoins",
	"numConditions",
	"queryLength",
	"complexity",
	"hasOrderBy",
}

// Regressor is a trainable numeric model. Implementations must be
// JSON-(de)serializable so a trained instance can travel inside State.
type Regressor interface {
	Fit(ctx context.Context, x [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
	Info() string
}

// GetRegressor creates a fresh, untrained regressor of the given type.
func GetRegressor(modelType string) (Regressor, error) {
	switch modelType {
	case "linear":
		return linear.NewRegressor(), nil
	case "rf":
		return rf.NewRegressor(), nil
	case "nn":
		return nn.NewRegressor(), nil
	}
	return nil, fmt.Errorf("failed to instantiate model %s: %w", modelType, ErrNoSuchModel)
}

// Sample is a single training observation, a query text along with its
// measured runtime. Samples without a measurement are skipped during
// training.
type Sample struct {
	Query    string
	TimeMs   float64
	Measured bool
}

// State is a trained model along with everything needed to apply it
// consistently later. It is immutable once created.
type State struct {
	SchemaVersion string
	ModelType     string
	Features      []string
	SampleCount   int
	TrainedAt     time.Time
	regressor     Regressor
}

func (s *State) Info() string {
	if s == nil || s.regressor == nil {
		return "no model"
	}
	return fmt.Sprintf(
		"%s (schema %s, %d features, %d samples)",
		s.regressor.Info(), s.SchemaVersion, len(s.Features), s.SampleCount)
}

// Predict estimates the runtime of a query in milliseconds. The live
// feature vector is projected onto the exact feature list the model was
// trained with.
func Predict(state *State, query string) (float64, error) {
	if state == nil || state.regressor == nil {
		return 0, ErrEmptyState
	}
	vec := features.Extract(query)
	x, err := vec.Project(state.Features)
	if err != nil {
		return 0, fmt.Errorf("failed to predict query cost: %w", err)
	}
	ans, err := state.regressor.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("failed to predict query cost: %w", err)
	}
	return ans, nil
}
