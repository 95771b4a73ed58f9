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

// Package nn implements a small feed-forward regression network.
// Inputs and targets are min-max normalized, the target range is kept
// in the model so predictions come back in milliseconds.
package nn

import (
	"context"
	"encoding/json"
	"fmt"

	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
)

var (
	networkLayout = []int{16, 8, 1}
	numEpochs     = 300
	learningRate  = 0.001
)

type FeatureStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type jsonizedRegressor struct {
	NeuralNet   *deep.Dump     `json:"neuralNet"`
	DataRanges  []FeatureStats `json:"dataRanges"`
	TargetRange FeatureStats   `json:"targetRange"`
}

type Regressor struct {
	NeuralNet   *deep.Neural
	DataRanges  []FeatureStats
	TargetRange FeatureStats
}

func NewRegressor() *Regressor {
	return &Regressor{}
}

func (m *Regressor) Info() string {
	return fmt.Sprintf(
		"neural network model, layout: %v, epochs: %d", networkLayout, numEpochs)
}

func (m *Regressor) getDataStats(x [][]float64) []FeatureStats {
	stats := make([]FeatureStats, len(x[0]))
	for j := range stats {
		stats[j] = FeatureStats{Min: x[0][j], Max: x[0][j]}
	}
	for _, row := range x {
		for j, v := range row {
			if v > stats[j].Max {
				stats[j].Max = v
			}
			if v < stats[j].Min {
				stats[j].Min = v
			}
		}
	}
	return stats
}

func (m *Regressor) normalizeFeats(data []float64) {
	for i := 0; i < len(data) && i < len(m.DataRanges); i++ {
		min := m.DataRanges[i].Min
		max := m.DataRanges[i].Max
		if max == min {
			data[i] = 0.0 // constant feature

		} else {
			data[i] = (data[i] - min) / (max - min)
		}
	}
}

func (m *Regressor) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	m.DataRanges = m.getDataStats(x)
	m.TargetRange = FeatureStats{Min: y[0], Max: y[0]}
	for _, t := range y {
		if t > m.TargetRange.Max {
			m.TargetRange.Max = t
		}
		if t < m.TargetRange.Min {
			m.TargetRange.Min = t
		}
	}
	targetSpan := m.TargetRange.Max - m.TargetRange.Min
	if targetSpan <= 0 {
		targetSpan = 1.0
	}

	featData := training.Examples{}
	for i := range x {
		input := append([]float64{}, x[i]...)
		m.normalizeFeats(input)
		featData = append(
			featData,
			training.Example{
				Input:    input,
				Response: []float64{(y[i] - m.TargetRange.Min) / targetSpan},
			},
		)
	}
	trn, heldout := featData.Split(0.75)
	if len(heldout) == 0 {
		trn, heldout = featData, featData
	}

	m.NeuralNet = deep.NewNeural(&deep.Config{
		Inputs:     len(x[0]),
		Layout:     networkLayout,
		Activation: deep.ActivationReLU,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewUniform(1.0, 0.0),
		Bias:       true,
	})
	optimizer := training.NewAdam(learningRate, 0.9, 0.999, 1e-8)
	trainer := training.NewTrainer(optimizer, 0)
	trainer.Train(m.NeuralNet, trn, heldout, numEpochs)
	return nil
}

func (m *Regressor) Predict(x []float64) (float64, error) {
	if m.NeuralNet == nil {
		return 0, fmt.Errorf("failed to predict: model is not trained")
	}
	input := append([]float64{}, x...)
	m.normalizeFeats(input)
	out := m.NeuralNet.Predict(input)
	targetSpan := m.TargetRange.Max - m.TargetRange.Min
	if targetSpan <= 0 {
		targetSpan = 1.0
	}
	return out[0]*targetSpan + m.TargetRange.Min, nil
}

func (m *Regressor) MarshalJSON() ([]byte, error) {
	tmpModel := jsonizedRegressor{
		DataRanges:  m.DataRanges,
		TargetRange: m.TargetRange,
	}
	if m.NeuralNet != nil {
		tmpModel.NeuralNet = m.NeuralNet.Dump()
	}
	return json.Marshal(tmpModel)
}

func (m *Regressor) UnmarshalJSON(data []byte) error {
	var tmpModel jsonizedRegressor
	if err := json.Unmarshal(data, &tmpModel); err != nil {
		return err
	}
	m.DataRanges = tmpModel.DataRanges
	m.TargetRange = tmpModel.TargetRange
	if tmpModel.NeuralNet != nil {
		m.NeuralNet = deep.FromDump(tmpModel.NeuralNet)
	}
	return nil
}
