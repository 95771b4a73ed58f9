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

// Package linear implements a robust linear regressor fitted by
// gradient descent on the Huber loss. Training runs on normalized data
// and the final weights are converted back to the original scale, so
// prediction is a plain dot product.
package linear

import (
	"context"
	"fmt"
	"math"
)

type Regressor struct {
	Weights       []float64 `json:"weights"`
	Bias          float64   `json:"bias"`
	Delta         float64   `json:"delta"`
	LearningRate  float64   `json:"learningRate"`
	MaxIterations int       `json:"maxIterations"`
	Tolerance     float64   `json:"tolerance"`
}

func NewRegressor() *Regressor {
	return &Regressor{
		Delta:         1.35,
		LearningRate:  0.01,
		MaxIterations: 10000,
		Tolerance:     1e-6,
	}
}

func (m *Regressor) Info() string {
	return fmt.Sprintf("linear model (Huber loss), %d weights", len(m.Weights))
}

// huberDerivative is the derivative of the Huber loss for a residual.
func (m *Regressor) huberDerivative(residual float64) float64 {
	if math.Abs(residual) <= m.Delta {
		return residual
	}
	if residual > 0 {
		return m.Delta
	}
	return -m.Delta
}

type normParams struct {
	featMeans []float64
	featStds  []float64
	yMean     float64
	yStd      float64
}

func computeNormParams(x [][]float64, y []float64) normParams {
	n := len(x)
	numFeats := len(x[0])
	np := normParams{
		featMeans: make([]float64, numFeats),
		featStds:  make([]float64, numFeats),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < numFeats; j++ {
			np.featMeans[j] += x[i][j]
		}
	}
	for j := 0; j < numFeats; j++ {
		np.featMeans[j] /= float64(n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < numFeats; j++ {
			diff := x[i][j] - np.featMeans[j]
			np.featStds[j] += diff * diff
		}
	}
	for j := 0; j < numFeats; j++ {
		np.featStds[j] = math.Sqrt(np.featStds[j] / float64(n))
		if np.featStds[j] < 1e-10 {
			np.featStds[j] = 1.0
		}
	}
	for _, t := range y {
		np.yMean += t
	}
	np.yMean /= float64(n)
	for _, t := range y {
		diff := t - np.yMean
		np.yStd += diff * diff
	}
	np.yStd = math.Sqrt(np.yStd / float64(n))
	if np.yStd < 1e-10 {
		np.yStd = 1.0
	}
	return np
}

// Fit performs gradient descent with the Huber loss on normalized data
// and stores denormalized weights.
func (m *Regressor) Fit(ctx context.Context, x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 {
		return fmt.Errorf("no training data provided")
	}
	numFeats := len(x[0])
	np := computeNormParams(x, y)

	xn := make([][]float64, n)
	for i := range x {
		xn[i] = make([]float64, numFeats)
		for j := range x[i] {
			xn[i][j] = (x[i][j] - np.featMeans[j]) / np.featStds[j]
		}
	}
	yn := make([]float64, n)
	for i := range y {
		yn[i] = (y[i] - np.yMean) / np.yStd
	}

	weights := make([]float64, numFeats)
	bias := 0.0
	prevLoss := math.MaxFloat64

	for iter := 0; iter < m.MaxIterations; iter++ {
		if iter%100 == 0 && ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		gradients := make([]float64, numFeats)
		biasGradient := 0.0
		totalLoss := 0.0
		for i := 0; i < n; i++ {
			predicted := bias
			for j := 0; j < numFeats; j++ {
				predicted += weights[j] * xn[i][j]
			}
			residual := predicted - yn[i]
			if math.Abs(residual) <= m.Delta {
				totalLoss += 0.5 * residual * residual
			} else {
				totalLoss += m.Delta * (math.Abs(residual) - 0.5*m.Delta)
			}
			derivative := m.huberDerivative(residual)
			for j := 0; j < numFeats; j++ {
				gradients[j] += derivative * xn[i][j]
			}
			biasGradient += derivative
		}
		for j := range gradients {
			weights[j] -= m.LearningRate * gradients[j] / float64(n)
		}
		bias -= m.LearningRate * biasGradient / float64(n)

		avgLoss := totalLoss / float64(n)
		if math.Abs(prevLoss-avgLoss) < m.Tolerance {
			break
		}
		prevLoss = avgLoss
	}

	// convert weights back to the original data scale
	m.Weights = make([]float64, numFeats)
	for j := 0; j < numFeats; j++ {
		m.Weights[j] = weights[j] * np.yStd / np.featStds[j]
	}
	m.Bias = np.yMean + bias*np.yStd
	for j := 0; j < numFeats; j++ {
		m.Bias -= m.Weights[j] * np.featMeans[j]
	}
	return nil
}

func (m *Regressor) Predict(x []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, fmt.Errorf("failed to predict: model is not trained")
	}
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf(
			"failed to predict: feature vector size %d does not match model size %d",
			len(x), len(m.Weights))
	}
	ans := m.Bias
	for j := range x {
		ans += m.Weights[j] * x[j]
	}
	return ans, nil
}
