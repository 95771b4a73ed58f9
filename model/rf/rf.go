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

// Package rf wraps a random forest classifier into a regressor. The
// continuous runtime target is split into quantile bins, the forest
// classifies a query into a bin and the prediction is the vote-weighted
// average of bin mean runtimes.
package rf

import (
	"context"
	"fmt"
	"sort"

	randomforest "github.com/malaschitz/randomForest"
)

const (
	dfltNumTrees = 100
	dfltNumBins  = 8
)

type Regressor struct {
	Forest   *randomforest.Forest `json:"forest"`
	NumTrees int                  `json:"numTrees"`
	NumBins  int                  `json:"numBins"`
	BinMeans []float64            `json:"binMeans"`
}

func NewRegressor() *Regressor {
	return &Regressor{
		Forest:   &randomforest.Forest{},
		NumTrees: dfltNumTrees,
		NumBins:  dfltNumBins,
	}
}

func (m *Regressor) Info() string {
	return fmt.Sprintf(
		"random forest model, num. trees: %d, num. bins: %d", m.NumTrees, len(m.BinMeans))
}

// binEdges returns upper bounds of quantile bins over sorted targets.
// With heavily repeated target values some edges collapse; duplicates
// are removed so every bin is non-empty.
func binEdges(sortedY []float64, numBins int) []float64 {
	n := len(sortedY)
	if numBins > n {
		numBins = n
	}
	var edges []float64
	for b := 1; b < numBins; b++ {
		edge := sortedY[b*n/numBins]
		if len(edges) == 0 || edge > edges[len(edges)-1] {
			edges = append(edges, edge)
		}
	}
	return edges
}

func binFor(edges []float64, v float64) int {
	for i, edge := range edges {
		if v < edge {
			return i
		}
	}
	return len(edges)
}

func (m *Regressor) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	sortedY := append([]float64{}, y...)
	sort.Float64s(sortedY)
	edges := binEdges(sortedY, m.NumBins)
	numClasses := len(edges) + 1

	classes := make([]int, len(y))
	binSums := make([]float64, numClasses)
	binCounts := make([]int, numClasses)
	for i, v := range y {
		cls := binFor(edges, v)
		classes[i] = cls
		binSums[cls] += v
		binCounts[cls]++
	}
	m.BinMeans = make([]float64, numClasses)
	for i := range m.BinMeans {
		if binCounts[i] > 0 {
			m.BinMeans[i] = binSums[i] / float64(binCounts[i])
		}
	}

	m.Forest = &randomforest.Forest{}
	m.Forest.Data = randomforest.ForestData{
		X:     x,
		Class: classes,
	}
	m.Forest.Train(m.NumTrees)
	return nil
}

func (m *Regressor) Predict(x []float64) (float64, error) {
	if m.Forest == nil || len(m.BinMeans) == 0 {
		return 0, fmt.Errorf("failed to predict: model is not trained")
	}
	votes := m.Forest.Vote(x)
	var weighted, total float64
	for i, v := range votes {
		if i >= len(m.BinMeans) {
			break
		}
		weighted += v * m.BinMeans[i]
		total += v
	}
	if total == 0 {
		return 0, fmt.Errorf("failed to predict: forest produced no votes")
	}
	return weighted / total, nil
}
