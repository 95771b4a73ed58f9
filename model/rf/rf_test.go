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

package rf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinEdgesDedupe(t *testing.T) {
	sorted := []float64{1, 1, 1, 1, 1, 1, 1, 10}
	edges := binEdges(sorted, 4)
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
}

func TestBinFor(t *testing.T) {
	edges := []float64{10, 20, 30}
	assert.Equal(t, 0, binFor(edges, 5))
	assert.Equal(t, 1, binFor(edges, 10))
	assert.Equal(t, 2, binFor(edges, 25))
	assert.Equal(t, 3, binFor(edges, 100))
}

func TestFitAndPredictStaysInTargetRange(t *testing.T) {
	reg := NewRegressor()
	reg.NumTrees = 20
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i)
		x = append(x, []float64{v, v * 2})
		y = append(y, 5.0+v*3.0)
	}
	assert.NoError(t, reg.Fit(context.Background(), x, y))
	pred, err := reg.Predict([]float64{20, 40})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, pred, 5.0)
	assert.LessOrEqual(t, pred, 5.0+39*3.0)
}

func TestPredictUntrained(t *testing.T) {
	reg := NewRegressor()
	_, err := reg.Predict([]float64{1, 2})
	assert.Error(t, err)
}
