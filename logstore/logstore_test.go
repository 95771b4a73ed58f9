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

package logstore

import (
	"testing"
	"time"

	"github.com/czcorpus/sqlizer/backend"
	"github.com/stretchr/testify/assert"
)

func openTestDB(t *testing.T) *Database {
	db, err := OpenDatabase(":memory:")
	assert.NoError(t, err)
	assert.NoError(t, db.Init())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Init())
}

func TestAddAndFetchRecord(t *testing.T) {
	db := openTestDB(t)
	id, err := db.AddRecord(LogRecord{
		Datetime:       time.Now().Unix(),
		OriginalQuery:  "SELECT * FROM employees",
		CandidateQuery: "SELECT * FROM employees LIMIT 1000",
		Strategy:       "limit-inject",
		Source:         "measured",
		BestCost:       12.5,
		MeasuredTimeMs: backend.ValidReading(12.5),
		HeuristicCost:  22.0,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := db.GetAllRecords(ListFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(records))
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "limit-inject", records[0].Strategy)
	assert.True(t, records[0].MeasuredTimeMs.Valid)
	assert.InDelta(t, 12.5, records[0].MeasuredTimeMs.Value, 0.001)
	assert.False(t, records[0].PlannerCost.Valid)
}

func TestAddRecordIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	rec := LogRecord{
		Datetime:       1756500000,
		OriginalQuery:  "SELECT 1",
		CandidateQuery: "SELECT 1",
		Source:         "heuristic",
		BestCost:       1.0,
		HeuristicCost:  1.0,
	}
	id1, err := db.AddRecord(rec)
	assert.NoError(t, err)
	id2, err := db.AddRecord(rec)
	assert.NoError(t, err)
	assert.Equal(t, id1, id2)

	records, err := db.GetAllRecords(ListFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(records))
}

func TestFilterMeasured(t *testing.T) {
	db := openTestDB(t)
	_, err := db.AddRecord(LogRecord{
		Datetime:       1756500000,
		OriginalQuery:  "SELECT 1",
		CandidateQuery: "SELECT 1",
		Source:         "measured",
		BestCost:       2.0,
		MeasuredTimeMs: backend.ValidReading(2.0),
		HeuristicCost:  1.0,
	})
	assert.NoError(t, err)
	_, err = db.AddRecord(LogRecord{
		Datetime:       1756500001,
		OriginalQuery:  "SELECT 2",
		CandidateQuery: "SELECT 2",
		Source:         "heuristic",
		BestCost:       1.0,
		HeuristicCost:  1.0,
	})
	assert.NoError(t, err)

	measured, err := db.GetAllRecords(ListFilter{}.SetMeasured(true))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(measured))
	assert.Equal(t, "SELECT 1", measured[0].OriginalQuery)

	unmeasured, err := db.GetAllRecords(ListFilter{}.SetMeasured(false))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(unmeasured))
	assert.Equal(t, "SELECT 2", unmeasured[0].OriginalQuery)

	trainable, err := db.GetTrainableRecords()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(trainable))
}

func TestFilterStrategyAndLimit(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		_, err := db.AddRecord(LogRecord{
			Datetime:       int64(1756500000 + i),
			OriginalQuery:  "SELECT 1",
			CandidateQuery: "SELECT 1 LIMIT 1000",
			Strategy:       "limit-inject",
			Source:         "heuristic",
			BestCost:       1.0,
			HeuristicCost:  1.0,
		})
		assert.NoError(t, err)
	}
	records, err := db.GetAllRecords(
		ListFilter{}.SetStrategy("limit-inject").SetLimit(3))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(records))

	records, err = db.GetAllRecords(ListFilter{}.SetStrategy("where-reorder"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(records))
}

func TestFindSimilar(t *testing.T) {
	db := openTestDB(t)
	queries := []string{
		"SELECT * FROM employees WHERE salary > 1000",
		"SELECT * FROM employees WHERE salary > 2000",
		"SELECT name FROM departments",
	}
	for i, q := range queries {
		_, err := db.AddRecord(LogRecord{
			Datetime:       int64(1756500000 + i),
			OriginalQuery:  q,
			CandidateQuery: q,
			Source:         "heuristic",
			BestCost:       1.0,
			HeuristicCost:  1.0,
		})
		assert.NoError(t, err)
	}
	matches, err := db.FindSimilar("SELECT * FROM employees WHERE salary > 1500", 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, matches.Len())
	assert.Contains(t, matches.At(0).Record.OriginalQuery, "employees")
	assert.LessOrEqual(t, matches.At(0).Distance, matches.At(1).Distance)
}

func TestBestMatchesKeepsOrder(t *testing.T) {
	bm := NewBestMatches(2)
	r1 := &LogRecord{OriginalQuery: "a"}
	r2 := &LogRecord{OriginalQuery: "b"}
	r3 := &LogRecord{OriginalQuery: "c"}
	bm.TryAdd(r1, 10)
	bm.TryAdd(r2, 5)
	bm.TryAdd(r3, 7)
	assert.Equal(t, 2, bm.Len())
	assert.Equal(t, 5, bm.At(0).Distance)
	assert.Equal(t, 7, bm.At(1).Distance)
}

func TestAvgMeasuredTime(t *testing.T) {
	bm := NewBestMatches(3)
	bm.TryAdd(&LogRecord{MeasuredTimeMs: backend.ValidReading(10)}, 1)
	bm.TryAdd(&LogRecord{MeasuredTimeMs: backend.ValidReading(20)}, 2)
	bm.TryAdd(&LogRecord{}, 3)
	assert.InDelta(t, 15.0, bm.AvgMeasuredTime(), 0.001)
}
