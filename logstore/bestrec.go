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

type MatchItem struct {
	Record   *LogRecord
	Distance int
}

// BestMatches keeps the n closest records found so far, ordered by
// their edit distance from a reference query.
type BestMatches struct {
	size int
	data []MatchItem
}

// AvgMeasuredTime averages the measured runtimes of the collected
// matches, skipping records without a measurement.
func (bm *BestMatches) AvgMeasuredTime() float64 {
	var ans float64
	var num float64
	for _, v := range bm.data {
		if v.Record.MeasuredTimeMs.Valid {
			ans += v.Record.MeasuredTimeMs.Value
			num++
		}
	}
	if num == 0 {
		return 0
	}
	return ans / num
}

func (bm *BestMatches) At(idx int) MatchItem {
	return bm.data[idx]
}

func (bm *BestMatches) Items() []MatchItem {
	return bm.data
}

func (bm *BestMatches) Len() int {
	return len(bm.data)
}

func (bm *BestMatches) TryAdd(rec *LogRecord, dist int) bool {
	pos := -1
	for i := 0; i < len(bm.data); i++ {
		if dist < bm.data[i].Distance {
			pos = i
			break
		}
	}
	if pos == -1 && len(bm.data) < bm.size {
		bm.data = append(
			bm.data,
			MatchItem{
				Record:   rec,
				Distance: dist,
			},
		)
		pos = len(bm.data) - 1

	} else if pos >= 0 {
		tmp := make([]MatchItem, len(bm.data[pos:]))
		copy(tmp, bm.data[pos:])
		bm.data = bm.data[:pos]
		bm.data = append(
			bm.data,
			MatchItem{
				Record:   rec,
				Distance: dist,
			},
		)
		bm.data = append(bm.data, tmp...)
	}
	if len(bm.data) > bm.size {
		bm.data = bm.data[:bm.size]
	}
	return pos > -1
}

func NewBestMatches(size int) *BestMatches {
	return &BestMatches{
		size: size,
		data: make([]MatchItem, 0, size+1),
	}
}
