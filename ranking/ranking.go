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

// Package ranking runs the whole optimization pipeline for a query:
// generate rewrite candidates, estimate the cost of each variant and
// pick a winner. The original query always competes as a regular
// entry, so "the original is already the best" is an ordinary outcome.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/czcorpus/sqlizer/candidate"
	"github.com/czcorpus/sqlizer/estimate"
	"github.com/czcorpus/sqlizer/features"
	"github.com/czcorpus/sqlizer/logstore"
	"github.com/rs/zerolog/log"
)

const OriginalLabel = "original"

type Entry struct {
	Label    string             `json:"label"`
	Query    string             `json:"query"`
	Strategy candidate.Strategy `json:"strategy,omitempty"`
	Estimate estimate.Estimate  `json:"estimate"`
}

func (e Entry) IsOriginal() bool {
	return e.Label == OriginalLabel
}

type Result struct {
	Original              Entry   `json:"original"`
	Entries               []Entry `json:"entries"`
	Winner                Entry   `json:"winner"`
	ImprovementPercent    float64 `json:"improvementPercent"`
	OptimizationSucceeded bool    `json:"optimizationSucceeded"`
}

// Ranker evaluates a query against its rewrite candidates. The log
// database is optional; when attached, every evaluated entry is
// recorded.
type Ranker struct {
	gen   *candidate.Generator
	est   *estimate.Estimator
	logDB *logstore.Database
}

func NewRanker(
	gen *candidate.Generator,
	est *estimate.Estimator,
	logDB *logstore.Database,
) *Ranker {
	return &Ranker{
		gen:   gen,
		est:   est,
		logDB: logDB,
	}
}

// Rank estimates the original query and all its candidates and sorts
// them by estimated cost. Entries with an equal cost are ordered by
// source trust and then by generation order (the original comes first).
// A candidate whose estimation fails entirely is dropped; failure of
// the original query's estimation fails the whole call.
func (r *Ranker) Rank(ctx context.Context, query string) (*Result, error) {
	origEst, err := r.est.Estimate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to rank query: %w", err)
	}
	original := Entry{
		Label:    OriginalLabel,
		Query:    query,
		Estimate: origEst,
	}

	entries := []Entry{original}
	for _, cnd := range r.gen.Generate(query) {
		cndEst, err := r.est.Estimate(ctx, cnd.Query)
		if err != nil {
			log.Warn().
				Err(err).
				Str("strategy", string(cnd.Strategy)).
				Msg("failed to estimate candidate, skipping")
			continue
		}
		entries = append(entries, Entry{
			Label:    string(cnd.Strategy),
			Query:    cnd.Query,
			Strategy: cnd.Strategy,
			Estimate: cndEst,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Estimate.Best != entries[j].Estimate.Best {
			return entries[i].Estimate.Best < entries[j].Estimate.Best
		}
		return entries[i].Estimate.Source.TrustRank() > entries[j].Estimate.Source.TrustRank()
	})
	winner := entries[0]

	improvement := 0.0
	if origEst.Best > 0 {
		improvement = (origEst.Best - winner.Estimate.Best) / origEst.Best * 100
	}
	ans := &Result{
		Original:              original,
		Entries:               entries,
		Winner:                winner,
		ImprovementPercent:    improvement,
		OptimizationSucceeded: !winner.IsOriginal() && improvement > 0,
	}
	if r.logDB != nil {
		r.appendLog(query, entries)
	}
	return ans, nil
}

// appendLog writes one record per evaluated entry. Failures here must
// not break the ranking result, they are just reported.
func (r *Ranker) appendLog(query string, entries []Entry) {
	now := time.Now().Unix()
	for _, entry := range entries {
		est := entry.Estimate
		_, err := r.logDB.AddRecord(logstore.LogRecord{
			Datetime:       now,
			OriginalQuery:  query,
			CandidateQuery: entry.Query,
			Strategy:       string(entry.Strategy),
			Source:         string(est.Source),
			BestCost:       est.Best,
			MeasuredTimeMs: est.Measured,
			PlannerCost:    est.Planner,
			ModelCost:      est.Model,
			HeuristicCost:  est.Heuristic.Value,
			Features:       features.Extract(entry.Query).AsJSONString(),
			RawPlan:        string(est.RawPlan),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to store query log record")
		}
	}
}
