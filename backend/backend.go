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

// Package backend talks to a concrete database to obtain measured
// runtimes and planner cost estimates for a query. All the rest of the
// system treats it as an optional data source: a missing or failing
// backend just means fewer cost readings.
package backend

import "context"

// Reading is a single numeric measurement which may be absent.
type Reading struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

func ValidReading(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// RunResult carries whatever the backend managed to find out about
// a query in a single call.
type RunResult struct {
	// MeasuredTimeMs is the observed execution time in milliseconds.
	// It is invalid when the query was only planned, not executed.
	MeasuredTimeMs Reading `json:"measuredTimeMs"`

	// PlannerCost is the database planner's total cost estimate in the
	// planner's own abstract units.
	PlannerCost Reading `json:"plannerCost"`

	// RawPlan is the unparsed plan document as returned by the
	// database, kept for logging.
	RawPlan []byte `json:"-"`
}

// Runner executes or plans queries against a database.
type Runner interface {

	// Run executes the query and reports both measured time and
	// planner cost.
	Run(ctx context.Context, query string) (RunResult, error)

	// PlanOnly asks the database to plan the query without executing
	// it. The measured reading of the result is always invalid.
	PlanOnly(ctx context.Context, query string) (RunResult, error)
}
