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

import "github.com/czcorpus/sqlizer/backend"

type LogRecord struct {

	// ID is an idempotent identifier derived from other attributes
	// (date and candidate query). It should not be derived just from
	// the query itself because repeated evaluations of the same query
	// are valuable - a single measurement can be affected by (bad)luck.
	ID string `json:"id"`

	// Datetime specifies when the record was created
	Datetime int64 `json:"datetime"`

	// OriginalQuery is the query the user asked about
	OriginalQuery string `json:"originalQuery"`

	// CandidateQuery is the variant that was actually evaluated. For
	// the original entry of an optimization run it equals OriginalQuery.
	CandidateQuery string `json:"candidateQuery"`

	// Strategy names the rewrite that produced the candidate (empty
	// for the original)
	Strategy string `json:"strategy"`

	// Source tells which cost source supplied BestCost
	Source string `json:"source"`

	// BestCost is the cost value used for ranking (unit depends on Source)
	BestCost float64 `json:"bestCost"`

	// MeasuredTimeMs is the observed runtime, when the query was
	// actually executed. Records with a measurement are the training
	// material for the cost model.
	MeasuredTimeMs backend.Reading `json:"measuredTimeMs"`

	PlannerCost backend.Reading `json:"plannerCost"`

	ModelCost backend.Reading `json:"modelCost"`

	HeuristicCost float64 `json:"heuristicCost"`

	// Features is the JSON-serialized feature vector of the candidate
	Features string `json:"features"`

	// RawPlan is the backend's plan document, when available
	RawPlan string `json:"rawPlan,omitempty"`
}
