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

package apiserver

import (
	"fmt"
	"net/http"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/czcorpus/sqlizer/estimate"
	"github.com/czcorpus/sqlizer/features"
	"github.com/czcorpus/sqlizer/logstore"
	"github.com/gin-gonic/gin"
)

const dfltHistoryLimit = 20

func (api *apiServer) handleVersion(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, api.version)
}

func (api *apiServer) handleOptimize(ctx *gin.Context) {
	q := ctx.Query("q")
	if q == "" {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("missing query argument `q`"), http.StatusBadRequest)
		return
	}
	res, err := api.ranker.Rank(ctx.Request.Context(), q)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, res)
}

type estimation struct {
	Query    string            `json:"query"`
	Features features.Vector   `json:"features"`
	Estimate estimate.Estimate `json:"estimate"`
}

func (api *apiServer) handleEstimate(ctx *gin.Context) {
	q := ctx.Query("q")
	if q == "" {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("missing query argument `q`"), http.StatusBadRequest)
		return
	}
	est, err := api.estimator.Estimate(ctx.Request.Context(), q)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, estimation{
		Query:    q,
		Features: features.Extract(q),
		Estimate: est,
	})
}

type similarItem struct {
	Record   *logstore.LogRecord `json:"record"`
	Distance int                 `json:"distance"`
}

func (api *apiServer) handleHistory(ctx *gin.Context) {
	if api.logDB == nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("query log is not configured"), http.StatusConflict)
		return
	}
	limit, ok := unireq.GetURLIntArgOrFail(ctx, "limit", dfltHistoryLimit)
	if !ok {
		return
	}
	q := ctx.Query("q")
	if q != "" {
		matches, err := api.logDB.FindSimilar(q, limit)
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
			return
		}
		items := make([]similarItem, 0, matches.Len())
		for _, m := range matches.Items() {
			items = append(items, similarItem{Record: m.Record, Distance: m.Distance})
		}
		uniresp.WriteJSONResponse(ctx.Writer, map[string]any{
			"matches":           items,
			"avgMeasuredTimeMs": matches.AvgMeasuredTime(),
		})
		return
	}
	records, err := api.logDB.GetAllRecords(logstore.ListFilter{}.SetLimit(limit))
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, records)
}
