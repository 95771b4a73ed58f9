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

// Package logstore persists every evaluated query along with its cost
// readings into a local sqlite database. The stored records serve two
// purposes: training material for the cost model and a searchable
// history of past optimizations.
package logstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/czcorpus/sqlizer/backend"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

type Database struct {
	db *sql.DB
}

func OpenDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query log database: %w", err)
	}
	return &Database{db: db}, nil
}

func (database *Database) Close() error {
	return database.db.Close()
}

func (database *Database) createQueryLogTable() error {
	_, err := database.db.Exec(
		"CREATE TABLE query_log (" +
			"id TEXT PRIMARY KEY NOT NULL, " +
			"datetime INTEGER NOT NULL, " +
			"originalQuery TEXT NOT NULL, " +
			"candidateQuery TEXT NOT NULL, " +
			"strategy TEXT NOT NULL DEFAULT '', " +
			"source TEXT NOT NULL, " +
			"bestCost FLOAT NOT NULL, " +
			"measuredTimeMs FLOAT, " +
			"plannerCost FLOAT, " +
			"modelCost FLOAT, " +
			"heuristicCost FLOAT NOT NULL, " +
			"features TEXT NOT NULL DEFAULT '', " +
			"rawPlan TEXT NOT NULL DEFAULT ''" +
			")",
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Msg("created table `query_log`")
	return nil
}

func (database *Database) tableExists(tn string) (bool, error) {
	ans := database.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", tn)
	var nm sql.NullString
	err := ans.Scan(&nm)
	if err == sql.ErrNoRows {
		return false, nil

	} else if err != nil {
		return false, fmt.Errorf("failed to determine existence of table %s: %w", tn, err)
	}
	return true, nil
}

func (database *Database) Init() error {
	ex, err := database.tableExists("query_log")
	if err != nil {
		return fmt.Errorf("failed to init table query_log: %w", err)
	}
	if ex {
		log.Info().Str("table", "query_log").Msg("table already exists")

	} else {
		if err := database.createQueryLogTable(); err != nil {
			return fmt.Errorf("failed to create table query_log: %w", err)
		}
	}
	return nil
}

func nullable(v backend.Reading) any {
	if v.Valid {
		return v.Value
	}
	return nil
}

// AddRecord stores a record. The ID is derived from the creation time
// and the candidate query, so re-inserting the same record is a no-op.
func (database *Database) AddRecord(rec LogRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = IdempotentID(time.Unix(rec.Datetime, 0), rec.CandidateQuery)
	}
	_, err := database.db.Exec(
		"INSERT OR REPLACE INTO query_log "+
			"(id, datetime, originalQuery, candidateQuery, strategy, source, bestCost, "+
			"measuredTimeMs, plannerCost, modelCost, heuristicCost, features, rawPlan) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id,
		rec.Datetime,
		rec.OriginalQuery,
		rec.CandidateQuery,
		rec.Strategy,
		rec.Source,
		rec.BestCost,
		nullable(rec.MeasuredTimeMs),
		nullable(rec.PlannerCost),
		nullable(rec.ModelCost),
		rec.HeuristicCost,
		rec.Features,
		rec.RawPlan,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add record: %w", err)
	}
	return id, nil
}

// GetAllRecords loads log records matching the filter, most recent
// first.
func (database *Database) GetAllRecords(filter ListFilter) ([]LogRecord, error) {
	query := "SELECT id, datetime, originalQuery, candidateQuery, strategy, source, " +
		"bestCost, measuredTimeMs, plannerCost, modelCost, heuristicCost, features, rawPlan " +
		"FROM query_log WHERE %s ORDER BY datetime DESC"
	whereChunks := make([]string, 0, 3)
	whereChunks = append(whereChunks, "1 = 1")
	args := make([]any, 0, 2)
	if filter.Measured != nil {
		if *filter.Measured {
			whereChunks = append(whereChunks, "measuredTimeMs IS NOT NULL")

		} else {
			whereChunks = append(whereChunks, "measuredTimeMs IS NULL")
		}
	}
	if filter.Strategy != nil {
		whereChunks = append(whereChunks, "strategy = ?")
		args = append(args, *filter.Strategy)
	}
	sqlQuery := fmt.Sprintf(query, strings.Join(whereChunks, " AND "))
	if filter.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := database.db.Query(sqlQuery, args...)
	if err != nil {
		return []LogRecord{}, fmt.Errorf("failed to fetch log records: %w", err)
	}
	defer rows.Close()
	ans := make([]LogRecord, 0, 100)
	for rows.Next() {
		var rec LogRecord
		var measured, planner, modelCost sql.NullFloat64
		err := rows.Scan(
			&rec.ID,
			&rec.Datetime,
			&rec.OriginalQuery,
			&rec.CandidateQuery,
			&rec.Strategy,
			&rec.Source,
			&rec.BestCost,
			&measured,
			&planner,
			&modelCost,
			&rec.HeuristicCost,
			&rec.Features,
			&rec.RawPlan,
		)
		if err != nil {
			return []LogRecord{}, fmt.Errorf("failed to fetch log records: %w", err)
		}
		if measured.Valid {
			rec.MeasuredTimeMs = backend.ValidReading(measured.Float64)
		}
		if planner.Valid {
			rec.PlannerCost = backend.ValidReading(planner.Float64)
		}
		if modelCost.Valid {
			rec.ModelCost = backend.ValidReading(modelCost.Float64)
		}
		ans = append(ans, rec)
	}
	return ans, nil
}

// GetTrainableRecords loads records usable as model training samples,
// i.e. the ones carrying a measured runtime.
func (database *Database) GetTrainableRecords() ([]LogRecord, error) {
	return database.GetAllRecords(ListFilter{}.SetMeasured(true))
}

// FindSimilar searches the log for the n records whose original query
// is closest to the provided one in terms of edit distance.
func (database *Database) FindSimilar(query string, n int) (*BestMatches, error) {
	records, err := database.GetAllRecords(ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to search for similar queries: %w", err)
	}
	matches := NewBestMatches(n)
	for i := range records {
		dist := levenshtein.ComputeDistance(query, records[i].OriginalQuery)
		matches.TryAdd(&records[i], dist)
	}
	return matches, nil
}
