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

package backend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const dfltQueryTimeout = 60 * time.Second

// PGRunner measures queries against a PostgreSQL instance. Every call
// runs inside its own transaction which is always rolled back, so even
// a data-modifying statement routed through Run leaves no trace.
type PGRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPGRunner opens a connection pool for the provided DSN. The pool is
// kept minimal on purpose, one connection per measurement call and
// nothing idling between calls.
func NewPGRunner(dsn string, timeout time.Duration) (*PGRunner, error) {
	if timeout <= 0 {
		timeout = dfltQueryTimeout
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open backend connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
	return &PGRunner{db: db, timeout: timeout}, nil
}

func (r *PGRunner) Close() error {
	return r.db.Close()
}

func (r *PGRunner) explain(ctx context.Context, stmt string) ([]byte, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to start measurement transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Warn().Err(err).Msg("failed to roll back measurement transaction")
		}
	}()

	var raw []byte
	t0 := time.Now()
	if err := tx.QueryRowContext(ctx, stmt).Scan(&raw); err != nil {
		return nil, 0, fmt.Errorf("failed to run explain: %w", err)
	}
	return raw, time.Since(t0), nil
}

// Run executes the query under EXPLAIN ANALYZE and reports both the
// measured execution time and the planner's cost estimate. When the
// server does not report an execution time, the wall-clock duration of
// the call is used instead.
func (r *PGRunner) Run(ctx context.Context, query string) (RunResult, error) {
	raw, elapsed, err := r.explain(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+query)
	if err != nil {
		return RunResult{}, err
	}
	entry, err := parseExplain(raw)
	if err != nil {
		return RunResult{}, err
	}
	measured := entry.ExecutionTime
	if measured <= 0 {
		measured = float64(elapsed) / float64(time.Millisecond)
	}
	return RunResult{
		MeasuredTimeMs: ValidReading(measured),
		PlannerCost:    ValidReading(entry.Plan.TotalCost),
		RawPlan:        raw,
	}, nil
}

// PlanOnly asks the planner for a cost estimate without executing
// the query.
func (r *PGRunner) PlanOnly(ctx context.Context, query string) (RunResult, error) {
	raw, _, err := r.explain(ctx, "EXPLAIN (FORMAT JSON) "+query)
	if err != nil {
		return RunResult{}, err
	}
	entry, err := parseExplain(raw)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{
		PlannerCost: ValidReading(entry.Plan.TotalCost),
		RawPlan:     raw,
	}, nil
}
