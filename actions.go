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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/czcorpus/sqlizer/apiserver"
	"github.com/czcorpus/sqlizer/backend"
	"github.com/czcorpus/sqlizer/candidate"
	"github.com/czcorpus/sqlizer/cnf"
	"github.com/czcorpus/sqlizer/estimate"
	"github.com/czcorpus/sqlizer/features"
	"github.com/czcorpus/sqlizer/logstore"
	"github.com/czcorpus/sqlizer/model"
	"github.com/czcorpus/sqlizer/ranking"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/vmihailenco/msgpack/v5"
)

const trainHoldoutRatio = 0.2

func fail(code int, msg string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(code)
}

func openLogDB(conf *cnf.Conf) *logstore.Database {
	if conf.LogDBPath == "" {
		fail(exitErrorFailedToOpenLogDB, "query log database not configured (logDbPath)")
	}
	db, err := logstore.OpenDatabase(conf.LogDBPath)
	if err != nil {
		fail(exitErrorFailedToOpenLogDB, "failed to open query log database: %s", err)
	}
	if err := db.Init(); err != nil {
		fail(exitErrorFailedToOpenLogDB, "failed to initialize query log database: %s", err)
	}
	return db
}

func loadModelState(conf *cnf.Conf) *model.State {
	if conf.ModelPath == "" {
		return nil
	}
	if _, err := os.Stat(conf.ModelPath); os.IsNotExist(err) {
		log.Warn().
			Str("modelPath", conf.ModelPath).
			Msg("model file does not exist, the model cost tier will be unavailable")
		return nil
	}
	state, err := model.LoadFromFile(conf.ModelPath)
	if err != nil {
		fail(exitErrorFailedToLoadModel, "failed to load model: %s", err)
	}
	log.Info().Str("model", state.Info()).Msg("loaded cost model")
	return state
}

// newEstimator wires together all the configured cost tiers. The
// returned cleanup function closes the backend connection (if any).
func newEstimator(conf *cnf.Conf) (*estimate.Estimator, func()) {
	var runner backend.Runner
	cleanup := func() {}
	if conf.BackendDSN != "" {
		pg, err := backend.NewPGRunner(
			conf.BackendDSN, time.Duration(conf.BackendTimeoutSecs)*time.Second)
		if err != nil {
			fail(exitErrorFailedToOpenBackend, "failed to connect to backend database: %s", err)
		}
		runner = pg
		cleanup = func() {
			if err := pg.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close backend connection")
			}
		}
	}
	state := loadModelState(conf)
	return estimate.NewEstimator(runner, state, conf.Heuristic, conf.AllowNonSelectExec), cleanup
}

func samplesFromLog(db *logstore.Database) []model.Sample {
	records, err := db.GetTrainableRecords()
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to load training records: %s", err)
	}
	samples := make([]model.Sample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, model.Sample{
			Query:    rec.CandidateQuery,
			TimeMs:   rec.MeasuredTimeMs.Value,
			Measured: rec.MeasuredTimeMs.Valid,
		})
	}
	return samples
}

func loadSamplesFile(path string) []model.Sample {
	data, err := os.ReadFile(path)
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to read samples file: %s", err)
	}
	var samples []model.Sample
	if err := msgpack.Unmarshal(data, &samples); err != nil {
		fail(exitErrorGeneralFailure, "failed to decode samples file: %s", err)
	}
	return samples
}

func runActionOptimize(conf *cnf.Conf, query string) {
	if query == "" {
		fail(exitErrorGeneralFailure, "no query provided")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	est, cleanup := newEstimator(conf)
	defer cleanup()
	var logDB *logstore.Database
	if conf.LogDBPath != "" {
		logDB = openLogDB(conf)
		defer logDB.Close()
	}
	gen := candidate.NewGenerator(conf.MaxCandidates, conf.RowLimit)
	ranker := ranking.NewRanker(gen, est, logDB)

	res, err := ranker.Rank(ctx, query)
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to optimize query: %s", err)
	}
	ranking.PrintResult(os.Stdout, res)
}

func runActionEstimate(conf *cnf.Conf, query string) {
	if query == "" {
		fail(exitErrorGeneralFailure, "no query provided")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	est, cleanup := newEstimator(conf)
	defer cleanup()

	result, err := est.Estimate(ctx, query)
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to estimate query: %s", err)
	}
	ans := struct {
		Query    string            `json:"query"`
		Features features.Vector   `json:"features"`
		Estimate estimate.Estimate `json:"estimate"`
	}{
		Query:    query,
		Features: features.Extract(query),
		Estimate: result,
	}
	out, err := json.MarshalIndent(ans, "", "  ")
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to serialize the estimate: %s", err)
	}
	fmt.Println(string(out))
}

func runActionTrain(conf *cnf.Conf, samplesPath, outPath string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var samples []model.Sample
	if samplesPath != "" {
		samples = loadSamplesFile(samplesPath)

	} else {
		db := openLogDB(conf)
		defer db.Close()
		samples = samplesFromLog(db)
	}
	rand.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
	numHoldout := int(float64(len(samples)) * trainHoldoutRatio)
	holdout := samples[:numHoldout]
	training := samples[numHoldout:]

	log.Info().
		Int("numTraining", len(training)).
		Int("numHoldout", len(holdout)).
		Str("modelType", conf.ModelType).
		Msg("about to train a cost model")

	state, err := model.Train(
		ctx,
		model.TrainConf{
			ModelType:          conf.ModelType,
			MinTrainingSamples: conf.MinTrainingSamples,
		},
		training,
	)
	if err != nil {
		fail(exitErrorTrainingFailed, "training failed: %s", err)
	}

	if len(holdout) > 0 {
		report, err := model.Evaluate(state, holdout)
		if err != nil {
			fail(exitErrorTrainingFailed, "failed to evaluate the trained model: %s", err)
		}
		log.Info().
			Int("numSamples", report.NumSamples).
			Float64("mae", report.MAE).
			Float64("rmse", report.RMSE).
			Float64("r2", report.R2).
			Msg("holdout evaluation")
	}

	dstPath := outPath
	if dstPath == "" {
		dstPath = conf.ModelPath
	}
	if dstPath == "" {
		fail(exitErrorTrainingFailed, "no output path for the trained model (use -out or modelPath)")
	}
	if err := model.SaveToFile(state, dstPath); err != nil {
		fail(exitErrorTrainingFailed, "failed to save the trained model: %s", err)
	}
	fmt.Printf("trained model: %s\nsaved to %s\n", state.Info(), dstPath)
}

func runActionEvaluate(conf *cnf.Conf, modelPath, samplesPath string) {
	state, err := model.LoadFromFile(modelPath)
	if err != nil {
		fail(exitErrorFailedToLoadModel, "failed to load model: %s", err)
	}

	var samples []model.Sample
	if samplesPath != "" {
		samples = loadSamplesFile(samplesPath)

	} else {
		db := openLogDB(conf)
		defer db.Close()
		samples = samplesFromLog(db)
	}
	measured := make([]model.Sample, 0, len(samples))
	for _, smp := range samples {
		if smp.Measured {
			measured = append(measured, smp)
		}
	}
	if len(measured) == 0 {
		fail(exitErrorGeneralFailure, "no measured samples to evaluate on")
	}

	bar := progressbar.Default(int64(len(measured)), "evaluating the model")
	var residAbs, residSq, sumActual float64
	actual := make([]float64, 0, len(measured))
	for _, smp := range measured {
		pred, err := model.Predict(state, smp.Query)
		if err != nil {
			fail(exitErrorGeneralFailure, "prediction failed: %s", err)
		}
		residAbs += math.Abs(pred - smp.TimeMs)
		residSq += (pred - smp.TimeMs) * (pred - smp.TimeMs)
		sumActual += smp.TimeMs
		actual = append(actual, smp.TimeMs)
		bar.Add(1)
	}
	n := float64(len(measured))
	mean := sumActual / n
	var totalSq float64
	for _, v := range actual {
		totalSq += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if totalSq > 0 {
		r2 = 1 - residSq/totalSq
	}
	fmt.Printf("model: %s\n", state.Info())
	fmt.Printf("samples: %d\nMAE: %.3f ms\nRMSE: %.3f ms\nR2: %.3f\n",
		len(measured), residAbs/n, math.Sqrt(residSq/n), r2)
}

func runActionExport(conf *cnf.Conf, dstPath string) {
	if dstPath == "" {
		fail(exitErrorGeneralFailure, "no output file provided")
	}
	db := openLogDB(conf)
	defer db.Close()
	samples := samplesFromLog(db)

	srz, err := msgpack.Marshal(samples)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to serialize training samples")
		return
	}
	file, err := os.Create(dstPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", dstPath).Msg("failed to save training samples to a file")
		return
	}
	defer file.Close()
	if _, err := file.Write(srz); err != nil {
		log.Fatal().Err(err).Str("file", dstPath).Msg("failed to save training samples to a file")
		return
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), dstPath)
}

func runActionServer(conf *cnf.Conf, version apiserver.VersionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	est, cleanup := newEstimator(conf)
	defer cleanup()
	var logDB *logstore.Database
	if conf.LogDBPath != "" {
		logDB = openLogDB(conf)
		defer logDB.Close()
	}
	gen := candidate.NewGenerator(conf.MaxCandidates, conf.RowLimit)
	ranker := ranking.NewRanker(gen, est, logDB)

	apiserver.Run(ctx, conf, version, ranker, est, logDB)
}

func shortenQuery(q string) string {
	if len(q) > 60 {
		return q[:57] + "..."
	}
	return q
}

func runActionHistory(conf *cnf.Conf, query string, limit int) {
	db := openLogDB(conf)
	defer db.Close()

	table := tablewriter.NewTable(os.Stdout)
	if query != "" {
		matches, err := db.FindSimilar(query, limit)
		if err != nil {
			fail(exitErrorGeneralFailure, "failed to search the query log: %s", err)
		}
		table.Header([]string{"datetime", "distance", "strategy", "source", "best cost", "query"})
		for _, m := range matches.Items() {
			table.Append([]string{
				time.Unix(m.Record.Datetime, 0).Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%d", m.Distance),
				m.Record.Strategy,
				m.Record.Source,
				fmt.Sprintf("%.2f", m.Record.BestCost),
				shortenQuery(m.Record.CandidateQuery),
			})
		}
		table.Render()
		if avg := matches.AvgMeasuredTime(); avg > 0 {
			fmt.Printf("avg measured time of similar queries: %.2f ms\n", avg)
		}
		return
	}

	records, err := db.GetAllRecords(logstore.ListFilter{}.SetLimit(limit))
	if err != nil {
		fail(exitErrorGeneralFailure, "failed to load the query log: %s", err)
	}
	table.Header([]string{"datetime", "strategy", "source", "best cost", "query"})
	for _, rec := range records {
		table.Append([]string{
			time.Unix(rec.Datetime, 0).Format("2006-01-02 15:04:05"),
			rec.Strategy,
			rec.Source,
			fmt.Sprintf("%.2f", rec.BestCost),
			shortenQuery(rec.CandidateQuery),
		})
	}
	table.Render()
}
