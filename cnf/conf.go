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

package cnf

import (
	"encoding/json"
	"os"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/sqlizer/features"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerWriteTimeoutSecs = 30
	dfltServerReadTimeoutSecs  = 30
	dfltTimeZone               = "Europe/Prague"
	dfltMaxCandidates          = 8
	dfltRowLimit               = 1000
	dfltMinTrainingSamples     = 20
	dfltModelType              = "linear"
	dfltBackendTimeoutSecs     = 60
)

type Conf struct {
	srcPath                string
	Logging                logging.LoggingConf `json:"logging"`
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string            `json:"corsAllowedOrigins"`
	TimeZone               string              `json:"timeZone"`

	// LogDBPath is a path to the sqlite database with evaluated queries
	LogDBPath string `json:"logDbPath"`

	// BackendDSN is a PostgreSQL connection string. When empty, the
	// measured and planner cost tiers are unavailable.
	BackendDSN string `json:"backendDsn"`

	BackendTimeoutSecs int `json:"backendTimeoutSecs"`

	// AllowNonSelectExec enables actual execution (under a rolled-back
	// transaction) of non-SELECT statements. Otherwise such statements
	// are only planned.
	AllowNonSelectExec bool `json:"allowNonSelectExec"`

	MaxCandidates int `json:"maxCandidates"`

	// RowLimit is the LIMIT value injected by the limit-inject rewrite
	RowLimit int `json:"rowLimit"`

	MinTrainingSamples int `json:"minTrainingSamples"`

	// ModelType is one of: linear, rf, nn
	ModelType string `json:"modelType"`

	// ModelPath points to a trained model file (may not exist yet)
	ModelPath string `json:"modelPath"`

	// Heuristic allows overriding the built-in heuristic cost weights
	Heuristic features.HeuristicWeights `json:"heuristic"`
}

func (conf *Conf) GetSourcePath() string {
	return conf.srcPath
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func ValidateAndDefaults(conf *Conf) {
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
	}
	if conf.TimeZone == "" {
		conf.TimeZone = dfltTimeZone
		log.Warn().
			Str("timeZone", dfltTimeZone).
			Msg("time zone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		log.Fatal().Err(err).Msg("invalid time zone")
	}
	if conf.MaxCandidates == 0 {
		conf.MaxCandidates = dfltMaxCandidates
		log.Warn().Msgf(
			"maxCandidates not specified, using default: %d", dfltMaxCandidates)
	}
	if conf.RowLimit == 0 {
		conf.RowLimit = dfltRowLimit
		log.Warn().Msgf("rowLimit not specified, using default: %d", dfltRowLimit)
	}
	if conf.MinTrainingSamples == 0 {
		conf.MinTrainingSamples = dfltMinTrainingSamples
		log.Warn().Msgf(
			"minTrainingSamples not specified, using default: %d", dfltMinTrainingSamples)
	}
	if conf.ModelType == "" {
		conf.ModelType = dfltModelType
		log.Warn().Msgf("modelType not specified, using default: %s", dfltModelType)
	}
	if conf.BackendTimeoutSecs == 0 {
		conf.BackendTimeoutSecs = dfltBackendTimeoutSecs
	}
	if conf.Heuristic.IsZero() {
		conf.Heuristic = features.DefaultHeuristicWeights()
		log.Warn().Msg("heuristic weights not specified, using defaults")
	}
	if conf.LogDBPath == "" {
		log.Warn().Msg("logDbPath not specified, query logging and training disabled")
	}
	if conf.BackendDSN == "" {
		log.Warn().Msg("backendDsn not specified, measured and planner costs unavailable")
	}
}
