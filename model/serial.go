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

package model

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type jsonizedState struct {
	SchemaVersion string          `json:"schemaVersion"`
	ModelType     string          `json:"modelType"`
	Features      []string        `json:"features"`
	SampleCount   int             `json:"sampleCount"`
	TrainedAt     time.Time       `json:"trainedAt"`
	Regressor     json.RawMessage `json:"regressor"`
}

// SaveToFile stores a trained state as a single JSON document. The
// regressor serializes itself into a nested raw message so each model
// type controls its own payload shape.
func SaveToFile(state *State, filePath string) error {
	if state == nil || state.regressor == nil {
		return ErrEmptyState
	}
	regJSON, err := json.Marshal(state.regressor)
	if err != nil {
		return fmt.Errorf("failed to save model to a file: %w", err)
	}
	tmpState := jsonizedState{
		SchemaVersion: state.SchemaVersion,
		ModelType:     state.ModelType,
		Features:      state.Features,
		SampleCount:   state.SampleCount,
		TrainedAt:     state.TrainedAt,
		Regressor:     regJSON,
	}
	data, err := json.Marshal(tmpState)
	if err != nil {
		return fmt.Errorf("failed to save model to a file: %w", err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to save model to a file: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to save model to a file: %w", err)
	}
	return nil
}

// LoadFromFile restores a previously saved state. Files with a .gz or
// .gzip suffix are decompressed transparently.
func LoadFromFile(filePath string) (*State, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(filePath, ".gz") || strings.HasSuffix(filePath, ".gzip") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from file: %w", err)
	}
	var tmpState jsonizedState
	if err := json.Unmarshal(data, &tmpState); err != nil {
		return nil, fmt.Errorf("failed to load model from file: %w", err)
	}
	reg, err := GetRegressor(tmpState.ModelType)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from file: %w", err)
	}
	if err := json.Unmarshal(tmpState.Regressor, reg); err != nil {
		return nil, fmt.Errorf("failed to load model from file: %w", err)
	}
	return &State{
		SchemaVersion: tmpState.SchemaVersion,
		ModelType:     tmpState.ModelType,
		Features:      tmpState.Features,
		SampleCount:   tmpState.SampleCount,
		TrainedAt:     tmpState.TrainedAt,
		regressor:     reg,
	}, nil
}
