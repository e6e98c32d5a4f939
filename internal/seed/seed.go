// Package seed provides the bundled default dataset.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns a fresh copy of the bundled dataset.
func Default() (models.AppState, error) {
	return Parse(defaultYAML)
}

// MustDefault is Default for callers that cannot proceed without it.
func MustDefault() models.AppState {
	s, err := Default()
	if err != nil {
		panic(fmt.Sprintf("seed: bundled dataset is invalid: %v", err))
	}
	return s
}

// Parse decodes a YAML dataset. Field names follow the JSON wire names of the
// models, so the document is re-encoded through encoding/json after parsing.
func Parse(raw []byte) (models.AppState, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return models.AppState{}, fmt.Errorf("parsing dataset: %w", err)
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return models.AppState{}, fmt.Errorf("re-encoding dataset: %w", err)
	}
	var s models.AppState
	if err := json.Unmarshal(buf, &s); err != nil {
		return models.AppState{}, fmt.Errorf("decoding dataset: %w", err)
	}
	return s, nil
}
