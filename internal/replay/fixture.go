// Package replay re-runs recorded reward sequences through the selection
// and policy-update pipeline, entirely in memory, so learning behavior can
// be audited deterministically.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/draftstudio/engine/internal/store"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string         `json:"description"`
	Persona     string         `json:"persona"`
	ContentType string         `json:"content_type"`
	Seed        int64          `json:"seed"`
	StartPolicy *FixturePolicy `json:"start_policy,omitempty"`
	Rewards     []float64      `json:"rewards"`
	Expected    *Expected      `json:"expected,omitempty"`
}

// FixturePolicy is the JSON-serializable starting policy.
type FixturePolicy struct {
	SemanticWeight  float64 `json:"semantic_weight"`
	LexicalWeight   float64 `json:"lexical_weight"`
	QualityWeight   float64 `json:"quality_weight"`
	FreshnessWeight float64 `json:"freshness_weight"`

	TempLow  float64 `json:"temp_low"`
	TempMid  float64 `json:"temp_mid"`
	TempHigh float64 `json:"temp_high"`

	SuccessRate      float64 `json:"success_rate"`
	TotalGenerations int     `json:"total_generations"`
}

// Expected captures the assertions checked after the run.
type Expected struct {
	FinalSuccessRate *float64 `json:"final_success_rate,omitempty"`
	TotalGenerations *int     `json:"total_generations,omitempty"`
	FinalPhase       string   `json:"final_phase,omitempty"`
	Tolerance        float64  `json:"tolerance"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Persona == "" || f.ContentType == "" {
		return nil, fmt.Errorf("fixture %s: persona and content_type are required", path)
	}
	return &f, nil
}

// ToPolicy converts a FixturePolicy to a domain Policy for the segment.
func (fp *FixturePolicy) ToPolicy(key store.SegmentKey) store.Policy {
	return store.Policy{
		Persona:          key.Persona,
		ContentType:      key.ContentType,
		SemanticWeight:   fp.SemanticWeight,
		LexicalWeight:    fp.LexicalWeight,
		QualityWeight:    fp.QualityWeight,
		FreshnessWeight:  fp.FreshnessWeight,
		TempLow:          fp.TempLow,
		TempMid:          fp.TempMid,
		TempHigh:         fp.TempHigh,
		SuccessRate:      fp.SuccessRate,
		TotalGenerations: fp.TotalGenerations,
	}
}

// #endregion fixture-loader
