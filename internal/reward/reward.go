// Package reward converts downstream quality signals (judge scores, human
// ratings) into the scalar reward in [0,1] consumed by the policy updater.
package reward

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/draftstudio/engine/internal/store"
)

// #region config

// Config holds the aggregation constants.
type Config struct {
	AutoConfidenceMin float64 // judge records below this confidence are ignored
	RatingsForFull    float64 // rating count at which human confidence saturates
	Neutral           float64 // reward when no signal exists
}

// DefaultConfig returns the production aggregation constants.
func DefaultConfig() Config {
	return Config{
		AutoConfidenceMin: 0.5,
		RatingsForFull:    3.0,
		Neutral:           0.5,
	}
}

// Composite dimension weights, shared with the reranker.
const (
	WeightOverall     = 0.35
	WeightHook        = 0.20
	WeightOriginality = 0.15
	WeightStyleFit    = 0.15
	WeightSafety      = 0.15
)

// #endregion config

// #region source

// Source is the slice of the store the aggregator reads.
type Source interface {
	GetItem(id string) (store.Item, error)
	GetAutoScore(itemID string) (*store.AutoScore, error)
}

// #endregion source

// #region aggregator

// Aggregator computes rewards from stored quality signals.
type Aggregator struct {
	src    Source
	config Config
}

// NewAggregator creates an Aggregator reading from src.
func NewAggregator(src Source, config Config) *Aggregator {
	return &Aggregator{src: src, config: config}
}

// #endregion aggregator

// #region item-reward

// ItemReward computes the confidence-weighted reward for one generated
// item. With neither a usable auto-score nor any human rating it returns
// the neutral reward.
func (a *Aggregator) ItemReward(itemID string) (float64, error) {
	type component struct {
		value      float64
		confidence float64
	}
	var components []component

	auto, err := a.src.GetAutoScore(itemID)
	if err != nil {
		return 0, fmt.Errorf("item reward %s: %w", itemID, err)
	}
	if auto != nil && auto.Confidence >= a.config.AutoConfidenceMin && autoScoreValid(*auto) {
		components = append(components, component{
			value:      AutoComposite(*auto),
			confidence: auto.Confidence,
		})
	}

	it, err := a.src.GetItem(itemID)
	if err != nil {
		return 0, fmt.Errorf("item reward %s: %w", itemID, err)
	}
	if it.RatingsCount > 0 && it.ScoreOverall != nil {
		components = append(components, component{
			value:      *it.ScoreOverall / 5.0,
			confidence: math.Min(1.0, float64(it.RatingsCount)/a.config.RatingsForFull),
		})
	}

	if len(components) == 0 {
		return a.config.Neutral, nil
	}

	var weighted, totalConf float64
	for _, c := range components {
		weighted += c.value * c.confidence
		totalConf += c.confidence
	}
	return clamp01(weighted / totalConf), nil
}

// #endregion item-reward

// #region batch-reward

// BatchReward is the arithmetic mean of per-item rewards across a
// generation batch. An empty batch yields the neutral reward.
func (a *Aggregator) BatchReward(itemIDs []string) (float64, error) {
	if len(itemIDs) == 0 {
		return a.config.Neutral, nil
	}
	rewards := make([]float64, len(itemIDs))
	for i, id := range itemIDs {
		r, err := a.ItemReward(id)
		if err != nil {
			return 0, err
		}
		rewards[i] = r
	}
	return clamp01(stat.Mean(rewards, nil)), nil
}

// #endregion batch-reward

// #region composite

// AutoComposite blends the judge's five dimensions into [0,1].
func AutoComposite(a store.AutoScore) float64 {
	composite := WeightOverall*a.Overall +
		WeightHook*a.Hook +
		WeightOriginality*a.Originality +
		WeightStyleFit*a.StyleFit +
		WeightSafety*a.Safety
	return clamp01(composite / 5.0)
}

// autoScoreValid rejects records with dimensions outside 1-5 or confidence
// outside 0-1; externally-sourced numbers are validated before entering
// any score combination.
func autoScoreValid(a store.AutoScore) bool {
	for _, v := range []float64{a.Overall, a.Hook, a.Originality, a.StyleFit, a.Safety} {
		if v < 1 || v > 5 {
			return false
		}
	}
	return a.Confidence >= 0 && a.Confidence <= 1
}

// #endregion composite

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
