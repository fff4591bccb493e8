// Package rerank orders generated candidates by a fixed-weight composite of
// quality dimensions, falling back to neutral scores when no signal exists.
package rerank

import (
	"fmt"
	"sort"

	"github.com/draftstudio/engine/internal/reward"
	"github.com/draftstudio/engine/internal/store"
)

// #region types

const (
	// neutralScore stands in for any missing 1-5 dimension.
	neutralScore = 3.0
	// minConfidence gates judge records, matching the reward aggregator.
	minConfidence = 0.5
)

// Ranked is one candidate with its composite score on the 1-5 scale.
type Ranked struct {
	ItemID    string
	Composite float64
}

// Source is the slice of the store the reranker reads.
type Source interface {
	GetItem(id string) (store.Item, error)
	GetAutoScore(itemID string) (*store.AutoScore, error)
}

// #endregion types

// #region reranker

// Reranker orders generated items by composite quality.
type Reranker struct {
	src Source
}

// NewReranker creates a Reranker reading from src.
func NewReranker(src Source) *Reranker {
	return &Reranker{src: src}
}

// Rank returns the items ordered by composite descending. Ties keep
// insertion order.
func (r *Reranker) Rank(itemIDs []string) ([]Ranked, error) {
	ranked := make([]Ranked, len(itemIDs))
	for i, id := range itemIDs {
		composite, err := r.composite(id)
		if err != nil {
			return nil, fmt.Errorf("rerank %s: %w", id, err)
		}
		ranked[i] = Ranked{ItemID: id, Composite: composite}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Composite > ranked[b].Composite
	})
	return ranked, nil
}

// Best returns the highest-ranked item ID, or "" for an empty batch.
func (r *Reranker) Best(itemIDs []string) (string, error) {
	ranked, err := r.Rank(itemIDs)
	if err != nil || len(ranked) == 0 {
		return "", err
	}
	return ranked[0].ItemID, nil
}

// #endregion reranker

// #region composite

// composite prefers a confident judge record, then human aggregates with a
// neutral 3.0 per missing dimension, then plain neutral.
func (r *Reranker) composite(itemID string) (float64, error) {
	auto, err := r.src.GetAutoScore(itemID)
	if err != nil {
		return 0, err
	}
	if auto != nil && auto.Confidence >= minConfidence {
		return reward.WeightOverall*auto.Overall +
			reward.WeightHook*auto.Hook +
			reward.WeightOriginality*auto.Originality +
			reward.WeightStyleFit*auto.StyleFit +
			reward.WeightSafety*auto.Safety, nil
	}

	it, err := r.src.GetItem(itemID)
	if err != nil {
		return 0, err
	}
	if it.RatingsCount > 0 {
		return reward.WeightOverall*orNeutral(it.ScoreOverall) +
			reward.WeightHook*orNeutral(it.ScoreHook) +
			reward.WeightOriginality*orNeutral(it.ScoreOriginality) +
			reward.WeightStyleFit*orNeutral(it.ScoreStyleFit) +
			reward.WeightSafety*orNeutral(it.ScoreSafety), nil
	}

	return neutralScore, nil
}

func orNeutral(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	return *v
}

// #endregion composite
