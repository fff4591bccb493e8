// Package update folds observed rewards back into persisted policies:
// an EMA on the segment's success rate plus a hill-climbing nudge of the
// live weights toward arms that beat the running baseline.
package update

import (
	"errors"
	"fmt"
	"log"

	"github.com/draftstudio/engine/internal/bandit"
	"github.com/draftstudio/engine/internal/store"
)

// #region config

// Config holds the update constants.
type Config struct {
	EMAAlpha    float64 // learning rate for the success-rate EMA
	Shift       float64 // fraction moved toward an outperforming arm
	MaxAttempts int     // optimistic-write retries before giving up
}

// DefaultConfig returns the production update constants.
func DefaultConfig() Config {
	return Config{
		EMAAlpha:    0.1,
		Shift:       0.05,
		MaxAttempts: 3,
	}
}

// #endregion config

// #region result

// Result describes one applied policy update.
type Result struct {
	Policy      store.Policy
	Created     bool    // policy row did not exist before
	Nudged      bool    // weights/temps were shifted toward the arm
	PrevSuccess float64 // success rate before the EMA step
	Reward      float64 // reward after clamping
}

// #endregion result

// #region apply

// Apply is a pure function computing the next policy from the current one,
// the played arm, and the observed reward. Rewards are clamped to [0,1]
// before use and the returned weight vector always sums to 1.
//
// With no existing policy the arm's parameters become the policy directly
// (success rate = reward, one generation); no nudge applies on creation
// since the baseline was just set from this same reward.
func Apply(existing *store.Policy, key store.SegmentKey, arm bandit.Arm, reward float64, cfg Config) Result {
	reward = clamp01(reward)

	if existing == nil {
		p := store.Policy{
			Persona:          key.Persona,
			ContentType:      key.ContentType,
			SemanticWeight:   arm.SemanticWeight,
			LexicalWeight:    arm.LexicalWeight,
			QualityWeight:    arm.QualityWeight,
			FreshnessWeight:  arm.FreshnessWeight,
			TempLow:          arm.TempLow,
			TempMid:          arm.TempMid,
			TempHigh:         arm.TempHigh,
			SuccessRate:      reward,
			TotalGenerations: 1,
		}
		p.NormalizeWeights()
		return Result{Policy: p, Created: true, PrevSuccess: reward, Reward: reward}
	}

	p := *existing
	prev := p.SuccessRate
	p.SuccessRate = (1-cfg.EMAAlpha)*p.SuccessRate + cfg.EMAAlpha*reward
	p.TotalGenerations++

	nudged := false
	if reward > prev {
		// This arm beat the running baseline: pull the live policy toward it.
		s := cfg.Shift
		p.SemanticWeight = (1-s)*p.SemanticWeight + s*arm.SemanticWeight
		p.LexicalWeight = (1-s)*p.LexicalWeight + s*arm.LexicalWeight
		p.QualityWeight = (1-s)*p.QualityWeight + s*arm.QualityWeight
		p.FreshnessWeight = (1-s)*p.FreshnessWeight + s*arm.FreshnessWeight
		p.TempLow = (1-s)*p.TempLow + s*arm.TempLow
		p.TempMid = (1-s)*p.TempMid + s*arm.TempMid
		p.TempHigh = (1-s)*p.TempHigh + s*arm.TempHigh
		nudged = true
	}
	p.NormalizeWeights()

	return Result{Policy: p, Nudged: nudged, PrevSuccess: prev, Reward: reward}
}

// #endregion apply

// #region policy-store

// PolicyStore is the persistence surface the updater needs.
type PolicyStore interface {
	GetPolicy(key store.SegmentKey) (store.Policy, bool, error)
	InsertPolicy(p store.Policy) error
	UpdatePolicy(p store.Policy) error
}

// #endregion policy-store

// #region updater

// Updater persists policy updates with an optimistic-concurrency loop:
// read the row and its version, compute the next policy, write only if the
// version is unchanged, retry on conflict.
type Updater struct {
	policies PolicyStore
	config   Config
}

// NewUpdater creates an Updater over the given policy store.
func NewUpdater(policies PolicyStore, config Config) *Updater {
	return &Updater{policies: policies, config: config}
}

// ApplyReward folds a reward for the played arm into the segment's
// persisted policy.
func (u *Updater) ApplyReward(key store.SegmentKey, arm bandit.Arm, rewardValue float64) (Result, error) {
	if err := key.Validate(); err != nil {
		return Result{}, err
	}

	var lastErr error
	for attempt := 0; attempt < u.config.MaxAttempts; attempt++ {
		current, found, err := u.policies.GetPolicy(key)
		if err != nil {
			return Result{}, fmt.Errorf("apply reward %s: %w", key, err)
		}

		var existing *store.Policy
		if found {
			existing = &current
		}
		result := Apply(existing, key, arm, rewardValue, u.config)

		if result.Created {
			err = u.policies.InsertPolicy(result.Policy)
		} else {
			err = u.policies.UpdatePolicy(result.Policy)
		}
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return Result{}, fmt.Errorf("apply reward %s: %w", key, err)
		}
		lastErr = err
		log.Printf("[UPDATE] version conflict on %s (attempt %d), retrying", key, attempt+1)
	}
	return Result{}, fmt.Errorf("apply reward %s: retries exhausted: %w", key, lastErr)
}

// #endregion updater

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
