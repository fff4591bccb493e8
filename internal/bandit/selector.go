package bandit

import (
	"math"
	"math/rand"

	"github.com/draftstudio/engine/internal/store"
)

// #region stats

// Stats holds per-arm play counts and cumulative rewards for one segment.
// It is a plain value reconstructed from persisted aggregates on every
// selection, so the selector stays a pure function and concurrent requests
// never share mutable bandit state.
type Stats struct {
	Counts  map[string]int
	Rewards map[string]float64
}

// NewStats returns zeroed stats for a catalog.
func NewStats(catalog []Arm) Stats {
	s := Stats{
		Counts:  make(map[string]int, len(catalog)),
		Rewards: make(map[string]float64, len(catalog)),
	}
	for _, arm := range catalog {
		s.Counts[arm.Name] = 0
		s.Rewards[arm.Name] = 0
	}
	return s
}

// Seed initializes stats from a persisted policy: the arm whose weight
// vector matches the policy within tolerance inherits the segment's
// aggregate count and reward mass; unmatched arms start at zero.
func Seed(catalog []Arm, policy *store.Policy, tolerance float64) Stats {
	s := NewStats(catalog)
	if policy == nil {
		return s
	}
	for _, arm := range catalog {
		if arm.MatchesPolicy(*policy, tolerance) {
			s.Counts[arm.Name] = policy.TotalGenerations
			s.Rewards[arm.Name] = policy.SuccessRate * float64(policy.TotalGenerations)
			break
		}
	}
	return s
}

// Observe folds one reward into the stats.
func (s Stats) Observe(arm Arm, reward float64) {
	s.Counts[arm.Name]++
	s.Rewards[arm.Name] += reward
}

// Total returns total plays across all arms.
func (s Stats) Total() int {
	sum := 0
	for _, c := range s.Counts {
		sum += c
	}
	return sum
}

// #endregion stats

// #region epsilon

// EpsilonAt computes the decayed exploration rate after totalPlays plays.
// Never below the configured floor.
func EpsilonAt(cfg Config, totalPlays int) float64 {
	eps := cfg.Epsilon * math.Pow(cfg.DecayRate, float64(totalPlays))
	return math.Max(cfg.MinEpsilon, eps)
}

// #endregion epsilon

// #region select

// Select picks an arm with epsilon-greedy exploration over a UCB1 exploit
// rule. rng is injected so tests can assert exact selection sequences.
func Select(catalog []Arm, stats Stats, cfg Config, rng *rand.Rand) Selection {
	epsilon := EpsilonAt(cfg, stats.Total())

	if rng.Float64() < epsilon {
		return Selection{
			Arm:     catalog[rng.Intn(len(catalog))],
			Mode:    ModeExplore,
			Epsilon: epsilon,
		}
	}
	return Selection{
		Arm:     exploitUCB(catalog, stats),
		Mode:    ModeExploit,
		Epsilon: epsilon,
	}
}

// exploitUCB returns the best arm under UCB1. Unplayed arms are picked
// unconditionally, in catalog order, before any confidence bound is
// computed.
func exploitUCB(catalog []Arm, stats Stats) Arm {
	total := stats.Total()
	if total == 0 {
		return catalog[0]
	}

	best := catalog[0]
	bestScore := math.Inf(-1)
	for _, arm := range catalog {
		count := stats.Counts[arm.Name]
		if count == 0 {
			return arm
		}
		mean := stats.Rewards[arm.Name] / float64(count)
		confidence := math.Sqrt(2 * math.Log(float64(total)) / float64(count))
		if score := mean + confidence; score > bestScore {
			bestScore = score
			best = arm
		}
	}
	return best
}

// #endregion select

// #region phase

// Phase derives the segment's lifecycle view from accumulated plays:
// warming while any arm is unplayed or epsilon sits above its floor,
// converging once UCB has real counts everywhere and exploration has
// bottomed out. Read-only; computed, never stored.
func Phase(catalog []Arm, stats Stats, cfg Config) string {
	for _, arm := range catalog {
		if stats.Counts[arm.Name] == 0 {
			return PhaseWarming
		}
	}
	if EpsilonAt(cfg, stats.Total()) > cfg.MinEpsilon {
		return PhaseWarming
	}
	return PhaseConverging
}

// #endregion phase
