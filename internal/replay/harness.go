package replay

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/draftstudio/engine/internal/bandit"
	"github.com/draftstudio/engine/internal/store"
	"github.com/draftstudio/engine/internal/update"
)

// #region types

// StepResult captures one replayed step: which arm the selector picked and
// what the reward did to the policy.
type StepResult struct {
	Step        int
	Arm         string
	Mode        string
	Epsilon     float64
	Reward      float64
	Nudged      bool
	SuccessRate float64
	Phase       string
}

// Summary aggregates a full replay run.
type Summary struct {
	TotalSteps  int
	Explores    int
	Exploits    int
	Nudges      int
	ArmCounts   map[string]int
	FinalPolicy store.Policy
	FinalPhase  string
}

// Config bundles the constants for a replay run.
type Config struct {
	Bandit bandit.Config
	Update update.Config
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Bandit: bandit.DefaultConfig(),
		Update: update.DefaultConfig(),
	}
}

// #endregion types

// #region replay

// Replay runs the reward sequence through select → apply → observe with a
// deterministic rng seeded from the fixture. Operates entirely in-memory.
func Replay(f *Fixture, cfg Config) ([]StepResult, Summary) {
	key := store.SegmentKey{Persona: f.Persona, ContentType: f.ContentType}
	catalog := bandit.Catalog()
	rng := rand.New(rand.NewSource(f.Seed))

	var policy *store.Policy
	if f.StartPolicy != nil {
		p := f.StartPolicy.ToPolicy(key)
		policy = &p
	}
	stats := bandit.Seed(catalog, policy, cfg.Bandit.Tolerance)

	results := make([]StepResult, 0, len(f.Rewards))
	summary := Summary{ArmCounts: make(map[string]int)}

	for i, r := range f.Rewards {
		sel := bandit.Select(catalog, stats, cfg.Bandit, rng)

		applied := update.Apply(policy, key, sel.Arm, r, cfg.Update)
		next := applied.Policy
		policy = &next

		stats.Observe(sel.Arm, applied.Reward)
		phase := bandit.Phase(catalog, stats, cfg.Bandit)

		results = append(results, StepResult{
			Step:        i + 1,
			Arm:         sel.Arm.Name,
			Mode:        sel.Mode,
			Epsilon:     sel.Epsilon,
			Reward:      applied.Reward,
			Nudged:      applied.Nudged,
			SuccessRate: next.SuccessRate,
			Phase:       phase,
		})

		summary.TotalSteps++
		summary.ArmCounts[sel.Arm.Name]++
		if sel.Mode == bandit.ModeExplore {
			summary.Explores++
		} else {
			summary.Exploits++
		}
		if applied.Nudged {
			summary.Nudges++
		}
	}

	if policy != nil {
		summary.FinalPolicy = *policy
	} else {
		summary.FinalPolicy = store.DefaultPolicy(key)
	}
	summary.FinalPhase = bandit.Phase(catalog, stats, cfg.Bandit)
	return results, summary
}

// #endregion replay

// #region verify

// Verify checks a run's summary against the fixture's expectations and
// returns the mismatches, empty when everything holds.
func Verify(f *Fixture, summary Summary) []string {
	if f.Expected == nil {
		return nil
	}
	tol := f.Expected.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}

	var mismatches []string
	if want := f.Expected.FinalSuccessRate; want != nil {
		if math.Abs(summary.FinalPolicy.SuccessRate-*want) > tol {
			mismatches = append(mismatches,
				fmt.Sprintf("final_success_rate: expected %.6f, got %.6f", *want, summary.FinalPolicy.SuccessRate))
		}
	}
	if want := f.Expected.TotalGenerations; want != nil {
		if summary.FinalPolicy.TotalGenerations != *want {
			mismatches = append(mismatches,
				fmt.Sprintf("total_generations: expected %d, got %d", *want, summary.FinalPolicy.TotalGenerations))
		}
	}
	if want := f.Expected.FinalPhase; want != "" && want != summary.FinalPhase {
		mismatches = append(mismatches,
			fmt.Sprintf("final_phase: expected %s, got %s", want, summary.FinalPhase))
	}
	return mismatches
}

// #endregion verify
