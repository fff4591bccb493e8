package update

import (
	"errors"
	"math"
	"testing"

	"github.com/draftstudio/engine/internal/bandit"
	"github.com/draftstudio/engine/internal/store"
)

func testKey() store.SegmentKey {
	return store.SegmentKey{Persona: "luna", ContentType: "talking_style"}
}

func balancedArm() bandit.Arm {
	return bandit.Catalog()[0]
}

func creativeArm() bandit.Arm {
	for _, arm := range bandit.Catalog() {
		if arm.Name == "creative" {
			return arm
		}
	}
	panic("creative arm missing")
}

func weightSum(p store.Policy) float64 {
	w := p.Weights()
	return w[0] + w[1] + w[2] + w[3]
}

// #region apply-create

func TestApplyCreatesFromArm(t *testing.T) {
	arm := creativeArm()
	res := Apply(nil, testKey(), arm, 0.9, DefaultConfig())

	if !res.Created {
		t.Fatal("expected created result")
	}
	if res.Nudged {
		t.Fatal("creation must not nudge: the baseline was just set from this reward")
	}
	p := res.Policy
	if p.SemanticWeight != arm.SemanticWeight || p.TempHigh != arm.TempHigh {
		t.Fatalf("policy should copy arm parameters, got %+v", p)
	}
	if p.SuccessRate != 0.9 || p.TotalGenerations != 1 {
		t.Fatalf("stats = %v/%d, want 0.9/1", p.SuccessRate, p.TotalGenerations)
	}
	if math.Abs(weightSum(p)-1.0) > 1e-9 {
		t.Fatalf("weights sum = %v, want 1", weightSum(p))
	}
}

// #endregion apply-create

// #region apply-ema

func TestApplyEMAWithNudge(t *testing.T) {
	existing := store.DefaultPolicy(testKey())
	existing.SuccessRate = 0.6
	existing.TotalGenerations = 10

	arm := creativeArm()
	res := Apply(&existing, testKey(), arm, 0.9, DefaultConfig())

	if res.Created {
		t.Fatal("unexpected created result")
	}
	if !res.Nudged {
		t.Fatal("reward above baseline must nudge")
	}
	if math.Abs(res.PrevSuccess-0.6) > 1e-9 {
		t.Fatalf("prev success = %v, want 0.6", res.PrevSuccess)
	}

	p := res.Policy
	// EMA: 0.9*0.6 + 0.1*0.9 = 0.63
	if math.Abs(p.SuccessRate-0.63) > 1e-9 {
		t.Fatalf("success rate = %v, want 0.63", p.SuccessRate)
	}
	if p.TotalGenerations != 11 {
		t.Fatalf("generations = %d, want 11", p.TotalGenerations)
	}

	// Temps pulled 5% toward the creative arm: 0.95*0.95 + 0.05*1.2 = 0.9625
	if math.Abs(p.TempHigh-0.9625) > 1e-9 {
		t.Fatalf("temp high = %v, want 0.9625", p.TempHigh)
	}
	if math.Abs(weightSum(p)-1.0) > 1e-9 {
		t.Fatalf("weights sum = %v, want 1", weightSum(p))
	}
}

func TestApplyNoNudgeBelowBaseline(t *testing.T) {
	existing := store.DefaultPolicy(testKey())
	existing.SuccessRate = 0.6
	existing.TotalGenerations = 10

	res := Apply(&existing, testKey(), creativeArm(), 0.5, DefaultConfig())
	if res.Nudged {
		t.Fatal("reward below baseline must not nudge")
	}
	p := res.Policy
	if math.Abs(p.SuccessRate-0.59) > 1e-9 {
		t.Fatalf("success rate = %v, want 0.59", p.SuccessRate)
	}
	if p.TempHigh != existing.TempHigh {
		t.Fatalf("temps must be untouched without a nudge, got %v", p.TempHigh)
	}
}

func TestApplyNoNudgeOnEqualReward(t *testing.T) {
	existing := store.DefaultPolicy(testKey())
	existing.SuccessRate = 0.7
	existing.TotalGenerations = 5

	res := Apply(&existing, testKey(), creativeArm(), 0.7, DefaultConfig())
	if res.Nudged {
		t.Fatal("strictly-greater comparison: equal reward must not nudge")
	}
}

func TestApplyClampsReward(t *testing.T) {
	res := Apply(nil, testKey(), balancedArm(), 1.7, DefaultConfig())
	if res.Reward != 1.0 || res.Policy.SuccessRate != 1.0 {
		t.Fatalf("reward = %v success = %v, want both clamped to 1", res.Reward, res.Policy.SuccessRate)
	}

	res = Apply(nil, testKey(), balancedArm(), -0.3, DefaultConfig())
	if res.Reward != 0 {
		t.Fatalf("reward = %v, want clamped to 0", res.Reward)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	existing := store.DefaultPolicy(testKey())
	existing.SuccessRate = 0.6
	before := existing

	Apply(&existing, testKey(), creativeArm(), 0.9, DefaultConfig())
	if existing != before {
		t.Fatal("Apply must not mutate the caller's policy")
	}
}

// Repeated nudges toward one arm converge the weights onto that arm.
func TestRepeatedNudgesConverge(t *testing.T) {
	key := testKey()
	arm := creativeArm()
	policy := store.DefaultPolicy(key)
	policy.SuccessRate = 0.1

	cfg := DefaultConfig()
	for i := 0; i < 400; i++ {
		res := Apply(&policy, key, arm, 0.95, cfg)
		policy = res.Policy
	}

	if math.Abs(policy.TempHigh-arm.TempHigh) > 0.01 {
		t.Fatalf("temp high = %v, want near %v", policy.TempHigh, arm.TempHigh)
	}
	if math.Abs(weightSum(policy)-1.0) > 1e-9 {
		t.Fatalf("weights sum = %v, want 1", weightSum(policy))
	}
}

// #endregion apply-ema

// #region updater

// fakePolicyStore injects version conflicts to exercise the retry loop.
type fakePolicyStore struct {
	policy    *store.Policy
	conflicts int
	updates   int
	inserts   int
}

func (f *fakePolicyStore) GetPolicy(key store.SegmentKey) (store.Policy, bool, error) {
	if f.policy == nil {
		return store.Policy{}, false, nil
	}
	return *f.policy, true, nil
}

func (f *fakePolicyStore) InsertPolicy(p store.Policy) error {
	f.inserts++
	p.Version = 1
	f.policy = &p
	return nil
}

func (f *fakePolicyStore) UpdatePolicy(p store.Policy) error {
	if f.conflicts > 0 {
		f.conflicts--
		return store.ErrVersionConflict
	}
	f.updates++
	p.Version++
	f.policy = &p
	return nil
}

func TestUpdaterCreatesPolicy(t *testing.T) {
	fake := &fakePolicyStore{}
	u := NewUpdater(fake, DefaultConfig())

	res, err := u.ApplyReward(testKey(), balancedArm(), 0.8)
	if err != nil {
		t.Fatalf("ApplyReward: %v", err)
	}
	if !res.Created || fake.inserts != 1 {
		t.Fatalf("expected one insert, got created=%t inserts=%d", res.Created, fake.inserts)
	}
}

func TestUpdaterRetriesOnConflict(t *testing.T) {
	p := store.DefaultPolicy(testKey())
	p.SuccessRate = 0.5
	p.TotalGenerations = 3
	fake := &fakePolicyStore{policy: &p, conflicts: 2}

	u := NewUpdater(fake, DefaultConfig())
	res, err := u.ApplyReward(testKey(), balancedArm(), 0.9)
	if err != nil {
		t.Fatalf("ApplyReward after retries: %v", err)
	}
	if fake.updates != 1 {
		t.Fatalf("updates = %d, want 1", fake.updates)
	}
	if math.Abs(res.Policy.SuccessRate-0.54) > 1e-9 {
		t.Fatalf("success rate = %v, want 0.54", res.Policy.SuccessRate)
	}
}

func TestUpdaterGivesUpAfterMaxAttempts(t *testing.T) {
	p := store.DefaultPolicy(testKey())
	fake := &fakePolicyStore{policy: &p, conflicts: 100}

	u := NewUpdater(fake, DefaultConfig())
	_, err := u.ApplyReward(testKey(), balancedArm(), 0.9)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected wrapped ErrVersionConflict, got %v", err)
	}
}

func TestUpdaterRejectsBadKey(t *testing.T) {
	u := NewUpdater(&fakePolicyStore{}, DefaultConfig())
	if _, err := u.ApplyReward(store.SegmentKey{}, balancedArm(), 0.5); err == nil {
		t.Fatal("expected error for empty segment key")
	}
}

// #endregion updater
