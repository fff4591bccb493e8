package bandit

import "github.com/draftstudio/engine/internal/store"

// #region arm

// Arm is one immutable, named parameter configuration evaluated by the
// bandit: a retrieval weight vector plus a generation temperature schedule.
type Arm struct {
	Name string

	SemanticWeight  float64
	LexicalWeight   float64
	QualityWeight   float64
	FreshnessWeight float64

	TempLow  float64
	TempMid  float64
	TempHigh float64
}

// NewArm builds an arm with its weight vector normalized to sum to 1.
func NewArm(name string, semantic, lexical, quality, freshness, tempLow, tempMid, tempHigh float64) Arm {
	total := semantic + lexical + quality + freshness
	if total != 0 && total != 1.0 {
		semantic /= total
		lexical /= total
		quality /= total
		freshness /= total
	}
	return Arm{
		Name:            name,
		SemanticWeight:  semantic,
		LexicalWeight:   lexical,
		QualityWeight:   quality,
		FreshnessWeight: freshness,
		TempLow:         tempLow,
		TempMid:         tempMid,
		TempHigh:        tempHigh,
	}
}

// Weights returns the arm's retrieval weights in signal order.
func (a Arm) Weights() [4]float64 {
	return [4]float64{a.SemanticWeight, a.LexicalWeight, a.QualityWeight, a.FreshnessWeight}
}

// MatchesPolicy reports whether every weight component of the persisted
// policy is within tolerance of this arm's.
func (a Arm) MatchesPolicy(p store.Policy, tolerance float64) bool {
	return abs(a.SemanticWeight-p.SemanticWeight) < tolerance &&
		abs(a.LexicalWeight-p.LexicalWeight) < tolerance &&
		abs(a.QualityWeight-p.QualityWeight) < tolerance &&
		abs(a.FreshnessWeight-p.FreshnessWeight) < tolerance
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion arm

// #region config

// Config holds the exploration schedule and seeding tolerance.
type Config struct {
	Epsilon    float64 // initial exploration rate
	DecayRate  float64 // per-play multiplicative epsilon decay
	MinEpsilon float64 // exploration floor
	Tolerance  float64 // per-component weight tolerance for policy seeding
}

// DefaultConfig returns the production exploration schedule.
func DefaultConfig() Config {
	return Config{
		Epsilon:    0.15,
		DecayRate:  0.99,
		MinEpsilon: 0.05,
		Tolerance:  0.05,
	}
}

// #endregion config

// #region selection

// Selection modes.
const (
	ModeExplore = "explore"
	ModeExploit = "exploit"
)

// Lifecycle phases derived from accumulated plays; never persisted.
const (
	PhaseWarming    = "warming"
	PhaseConverging = "converging"
)

// Selection is the outcome of one arm pick.
type Selection struct {
	Arm     Arm
	Mode    string  // explore | exploit
	Epsilon float64 // epsilon used for this pick
}

// #endregion selection
