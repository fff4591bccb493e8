package retrieval

import (
	"errors"

	"github.com/draftstudio/engine/internal/store"
)

// #region config
// Config holds the scoring constants for hybrid retrieval.
type Config struct {
	TopK           int     // result count per request
	GlobalQuality  float64 // global mean quality on the 1-5 scale
	ShrinkageAlpha float64 // pseudo-count pulling sparse ratings toward the global mean
	FreshnessTau   float64 // freshness decay time constant, days
	MinCandidates  int     // below this the caller substitutes a fallback set
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		TopK:           6,
		GlobalQuality:  4.2,
		ShrinkageAlpha: 10.0,
		FreshnessTau:   28.0,
		MinCandidates:  3,
	}
}

// #endregion config

// #region errors

// ErrNoCandidates signals an empty candidate pool for the segment.
var ErrNoCandidates = errors.New("retrieval: no candidates")

// ErrInsufficientReferences signals a pool too sparse to rank usefully;
// the caller substitutes a static fallback set instead.
var ErrInsufficientReferences = errors.New("retrieval: insufficient references")

// #endregion errors

// #region query

// Query is one retrieval request. Embedding may be nil when the embedding
// provider was unavailable; semantic scores then bottom out for every
// candidate and the other signals carry the ranking.
type Query struct {
	Text      string
	Embedding []float64
}

// #endregion query

// #region scored-reference

// Breakdown is the per-signal decomposition of a combined score, each
// component already normalized to [0,1].
type Breakdown struct {
	Semantic  float64
	Lexical   float64
	Quality   float64
	Freshness float64
}

// ScoredReference pairs a candidate with its combined score and the
// per-signal breakdown for observability.
type ScoredReference struct {
	Item  store.Item
	Score float64
	Parts Breakdown

	// Debug fields behind the quality signal.
	RatingsCount  int
	ShrunkQuality float64
	AgeDays       float64
}

// #endregion scored-reference

// #region pack

// Pack is the few-shot reference pack assembled from top-ranked references
// and handed to the generation engine.
type Pack struct {
	StyleCard    string
	BestHooks    []string
	BestBeats    []string
	BestCaptions []string
	Tone         string
}

// #endregion pack
