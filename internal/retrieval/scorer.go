package retrieval

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/draftstudio/engine/internal/store"
)

// #region scorer
// Scorer ranks candidate references for a query by blending four
// normalized signals with the segment's persisted policy weights.
type Scorer struct {
	config Config
	now    func() time.Time
}

// NewScorer creates a Scorer with the given config.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config, now: time.Now}
}

// NewScorerAt creates a Scorer with a fixed clock, for tests.
func NewScorerAt(config Config, now func() time.Time) *Scorer {
	return &Scorer{config: config, now: now}
}

// #endregion scorer

// #region score
// Score ranks the candidate pool and returns the top TopK with per-signal
// breakdowns. Retrieval always uses the persisted policy weights, not a
// just-selected bandit arm's weights: exploration only touches generation
// temperature while ranking stays on the currently-trusted weights.
//
// Returns ErrNoCandidates for an empty pool and ErrInsufficientReferences
// when the pool is below MinCandidates; callers substitute a fallback set.
func (s *Scorer) Score(query Query, pool []store.Item, policy store.Policy) ([]ScoredReference, error) {
	if len(pool) == 0 {
		return nil, ErrNoCandidates
	}
	if len(pool) < s.config.MinCandidates {
		return nil, ErrInsufficientReferences
	}

	// Raw signal pass. Candidates are independent, so cosine and TF-IDF run
	// concurrently into index-addressed slices.
	rawCos := make([]float64, len(pool))
	rawLex := make([]float64, len(pool))
	var wg sync.WaitGroup
	for i := range pool {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rawCos[i] = cosineOrWorst(query.Embedding, pool[i].Embedding)
			rawLex[i] = tfidfSimilarity(query.Text, pool[i].FullText())
		}(i)
	}
	wg.Wait()

	// Lexical min-max normalization across this request's candidate set.
	minLex, maxLex := rawLex[0], rawLex[0]
	for _, v := range rawLex[1:] {
		minLex = math.Min(minLex, v)
		maxLex = math.Max(maxLex, v)
	}
	lexRange := maxLex - minLex + 1e-9

	now := s.now().UTC()
	results := make([]ScoredReference, len(pool))
	for i, it := range pool {
		semantic := (rawCos[i] + 1.0) / 2.0
		lexical := (rawLex[i] - minLex) / lexRange

		n := float64(it.RatingsCount)
		local := s.config.GlobalQuality
		if it.ScoreOverall != nil {
			local = *it.ScoreOverall
		}
		shrunk := (n/(n+s.config.ShrinkageAlpha))*local +
			(s.config.ShrinkageAlpha/(n+s.config.ShrinkageAlpha))*s.config.GlobalQuality
		quality := clamp01((shrunk - 1) / 4)

		ageDays := math.Max(0, now.Sub(it.CreatedAt).Hours()/24)
		freshness := math.Exp(-ageDays / s.config.FreshnessTau)

		parts := Breakdown{
			Semantic:  semantic,
			Lexical:   lexical,
			Quality:   quality,
			Freshness: freshness,
		}
		combined := policy.SemanticWeight*semantic +
			policy.LexicalWeight*lexical +
			policy.QualityWeight*quality +
			policy.FreshnessWeight*freshness

		results[i] = ScoredReference{
			Item:          it,
			Score:         combined,
			Parts:         parts,
			RatingsCount:  it.RatingsCount,
			ShrunkQuality: shrunk,
			AgeDays:       ageDays,
		}
	}

	// Stable sort keeps insertion order for ties.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > s.config.TopK {
		results = results[:s.config.TopK]
	}
	return results, nil
}

// #endregion score

// #region cosine
// cosineOrWorst returns the cosine similarity in [-1,1], or -1 when either
// embedding is missing, zero-length, or mismatched. An unindexed item is
// scored worst-case rather than blocking retrieval.
func cosineOrWorst(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return -1.0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return -1.0
	}
	cos := floats.Dot(a, b) / (na * nb)
	return math.Max(-1, math.Min(1, cos))
}

// #endregion cosine

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
