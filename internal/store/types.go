package store

import (
	"errors"
	"strings"
	"time"
)

// #region segment-key

// SegmentKey scopes a policy and the bandit's state to one
// persona × content-type pair.
type SegmentKey struct {
	Persona     string
	ContentType string
}

// Validate rejects empty key components. An empty persona or content type is
// a caller bug and must fail fast rather than silently default.
func (k SegmentKey) Validate() error {
	if strings.TrimSpace(k.Persona) == "" {
		return errors.New("segment key: empty persona")
	}
	if strings.TrimSpace(k.ContentType) == "" {
		return errors.New("segment key: empty content type")
	}
	return nil
}

func (k SegmentKey) String() string {
	return k.Persona + "/" + k.ContentType
}

// #endregion segment-key

// #region compliance

// Compliance levels for item text.
const (
	CompliancePass = "pass"
	ComplianceWarn = "warn"
	ComplianceFail = "fail"
)

// Item sources.
const (
	SourceAI     = "ai"
	SourceManual = "manual"
	SourceImport = "import"
)

// #endregion compliance

// #region item

// Item is one content script: either a curated reference or a generated
// draft. Rating aggregates are caches recomputed on every new rating event.
type Item struct {
	ID          string
	Persona     string
	ContentType string
	Tone        string

	Title     string
	Hook      string
	Beats     []string
	Voiceover string
	Caption   string
	CTA       string

	Compliance  string // pass | warn | fail
	Source      string // ai | manual | import
	IsReference bool

	// Cached aggregates from ratings (nil until first rating).
	ScoreOverall     *float64
	ScoreHook        *float64
	ScoreOriginality *float64
	ScoreStyleFit    *float64
	ScoreSafety      *float64
	RatingsCount     int

	Embedding []float64 // nil until indexed

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Segment returns the item's segment key.
func (it *Item) Segment() SegmentKey {
	return SegmentKey{Persona: it.Persona, ContentType: it.ContentType}
}

// FullText joins all text fields into one string for lexical matching
// and embedding.
func (it *Item) FullText() string {
	parts := []string{
		it.Title,
		it.Hook,
		strings.Join(it.Beats, " "),
		it.Voiceover,
		it.Caption,
		it.CTA,
	}
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// #endregion item

// #region rating

// Rating is one append-only human rating event for an item.
// Dimensions other than Overall are optional.
type Rating struct {
	ID          int64
	ItemID      string
	Rater       string
	Overall     float64
	Hook        *float64
	Originality *float64
	StyleFit    *float64
	Safety      *float64
	Notes       string
	CreatedAt   time.Time
}

// #endregion rating

// #region auto-score

// AutoScore holds the judge's five 1-5 dimensions plus its confidence.
type AutoScore struct {
	ID          int64
	ItemID      string
	Overall     float64
	Hook        float64
	Originality float64
	StyleFit    float64
	Safety      float64
	Confidence  float64
	Notes       string
	CreatedAt   time.Time
}

// #endregion auto-score

// #region policy

// Policy is the persisted per-segment configuration: four retrieval weights
// summing to 1, a three-point temperature schedule, and running performance
// stats. Version supports optimistic-concurrency writes.
type Policy struct {
	Persona     string
	ContentType string

	SemanticWeight  float64
	LexicalWeight   float64
	QualityWeight   float64
	FreshnessWeight float64

	TempLow  float64
	TempMid  float64
	TempHigh float64

	SuccessRate      float64
	TotalGenerations int

	Version   int64
	UpdatedAt time.Time
}

// DefaultPolicy returns the system-default policy for a segment.
func DefaultPolicy(key SegmentKey) Policy {
	return Policy{
		Persona:         key.Persona,
		ContentType:     key.ContentType,
		SemanticWeight:  0.45,
		LexicalWeight:   0.25,
		QualityWeight:   0.20,
		FreshnessWeight: 0.10,
		TempLow:         0.4,
		TempMid:         0.7,
		TempHigh:        0.95,
	}
}

// Segment returns the policy's segment key.
func (p *Policy) Segment() SegmentKey {
	return SegmentKey{Persona: p.Persona, ContentType: p.ContentType}
}

// Weights returns the four retrieval weights in signal order
// (semantic, lexical, quality, freshness).
func (p *Policy) Weights() [4]float64 {
	return [4]float64{p.SemanticWeight, p.LexicalWeight, p.QualityWeight, p.FreshnessWeight}
}

// NormalizeWeights rescales the four retrieval weights to sum to 1.
// Called after every mutation so the invariant holds on each write.
func (p *Policy) NormalizeWeights() {
	total := p.SemanticWeight + p.LexicalWeight + p.QualityWeight + p.FreshnessWeight
	if total <= 0 {
		d := DefaultPolicy(p.Segment())
		p.SemanticWeight = d.SemanticWeight
		p.LexicalWeight = d.LexicalWeight
		p.QualityWeight = d.QualityWeight
		p.FreshnessWeight = d.FreshnessWeight
		return
	}
	p.SemanticWeight /= total
	p.LexicalWeight /= total
	p.QualityWeight /= total
	p.FreshnessWeight /= total
}

// #endregion policy
