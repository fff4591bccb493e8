package llm

import "context"

// #region draft

// Draft is one generated candidate script as returned by the engine.
type Draft struct {
	Title     string   `json:"title"`
	Hook      string   `json:"hook"`
	Beats     []string `json:"beats"`
	Voiceover string   `json:"voiceover"`
	Caption   string   `json:"caption"`
	Hashtags  []string `json:"hashtags"`
	CTA       string   `json:"cta"`
}

// #endregion draft

// #region requests

// TempSchedule is the three-point generation temperature schedule carried
// by the selected arm. The draft batch is spread across the three points.
type TempSchedule struct {
	Low  float64
	Mid  float64
	High float64
}

// GenerateRequest bundles everything the generation engine needs.
type GenerateRequest struct {
	Persona     string
	ContentType string
	Tone        string
	Boundaries  string
	References  []string // reference snippets, inspire-don't-copy
	Temps       TempSchedule
	N           int // number of drafts
}

// #endregion requests

// #region verdict

// Verdict holds the judge's five 1-5 dimensions plus its confidence.
// Fallback marks the neutral substitute used when the call failed or the
// payload didn't validate.
type Verdict struct {
	Overall     float64 `json:"overall"`
	Hook        float64 `json:"hook"`
	Originality float64 `json:"originality"`
	StyleFit    float64 `json:"style_fit"`
	Safety      float64 `json:"safety"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	Fallback    bool    `json:"-"`
}

// #endregion verdict

// #region interfaces

// Generator produces candidate drafts.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Draft, error)
}

// Judge scores one draft across the five quality dimensions.
type Judge interface {
	Judge(ctx context.Context, draft Draft, persona, contentType, tone string) Verdict
}

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Provider bundles the three surfaces the pipeline consumes.
type Provider interface {
	Generator
	Judge
	Embedder
}

// #endregion interfaces
