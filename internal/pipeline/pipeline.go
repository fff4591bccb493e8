// Package pipeline runs the full generation loop for one request:
// pick an arm, retrieve references, generate drafts, judge, rerank,
// and fold the batch reward back into the segment's policy.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/draftstudio/engine/internal/bandit"
	"github.com/draftstudio/engine/internal/compliance"
	"github.com/draftstudio/engine/internal/llm"
	"github.com/draftstudio/engine/internal/logging"
	"github.com/draftstudio/engine/internal/rerank"
	"github.com/draftstudio/engine/internal/retrieval"
	"github.com/draftstudio/engine/internal/reward"
	"github.com/draftstudio/engine/internal/store"
	"github.com/draftstudio/engine/internal/update"
)

// #region types

// Request is one generation request.
type Request struct {
	Persona     string
	ContentType string
	Tone        string
	Brief       string // free-text idea the query embeds and matches against
	Boundaries  string
	N           int // drafts to generate
}

// Result is the full outcome of one pipeline run.
type Result struct {
	Selection  bandit.Selection
	Phase      string
	References []retrieval.ScoredReference
	Fallback   bool // reference pool too sparse, ranking skipped
	Pack       retrieval.Pack
	ItemIDs    []string // persisted drafts, generation order
	Ranked     []rerank.Ranked
	Verdicts   map[string]llm.Verdict
	Reward     float64
	Update     update.Result
}

// Engine wires the stages together over one store.
type Engine struct {
	store    *store.Store
	llm      llm.Provider
	scorer   *retrieval.Scorer
	reranker *rerank.Reranker
	rewards  *reward.Aggregator
	updater  *update.Updater
	bandit   bandit.Config
	rng      *rand.Rand
}

// NewEngine assembles an Engine with production constants. rng is injected
// so replay runs and tests can fix the selection sequence.
func NewEngine(st *store.Store, provider llm.Provider, rng *rand.Rand) *Engine {
	return &Engine{
		store:    st,
		llm:      provider,
		scorer:   retrieval.NewScorer(retrieval.DefaultConfig()),
		reranker: rerank.NewReranker(st),
		rewards:  reward.NewAggregator(st, reward.DefaultConfig()),
		updater:  update.NewUpdater(st, update.DefaultConfig()),
		bandit:   bandit.DefaultConfig(),
		rng:      rng,
	}
}

// #endregion types

// #region run

// Run executes the full loop. A missing or unreadable policy row never
// blocks generation: the run proceeds on the segment defaults and the
// reward step creates or repairs the row afterwards.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	key := store.SegmentKey{Persona: req.Persona, ContentType: req.ContentType}
	if err := key.Validate(); err != nil {
		return Result{}, err
	}
	if req.N <= 0 {
		req.N = 6
	}

	var res Result
	catalog := bandit.Catalog()

	// Policy load. Read failures degrade to defaults rather than failing
	// the request.
	policy := store.DefaultPolicy(key)
	var seedPolicy *store.Policy
	if p, found, err := e.store.GetPolicy(key); err != nil {
		log.Printf("[PIPELINE] policy read failed for %s, using defaults: %v", key, err)
	} else if found {
		policy = p
		seedPolicy = &p
	}

	// Arm selection.
	stats := bandit.Seed(catalog, seedPolicy, e.bandit.Tolerance)
	res.Selection = bandit.Select(catalog, stats, e.bandit, e.rng)
	res.Phase = bandit.Phase(catalog, stats, e.bandit)
	e.logDecision(logging.Entry{
		Persona: key.Persona, ContentType: key.ContentType,
		Kind: logging.KindSelection, Arm: res.Selection.Arm.Name,
		Mode: res.Selection.Mode, Epsilon: res.Selection.Epsilon,
		Detail: res.Phase,
	})

	// Retrieval. Ranking always uses the persisted policy weights; the
	// arm only steers generation temperature.
	res.References, res.Fallback = e.retrieve(ctx, req, key, policy)
	res.Pack = retrieval.BuildPack(req.Persona, req.ContentType, res.References)
	tone := req.Tone
	if tone == "" {
		tone = res.Pack.Tone
	}

	// Generation at the arm's temperature schedule.
	drafts, err := e.llm.Generate(ctx, llm.GenerateRequest{
		Persona:     req.Persona,
		ContentType: req.ContentType,
		Tone:        tone,
		Boundaries:  req.Boundaries,
		References:  res.Pack.Snippets(),
		Temps: llm.TempSchedule{
			Low:  res.Selection.Arm.TempLow,
			Mid:  res.Selection.Arm.TempMid,
			High: res.Selection.Arm.TempHigh,
		},
		N: req.N,
	})
	if err != nil {
		return Result{}, fmt.Errorf("pipeline generate: %w", err)
	}

	// Persist, gate, judge.
	res.ItemIDs, res.Verdicts, err = e.scoreDrafts(ctx, req, key, tone, drafts)
	if err != nil {
		return Result{}, err
	}

	// Rerank and reward.
	res.Ranked, err = e.reranker.Rank(res.ItemIDs)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline rerank: %w", err)
	}
	res.Reward, err = e.rewards.BatchReward(res.ItemIDs)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline reward: %w", err)
	}

	res.Update, err = e.updater.ApplyReward(key, res.Selection.Arm, res.Reward)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline update: %w", err)
	}
	e.logDecision(logging.Entry{
		Persona: key.Persona, ContentType: key.ContentType,
		Kind: logging.KindUpdate, Arm: res.Selection.Arm.Name,
		Reward: res.Reward,
		Detail: fmt.Sprintf("nudged=%t success=%.4f", res.Update.Nudged, res.Update.Policy.SuccessRate),
	})

	return res, nil
}

// #endregion run

// #region retrieve

// retrieve ranks the segment's reference pool. A sparse or empty pool is a
// fallback, not an error: the unranked candidates (possibly none) feed the
// pack as-is.
func (e *Engine) retrieve(ctx context.Context, req Request, key store.SegmentKey, policy store.Policy) ([]retrieval.ScoredReference, bool) {
	pool, err := e.store.ListReferences(key)
	if err != nil {
		log.Printf("[PIPELINE] reference listing failed for %s: %v", key, err)
		return nil, true
	}

	query := retrieval.Query{Text: req.Brief}
	if vectors, err := e.llm.Embed(ctx, []string{req.Brief}); err != nil {
		log.Printf("[PIPELINE] query embedding failed, lexical-only retrieval: %v", err)
	} else if len(vectors) == 1 {
		query.Embedding = vectors[0]
	}

	ranked, err := e.scorer.Score(query, pool, policy)
	if err != nil {
		log.Printf("[PIPELINE] retrieval fallback for %s: %v", key, err)
		fallback := make([]retrieval.ScoredReference, len(pool))
		for i, it := range pool {
			fallback[i] = retrieval.ScoredReference{Item: it}
		}
		return fallback, true
	}
	return ranked, false
}

// #endregion retrieve

// #region score-drafts

// scoreDrafts persists each draft with its compliance level, then judges the
// non-failing ones and stores their auto-scores. Compliance failures stay in
// the store for audit but get no judge pass; their reward bottoms out
// through the neutral path.
func (e *Engine) scoreDrafts(ctx context.Context, req Request, key store.SegmentKey, tone string, drafts []llm.Draft) ([]string, map[string]llm.Verdict, error) {
	ids := make([]string, 0, len(drafts))
	verdicts := make(map[string]llm.Verdict, len(drafts))

	for _, d := range drafts {
		it := store.Item{
			Persona:     key.Persona,
			ContentType: key.ContentType,
			Tone:        tone,
			Title:       d.Title,
			Hook:        d.Hook,
			Beats:       d.Beats,
			Voiceover:   d.Voiceover,
			Caption:     d.Caption,
			CTA:         d.CTA,
			Source:      store.SourceAI,
		}
		check := compliance.CheckItem(&it)
		it.Compliance = check.Level

		saved, err := e.store.InsertItem(it)
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline save draft: %w", err)
		}
		ids = append(ids, saved.ID)

		if check.Level == store.ComplianceFail {
			log.Printf("[PIPELINE] draft %s failed compliance: %v", saved.ID, check.Reasons)
			continue
		}

		v := e.llm.Judge(ctx, d, key.Persona, key.ContentType, tone)
		verdicts[saved.ID] = v
		err = e.store.InsertAutoScore(store.AutoScore{
			ItemID:      saved.ID,
			Overall:     v.Overall,
			Hook:        v.Hook,
			Originality: v.Originality,
			StyleFit:    v.StyleFit,
			Safety:      v.Safety,
			Confidence:  v.Confidence,
			Notes:       v.Reasoning,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline save auto score: %w", err)
		}
	}
	return ids, verdicts, nil
}

// #endregion score-drafts

// #region log

func (e *Engine) logDecision(entry logging.Entry) {
	if err := logging.LogDecision(e.store.DB(), entry); err != nil {
		log.Printf("[PIPELINE] decision log failed: %v", err)
	}
}

// #endregion log
