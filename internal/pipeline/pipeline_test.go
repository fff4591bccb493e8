package pipeline

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/draftstudio/engine/internal/llm"
	"github.com/draftstudio/engine/internal/logging"
	"github.com/draftstudio/engine/internal/store"
)

// #region fake-provider

// fakeProvider scripts the three LLM surfaces for pipeline tests.
type fakeProvider struct {
	drafts    []llm.Draft
	verdict   llm.Verdict
	embedFail bool

	generateReqs []llm.GenerateRequest
	judged       int
}

func (f *fakeProvider) Generate(_ context.Context, req llm.GenerateRequest) ([]llm.Draft, error) {
	f.generateReqs = append(f.generateReqs, req)
	return f.drafts, nil
}

func (f *fakeProvider) Judge(_ context.Context, _ llm.Draft, _, _, _ string) llm.Verdict {
	f.judged++
	return f.verdict
}

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.embedFail {
		return nil, context.DeadlineExceeded
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 0, 0}
	}
	return vectors, nil
}

// #endregion fake-provider

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := logging.Init(s.DB()); err != nil {
		t.Fatalf("logging.Init: %v", err)
	}
	return s
}

func seedReferences(t *testing.T, s *store.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.InsertItem(store.Item{
			Persona:     "luna",
			ContentType: "talking_style",
			Tone:        "playful",
			Title:       "reference",
			Hook:        "a hook people stop for",
			Beats:       []string{"beat one", "beat two"},
			Caption:     "caption",
			IsReference: true,
			Embedding:   []float64{1, 0, 0},
		})
		if err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}
}

func testRequest() Request {
	return Request{
		Persona:     "luna",
		ContentType: "talking_style",
		Brief:       "morning coffee routine",
		N:           2,
	}
}

// #region run

func TestRunFullLoop(t *testing.T) {
	s := newTestStore(t)
	seedReferences(t, s, 4)

	provider := &fakeProvider{
		drafts: []llm.Draft{
			{Title: "Clean draft", Hook: "watch this", Beats: []string{"b1"}},
			{Title: "Bad draft", Hook: "totally explicit content"},
		},
		verdict: llm.Verdict{Overall: 4, Hook: 4, Originality: 4, StyleFit: 4, Safety: 4, Confidence: 0.8},
	}

	engine := NewEngine(s, provider, rand.New(rand.NewSource(1)))
	res, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Selection.Arm.Name == "" {
		t.Fatal("no arm selected")
	}
	if res.Fallback {
		t.Fatal("four references should rank, not fall back")
	}
	if len(res.References) != 4 {
		t.Fatalf("references = %d, want 4", len(res.References))
	}
	if len(res.ItemIDs) != 2 {
		t.Fatalf("persisted drafts = %d, want 2", len(res.ItemIDs))
	}

	// The compliance failure is stored but never judged.
	if provider.judged != 1 {
		t.Fatalf("judged = %d, want 1", provider.judged)
	}
	clean, err := s.GetItem(res.ItemIDs[0])
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if clean.Compliance != store.CompliancePass {
		t.Fatalf("clean draft compliance = %s", clean.Compliance)
	}
	bad, err := s.GetItem(res.ItemIDs[1])
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if bad.Compliance != store.ComplianceFail {
		t.Fatalf("bad draft compliance = %s", bad.Compliance)
	}
	if auto, _ := s.GetAutoScore(bad.ID); auto != nil {
		t.Fatal("compliance failure must not get an auto score")
	}

	// Clean draft: composite 4.0/5 at confidence 0.8 -> 0.8.
	// Failed draft: neutral 0.5. Batch mean 0.65.
	if math.Abs(res.Reward-0.65) > 1e-9 {
		t.Fatalf("reward = %v, want 0.65", res.Reward)
	}

	// First run creates the segment policy from the played arm.
	if !res.Update.Created {
		t.Fatal("expected policy creation on first run")
	}
	p, found, err := s.GetPolicy(store.SegmentKey{Persona: "luna", ContentType: "talking_style"})
	if err != nil || !found {
		t.Fatalf("GetPolicy: found=%t err=%v", found, err)
	}
	if math.Abs(p.SuccessRate-0.65) > 1e-9 || p.TotalGenerations != 1 {
		t.Fatalf("policy stats = %v/%d, want 0.65/1", p.SuccessRate, p.TotalGenerations)
	}

	// Ranked puts the judged draft above the failed one.
	if len(res.Ranked) != 2 || res.Ranked[0].ItemID != clean.ID {
		t.Fatalf("rerank order wrong: %+v", res.Ranked)
	}

	// Both the selection and the update landed in the decision log.
	entries, err := logging.Recent(s.DB(), "luna", "talking_style", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("decision log entries = %d, want 2", len(entries))
	}
	if entries[0].Kind != logging.KindUpdate || entries[1].Kind != logging.KindSelection {
		t.Fatalf("decision log kinds wrong: %+v", entries)
	}
}

func TestRunGenerationUsesArmTemps(t *testing.T) {
	s := newTestStore(t)
	seedReferences(t, s, 3)

	provider := &fakeProvider{
		drafts:  []llm.Draft{{Title: "d", Hook: "h"}},
		verdict: llm.Verdict{Overall: 3, Hook: 3, Originality: 3, StyleFit: 3, Safety: 3, Confidence: 0.7},
	}
	engine := NewEngine(s, provider, rand.New(rand.NewSource(7)))

	res, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(provider.generateReqs) != 1 {
		t.Fatalf("generate calls = %d, want 1", len(provider.generateReqs))
	}
	got := provider.generateReqs[0].Temps
	arm := res.Selection.Arm
	if got.Low != arm.TempLow || got.Mid != arm.TempMid || got.High != arm.TempHigh {
		t.Fatalf("temps %+v don't match the played arm %s", got, arm.Name)
	}
	if provider.generateReqs[0].Tone != "playful" {
		t.Fatalf("tone = %q, want top reference's tone", provider.generateReqs[0].Tone)
	}
	if len(provider.generateReqs[0].References) == 0 {
		t.Fatal("generation request should carry reference snippets")
	}
}

func TestRunSparsePoolFallsBack(t *testing.T) {
	s := newTestStore(t)
	seedReferences(t, s, 2) // below MinCandidates

	provider := &fakeProvider{
		drafts:  []llm.Draft{{Title: "d", Hook: "h"}},
		verdict: llm.Verdict{Overall: 3, Hook: 3, Originality: 3, StyleFit: 3, Safety: 3, Confidence: 0.7},
	}
	engine := NewEngine(s, provider, rand.New(rand.NewSource(7)))

	res, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Fallback {
		t.Fatal("sparse pool must fall back")
	}
	if len(res.References) != 2 {
		t.Fatalf("fallback references = %d, want the raw pool", len(res.References))
	}
	if len(res.ItemIDs) != 1 {
		t.Fatal("generation must proceed on fallback")
	}
}

func TestRunEmbedFailureDegradesToLexical(t *testing.T) {
	s := newTestStore(t)
	seedReferences(t, s, 4)

	provider := &fakeProvider{
		drafts:    []llm.Draft{{Title: "d", Hook: "h"}},
		verdict:   llm.Verdict{Overall: 3, Hook: 3, Originality: 3, StyleFit: 3, Safety: 3, Confidence: 0.7},
		embedFail: true,
	}
	engine := NewEngine(s, provider, rand.New(rand.NewSource(7)))

	res, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fallback {
		t.Fatal("embed failure should degrade the signal, not trigger fallback")
	}
	for _, r := range res.References {
		if r.Parts.Semantic != 0 {
			t.Fatalf("semantic = %v without a query embedding, want 0", r.Parts.Semantic)
		}
	}
}

func TestRunRejectsEmptyKey(t *testing.T) {
	s := newTestStore(t)
	engine := NewEngine(s, &fakeProvider{}, rand.New(rand.NewSource(1)))
	if _, err := engine.Run(context.Background(), Request{Persona: "luna"}); err == nil {
		t.Fatal("expected error for empty content type")
	}
}

func TestRunSecondRunUpdatesExistingPolicy(t *testing.T) {
	s := newTestStore(t)
	seedReferences(t, s, 4)

	provider := &fakeProvider{
		drafts:  []llm.Draft{{Title: "d", Hook: "h"}},
		verdict: llm.Verdict{Overall: 4, Hook: 4, Originality: 4, StyleFit: 4, Safety: 4, Confidence: 0.8},
	}
	engine := NewEngine(s, provider, rand.New(rand.NewSource(7)))

	first, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if !first.Update.Created {
		t.Fatal("first run should create the policy")
	}

	second, err := engine.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Update.Created {
		t.Fatal("second run must update, not create")
	}
	if second.Update.Policy.TotalGenerations != 2 {
		t.Fatalf("generations = %d, want 2", second.Update.Policy.TotalGenerations)
	}
}

// #endregion run
