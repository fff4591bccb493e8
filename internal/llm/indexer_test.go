package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/draftstudio/engine/internal/store"
)

// #region fake-embedder

type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedder down")
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{float64(len(texts[i])), 1, 0}
	}
	return vectors, nil
}

// #endregion fake-embedder

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// #region index-pending

func TestIndexPending(t *testing.T) {
	st := newTestStore(t)
	for _, title := range []string{"one", "two", "three"} {
		if _, err := st.InsertItem(store.Item{
			Persona: "luna", ContentType: "talking_style", Title: title,
		}); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}

	emb := &fakeEmbedder{}
	ix := NewIndexer(st, emb)

	n, err := ix.IndexPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("IndexPending: %v", err)
	}
	if n != 3 {
		t.Fatalf("indexed = %d, want 3", n)
	}
	if emb.calls != 1 {
		t.Fatalf("embed calls = %d, want one batched call", emb.calls)
	}

	ids, err := st.ListUnembedded(10)
	if err != nil {
		t.Fatalf("ListUnembedded: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected everything indexed, %d remain", len(ids))
	}

	// Second pass is a no-op and must not call the embedder.
	n, err = ix.IndexPending(context.Background(), 10)
	if err != nil || n != 0 {
		t.Fatalf("second pass: n=%d err=%v, want 0 and nil", n, err)
	}
	if emb.calls != 1 {
		t.Fatalf("embed calls = %d, want still 1", emb.calls)
	}
}

func TestIndexPendingRespectsBatchSize(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := st.InsertItem(store.Item{
			Persona: "luna", ContentType: "talking_style", Title: "t",
		}); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}

	ix := NewIndexer(st, &fakeEmbedder{})
	n, err := ix.IndexPending(context.Background(), 2)
	if err != nil {
		t.Fatalf("IndexPending: %v", err)
	}
	if n != 2 {
		t.Fatalf("indexed = %d, want batch of 2", n)
	}

	ids, err := st.ListUnembedded(10)
	if err != nil {
		t.Fatalf("ListUnembedded: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("remaining = %d, want 3", len(ids))
	}
}

func TestIndexPendingEmbedderFailure(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.InsertItem(store.Item{
		Persona: "luna", ContentType: "talking_style", Title: "t",
	}); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	ix := NewIndexer(st, &fakeEmbedder{fail: true})
	if _, err := ix.IndexPending(context.Background(), 10); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

// #endregion index-pending
