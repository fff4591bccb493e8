package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/draftstudio/engine/internal/store"
)

// #region indexer

// Indexer backfills embeddings for items that don't have one yet. It runs
// off the request's critical path; until an item is indexed it simply
// scores worst-case on the semantic signal.
type Indexer struct {
	store    *store.Store
	embedder Embedder
}

// NewIndexer creates an Indexer.
func NewIndexer(st *store.Store, embedder Embedder) *Indexer {
	return &Indexer{store: st, embedder: embedder}
}

// IndexPending embeds up to batchSize unindexed items and returns how many
// were indexed.
func (ix *Indexer) IndexPending(ctx context.Context, batchSize int) (int, error) {
	ids, err := ix.store.ListUnembedded(batchSize)
	if err != nil {
		return 0, fmt.Errorf("index pending: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	texts := make([]string, len(ids))
	for i, id := range ids {
		it, err := ix.store.GetItem(id)
		if err != nil {
			return 0, fmt.Errorf("index pending: %w", err)
		}
		texts[i] = it.FullText()
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("index pending: %w", err)
	}

	indexed := 0
	for i, id := range ids {
		if err := ix.store.SetEmbedding(id, vectors[i]); err != nil {
			log.Printf("[INDEX] failed to store embedding for %s: %v", id, err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// #endregion indexer
