package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Retriever finds the passages most relevant to a question. An empty
// result is a valid outcome: a passage below the similarity floor is
// dropped even if that leaves fewer than topK, because a near-miss
// passage degrades answer grounding more than no passage at all.
type Retriever struct {
	embedder driven.EmbeddingService
	store    VectorStore
	budgets  domain.BudgetSettings
}

// NewRetriever creates the retrieval service.
func NewRetriever(embedder driven.EmbeddingService, store VectorStore, budgets domain.BudgetSettings) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		budgets:  budgets,
	}
}

// Retrieve embeds the question and returns the top passages above the
// similarity floor, ordered by score descending.
func (r *Retriever) Retrieve(ctx context.Context, question string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	if question == "" {
		return []domain.SearchResult{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.budgets.EmbeddingCall)
	defer cancel()
	query, err := r.embedder.Embed(embedCtx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %v", domain.ErrEmbeddingUnavailable, err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.budgets.SearchCall)
	defer cancel()
	results, err := r.store.Search(searchCtx, query, opts.TopK, opts.DocumentID)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.SearchResult, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, result := range results {
		// The store already dedupes across backends; this guards
		// against a misbehaving backend returning duplicates.
		if seen[result.ChunkID] {
			continue
		}
		seen[result.ChunkID] = true
		if result.Score < opts.MinScore {
			continue
		}
		filtered = append(filtered, result)
	}

	logger.Debug("Retrieved %d passages (%d before similarity floor %.2f)",
		len(filtered), len(results), opts.MinScore)
	return filtered, nil
}
