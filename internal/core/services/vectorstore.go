package services

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// VectorStore is the merged view over the enabled vector backends.
// Satisfied by the vectorstore package; declared here so services can
// be tested against a fake.
type VectorStore interface {
	// Upsert writes chunk vectors to every enabled backend.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search returns merged, score-ordered results across backends.
	Search(ctx context.Context, query []float32, topK int, documentID string) ([]domain.SearchResult, error)

	// Stats reports per-backend availability and vector counts.
	Stats(ctx context.Context) *domain.StoreStats

	// DeleteDocument removes a document's vectors from every backend.
	DeleteDocument(ctx context.Context, documentID string) error
}
