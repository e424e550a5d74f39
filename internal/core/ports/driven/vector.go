package driven

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// VectorBackend is one physical similarity index. The logical store in
// internal/vectorstore composes one or two backends depending on the
// configured mode.
//
// Implementations must return normalized cosine similarity in [0,1] so
// that scores from different backends are directly comparable at merge
// time.
type VectorBackend interface {
	// Upsert inserts or replaces vectors for the given chunks. The
	// chunk ID is the vector key, so re-ingesting a document replaces
	// its vectors instead of duplicating them.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search finds the k nearest chunks to the query vector. When
	// documentID is non-empty, results are restricted to that document.
	Search(ctx context.Context, query []float32, k int, documentID string) ([]VectorHit, error)

	// DeleteDocument removes all vectors belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Origin identifies this backend in search results and stats.
	Origin() domain.BackendOrigin

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result from one backend.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the normalized cosine similarity (0-1).
	Score float64

	// Chunk carries the stored chunk metadata (text, offsets,
	// sequence index). The embedding is not populated on hits.
	Chunk domain.Chunk
}
