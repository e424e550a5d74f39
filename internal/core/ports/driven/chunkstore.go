package driven

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// ChunkStore persists document and chunk metadata. The local vector
// backend doubles as the chunk store; the interfaces are separate so
// that a remote-only deployment can still keep metadata locally.
type ChunkStore interface {
	// SaveDocument stores or replaces a document record.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document ordered by
	// sequence index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
