package driving

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// IngestService indexes documents so questions can be asked against them.
type IngestService interface {
	// Ingest extracts, chunks, embeds and stores a document. It returns
	// the stored document record. Re-ingesting identical content is
	// idempotent and returns the same document ID.
	Ingest(ctx context.Context, source string) (*domain.Document, error)

	// Purge removes a document and its vectors from every enabled
	// backend.
	Purge(ctx context.Context, documentID string) error
}

// AnswerService answers batches of questions against one document.
type AnswerService interface {
	// Answer processes all questions concurrently and returns one
	// answer per question, in input order. Per-question failures yield
	// placeholder answers, never missing slots.
	Answer(ctx context.Context, documentID string, questions []string) (*domain.BatchResult, error)
}

// StatusService reports store and provider health.
type StatusService interface {
	// Stats returns per-backend availability and vector counts.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}
