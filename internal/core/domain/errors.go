package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChunking indicates invalid chunk size or overlap
	// parameters. Fatal at startup.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrIngestion indicates text extraction or embedding failed during
	// indexing. The document's ingestion is aborted and no partial
	// chunks become searchable.
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbeddingProvider indicates the embedding model or service is
	// unavailable. A document cannot be indexed with missing vectors,
	// so this is fatal for the document.
	ErrEmbeddingProvider = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch indicates a vector of the wrong dimension or
	// model version reached the store. This is a fatal configuration
	// error, never silent corruption.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSynthesis indicates the language model exhausted its retries.
	// Surfaced as a placeholder answer for that question only.
	ErrSynthesis = errors.New("answer synthesis failed")

	// ErrBatchTimeout indicates the batch wall-clock budget was
	// exceeded. Remaining questions are finalized with placeholder
	// answers; completed answers are still returned.
	ErrBatchTimeout = errors.New("batch budget exceeded")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval is impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates no vector backend answered.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)
