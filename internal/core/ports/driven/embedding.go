package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: this is separate from VectorBackend which stores and searches
// vectors. EmbeddingService generates vectors; VectorBackend stores them.
//
// Implementations must be deterministic for an identical model version:
// the same text embeds to the same vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The output has exactly one vector per input text, in input order,
	// all of dimension Dimensions().
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the vector store configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// Vectors from different model versions must never share a store.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
