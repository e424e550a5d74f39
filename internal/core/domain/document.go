package domain

import "time"

// Document represents a single ingested document.
// It is immutable once ingested and removed only by explicit purge.
type Document struct {
	// ID is a stable hash of the source content, so re-ingesting the
	// same document yields the same ID.
	ID string

	// SourceURI is the original location (file path or URL).
	SourceURI string

	// ContentLength is the length of the cleaned text in bytes.
	ContentLength int

	// IngestedAt is when the document was indexed.
	IngestedAt time.Time
}

// Chunk is a bounded, overlapping substring of a document and the unit
// of retrieval. Chunks are created once during ingestion and never
// mutated.
type Chunk struct {
	// ID is derived deterministically from the document ID and the
	// sequence index. Re-chunking identical text with identical
	// parameters reproduces identical IDs, which makes re-ingestion
	// idempotent (upsert instead of duplicate).
	ID string

	// DocumentID links back to the owning Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// StartOffset and EndOffset locate the chunk in the source text.
	StartOffset int
	EndOffset   int

	// SequenceIndex is the ordinal position within the document.
	// Chunks for a document form a total order by this field.
	SequenceIndex int

	// Embedding is the vector representation, populated after the
	// embedding step. Nil until then.
	Embedding []float32
}
