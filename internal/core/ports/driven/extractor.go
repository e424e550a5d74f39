package driven

import "context"

// TextExtractor produces cleaned UTF-8 text from a document source.
// Binary format parsing (PDF, DOCX) lives behind this port; the core
// treats any empty or non-UTF-8 result as an ingestion failure.
type TextExtractor interface {
	// Extract fetches the source (file path or URL) and returns its
	// cleaned text content.
	Extract(ctx context.Context, source string) (string, error)
}
