// Package chunker splits document text into overlapping fixed-size
// passages with stable identifiers.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// chunkIDLen is the length of the hex-encoded chunk identifier.
const chunkIDLen = 32

// Engine splits document content into fixed-size overlapping chunks.
// Splitting is a pure function of the input text and parameters:
// re-chunking identical text reproduces identical chunk IDs, which is
// what makes re-ingestion idempotent.
type Engine struct {
	chunkSize int
	overlap   int
}

// New creates a chunking engine. It fails when the parameters violate
// 0 <= overlap < chunkSize; silently "fixing" them would change chunk
// identity between runs.
func New(chunkSize, overlap int) (*Engine, error) {
	s := domain.ChunkingSettings{ChunkSize: chunkSize, Overlap: overlap}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Engine{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured window size in characters.
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Overlap returns the configured overlap in characters.
func (e *Engine) Overlap() int {
	return e.overlap
}

// Split produces the ordered chunk sequence for a document. Windows of
// chunkSize characters advance by chunkSize-overlap; the final window
// may be shorter and is still emitted if non-empty. Whitespace-only
// windows are dropped. Offsets are character (rune) offsets into the
// input text.
func (e *Engine) Split(documentID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := e.chunkSize - e.overlap
	estimated := (len(runes) / step) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	sequence := 0
	for start := 0; start < len(runes); start += step {
		end := start + e.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		content := string(runes[start:end])
		if strings.TrimSpace(content) == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:            ChunkID(documentID, sequence),
			DocumentID:    documentID,
			Text:          content,
			StartOffset:   start,
			EndOffset:     end,
			SequenceIndex: sequence,
		})
		sequence++

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// ChunkID derives the stable identifier for the chunk at the given
// sequence index of a document.
func ChunkID(documentID string, sequenceIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", documentID, sequenceIndex)))
	return hex.EncodeToString(sum[:])[:chunkIDLen]
}
