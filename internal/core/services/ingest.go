package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/askdoc/internal/chunker"
	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/core/ports/driving"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// documentIDLen truncates the content hash, matching chunk ID length.
const documentIDLen = 32

// Ingestor runs the indexing pipeline: extract, chunk, embed, store.
// Either a document becomes fully searchable or nothing is stored.
type Ingestor struct {
	extractor driven.TextExtractor
	engine    *chunker.Engine
	embedder  driven.EmbeddingService
	store     VectorStore
	chunks    driven.ChunkStore
	budgets   domain.BudgetSettings

	// mu serializes ingestions so concurrent calls for the same content
	// cannot interleave their writes.
	mu sync.Mutex
}

// NewIngestor creates the ingestion service.
func NewIngestor(
	extractor driven.TextExtractor,
	engine *chunker.Engine,
	embedder driven.EmbeddingService,
	store VectorStore,
	chunks driven.ChunkStore,
	budgets domain.BudgetSettings,
) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		engine:    engine,
		embedder:  embedder,
		store:     store,
		chunks:    chunks,
		budgets:   budgets,
	}
}

// Ingest indexes a document source. The document ID is a stable hash of
// the cleaned content, so re-ingesting identical content returns the
// existing record without re-embedding.
func (s *Ingestor) Ingest(ctx context.Context, source string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Ingesting %s", source)

	text, err := s.extractor.Extract(ctx, source)
	if err != nil {
		return nil, err
	}

	docID := DocumentID(text)
	if existing, err := s.chunks.GetDocument(ctx, docID); err == nil {
		logger.Info("Document %s already indexed, skipping", docID)
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing document: %w", err)
	}

	pieces := s.engine.Split(docID, text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s produced no chunks", domain.ErrIngestion, source)
	}
	logger.Debug("Split %s into %d chunks", docID, len(pieces))

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.budgets.EmbeddingCall)
	defer cancel()
	vectors, err := s.embedder.EmbedBatch(embedCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed chunks: %v", domain.ErrIngestion, err)
	}
	for i := range pieces {
		pieces[i].Embedding = vectors[i]
	}

	doc := domain.Document{
		ID:            docID,
		SourceURI:     source,
		ContentLength: len(text),
		IngestedAt:    time.Now().UTC(),
	}

	// Vectors first, metadata second: the document record is the commit
	// marker for a completed ingest. A failed vector write leaves no
	// record behind, so a retry re-runs the pipeline and the
	// deterministic chunk IDs upsert into place instead of duplicating.
	// Until the record lands, any half-written vectors are unreachable
	// because answering checks the document record first.
	if err := s.store.Upsert(ctx, pieces); err != nil {
		return nil, fmt.Errorf("index vectors: %w", err)
	}
	if err := s.chunks.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Indexed %s: %d chunks, %d characters", docID, len(pieces), len(text))
	return &doc, nil
}

// Purge removes a document and its vectors from every enabled backend.
func (s *Ingestor) Purge(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.chunks.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("purge vectors: %w", err)
	}
	if err := s.chunks.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("purge metadata: %w", err)
	}

	logger.Info("Purged document %s", documentID)
	return nil
}

// DocumentID derives the stable document identifier from cleaned text.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:documentIDLen]
}
