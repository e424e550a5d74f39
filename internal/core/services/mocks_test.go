package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
)

// mockExtractor returns canned text per source.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ string) (string, error) {
	return m.text, m.err
}

// mockEmbedder embeds every text as a fixed-dimension vector and counts
// calls.
type mockEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	embedded   []string
	err        error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.batchCalls++
	m.embedded = append(m.embedded, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockStore implements VectorStore with canned search results.
type mockStore struct {
	mu        sync.Mutex
	results   []domain.SearchResult
	upserted  [][]domain.Chunk
	deleted   []string
	searchErr error
	upsertErr error
}

func (m *mockStore) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, chunks)
	return nil
}

func (m *mockStore) Search(_ context.Context, _ []float32, topK int, _ string) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topK < len(m.results) {
		return m.results[:topK], nil
	}
	return m.results, nil
}

func (m *mockStore) Stats(_ context.Context) *domain.StoreStats {
	return &domain.StoreStats{Mode: "local"}
}

func (m *mockStore) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentID)
	return nil
}

// mockChunkStore keeps documents in a map.
type mockChunkStore struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	deleted []string
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{docs: make(map[string]domain.Document)}
}

func (m *mockChunkStore) SaveDocument(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockChunkStore) GetChunk(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (m *mockChunkStore) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockChunkStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockLLM replies from a queue of responses, then repeats the last one.
type mockLLM struct {
	mu      sync.Mutex
	replies []mockReply
	calls   int
}

type mockReply struct {
	text string
	err  error
}

func (m *mockLLM) Complete(_ context.Context, _, _ string, _ driven.CompleteOptions) (*driven.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	m.calls++
	reply := m.replies[idx]
	if reply.err != nil {
		return nil, reply.err
	}
	return &driven.Completion{
		Text:             reply.text,
		PromptTokens:     100,
		CompletionTokens: 20,
		TotalTokens:      120,
	}, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockScorer returns a fixed score.
type mockScorer struct {
	score float64
	err   error
}

func (m *mockScorer) Score(_ context.Context, _, _ string, _ []domain.Chunk) (float64, error) {
	return m.score, m.err
}

func (m *mockScorer) Name() string { return "mock-scorer" }

func searchResult(chunkID string, score float64, seq int, text string) domain.SearchResult {
	return domain.SearchResult{
		ChunkID: chunkID,
		Score:   score,
		Origin:  domain.OriginLocal,
		Chunk: domain.Chunk{
			ID:            chunkID,
			DocumentID:    "doc1",
			Text:          text,
			SequenceIndex: seq,
		},
	}
}
