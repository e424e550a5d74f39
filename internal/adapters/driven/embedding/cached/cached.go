// Package cached decorates an embedding service with an in-memory
// cache keyed by content hash, so re-ingesting an unchanged document or
// repeating a query never re-bills the provider.
package cached

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// DefaultMaxEntries bounds the cache. At 1536 float32 dimensions one
// entry is ~6KB, so the default tops out around 25MB.
const DefaultMaxEntries = 4096

// Service wraps an EmbeddingService with a bounded cache.
type Service struct {
	inner      driven.EmbeddingService
	maxEntries int

	mu      sync.Mutex
	entries map[[32]byte][]float32
	order   [][32]byte // insertion order, evicted oldest-first

	hits   int
	misses int
}

// New wraps inner with a cache of at most maxEntries vectors.
// A non-positive maxEntries uses DefaultMaxEntries.
func New(inner driven.EmbeddingService, maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Service{
		inner:      inner,
		maxEntries: maxEntries,
		entries:    make(map[[32]byte][]float32),
	}
}

// Embed returns the cached vector for text, calling the inner service
// on a miss.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch resolves as many inputs as possible from the cache and
// forwards only the misses to the inner service in one call. Output
// order matches input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([][32]byte, len(texts))

	var missTexts []string
	var missIdx []int

	s.mu.Lock()
	for i, text := range texts {
		keys[i] = sha256.Sum256([]byte(text))
		if vec, ok := s.entries[keys[i]]; ok {
			out[i] = vec
			s.hits++
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
			s.misses++
		}
	}
	s.mu.Unlock()

	if len(missTexts) == 0 {
		logger.Debug("Embedding cache: all %d texts served from cache", len(texts))
		return out, nil
	}

	fresh, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for j, i := range missIdx {
		out[i] = fresh[j]
		s.put(keys[i], fresh[j])
	}
	s.mu.Unlock()

	logger.Debug("Embedding cache: %d hits, %d misses", len(texts)-len(missTexts), len(missTexts))
	return out, nil
}

// put inserts under s.mu, evicting the oldest entry when full.
func (s *Service) put(key [32]byte, vec []float32) {
	if _, ok := s.entries[key]; ok {
		return
	}
	if len(s.entries) >= s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	s.entries[key] = vec
	s.order = append(s.order, key)
}

// Stats reports cache hit and miss counts since construction.
func (s *Service) Stats() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Dimensions returns the inner service's vector size.
func (s *Service) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Ping forwards to the inner service.
func (s *Service) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service and drops the cache.
func (s *Service) Close() error {
	s.mu.Lock()
	s.entries = nil
	s.order = nil
	s.mu.Unlock()
	return s.inner.Close()
}
