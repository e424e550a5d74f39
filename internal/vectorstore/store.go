// Package vectorstore presents one logical vector store backed by up to
// two physical indexes: a local on-disk index and a remote managed
// index.
//
// The active backends are fixed at construction by the store mode
// (local-only, remote-only, dual), so callers never branch on backend
// availability themselves. In dual mode the local index is the
// durability guarantee: local write failures are fatal, remote write
// failures are logged and swallowed, and an unreachable remote degrades
// searches to local-only for that call.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Store is the logical vector store.
type Store struct {
	mode   domain.StoreMode
	local  driven.VectorBackend
	remote driven.VectorBackend
}

// New creates a store in the given mode. The backends required by the
// mode must be non-nil; the others are ignored.
func New(mode domain.StoreMode, local, remote driven.VectorBackend) (*Store, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("vectorstore: invalid mode %q", mode)
	}
	if mode.UsesLocal() && local == nil {
		return nil, fmt.Errorf("vectorstore: mode %s requires a local backend", mode)
	}
	if mode.UsesRemote() && remote == nil {
		return nil, fmt.Errorf("vectorstore: mode %s requires a remote backend", mode)
	}

	s := &Store{mode: mode}
	if mode.UsesLocal() {
		s.local = local
	}
	if mode.UsesRemote() {
		s.remote = remote
	}
	return s, nil
}

// Mode returns the active store mode.
func (s *Store) Mode() domain.StoreMode {
	return s.mode
}

// Upsert writes chunk vectors to every enabled backend.
//
// In dual mode the local write is authoritative: a local failure fails
// the call, a remote failure is logged and swallowed. In single-backend
// modes the only backend's failure is fatal.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if s.local != nil {
		if err := s.local.Upsert(ctx, chunks); err != nil {
			return fmt.Errorf("local upsert: %w", err)
		}
		logger.Debug("Upserted %d vectors to local index", len(chunks))
	}

	if s.remote != nil {
		if err := s.remote.Upsert(ctx, chunks); err != nil {
			if s.mode == domain.StoreModeRemoteOnly {
				return fmt.Errorf("remote upsert: %w", err)
			}
			logger.Warn("Remote upsert failed, local write is authoritative: %v", err)
		} else {
			logger.Debug("Upserted %d vectors to remote index", len(chunks))
		}
	}

	return nil
}

// Search queries every enabled backend for topK candidates each and
// merges the results: duplicates keep the higher normalized score with
// the local chunk metadata as canonical; the merged set is sorted by
// score descending with ties broken by sequence index ascending, then
// truncated to topK.
//
// If the remote backend is unreachable in dual mode, the call degrades
// to local-only results with a warning instead of failing.
func (s *Store) Search(ctx context.Context, query []float32, topK int, documentID string) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return []domain.SearchResult{}, nil
	}

	var localHits, remoteHits []driven.VectorHit
	var localErr, remoteErr error

	// Both backends answer the same question; query them in parallel.
	var wg sync.WaitGroup
	if s.local != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			localHits, localErr = s.local.Search(ctx, query, topK, documentID)
		}()
	}
	if s.remote != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remoteHits, remoteErr = s.remote.Search(ctx, query, topK, documentID)
		}()
	}
	wg.Wait()

	switch s.mode {
	case domain.StoreModeLocalOnly:
		if localErr != nil {
			return nil, fmt.Errorf("local search: %w", localErr)
		}
	case domain.StoreModeRemoteOnly:
		if remoteErr != nil {
			return nil, fmt.Errorf("remote search: %w", remoteErr)
		}
	case domain.StoreModeDual:
		if localErr != nil && remoteErr != nil {
			return nil, fmt.Errorf("%w: local=%v, remote=%v", domain.ErrStoreUnavailable, localErr, remoteErr)
		}
		if remoteErr != nil {
			logger.Warn("Remote search failed, degrading to local-only: %v", remoteErr)
		}
		if localErr != nil {
			logger.Warn("Local search failed, using remote results only: %v", localErr)
		}
	}

	merged := merge(localHits, remoteHits)
	if len(merged) > topK {
		merged = merged[:topK]
	}

	logger.Debug("Vector search: %d local + %d remote hits merged to %d",
		len(localHits), len(remoteHits), len(merged))
	return merged, nil
}

// Stats returns per-backend availability flags and vector counts.
// An unreachable backend is reported unavailable, never an error.
func (s *Store) Stats(ctx context.Context) *domain.StoreStats {
	stats := &domain.StoreStats{Mode: s.mode.String()}

	for _, backend := range []driven.VectorBackend{s.local, s.remote} {
		if backend == nil {
			continue
		}
		bs := domain.BackendStats{Name: string(backend.Origin())}
		if count, err := backend.Count(ctx); err != nil {
			logger.Warn("Backend %s unavailable: %v", bs.Name, err)
		} else {
			bs.Available = true
			bs.VectorCount = count
		}
		stats.Backends = append(stats.Backends, bs)
	}

	return stats
}

// DeleteDocument removes a document's vectors from every enabled
// backend. Failures are collected so a purge removes as much as it can.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	var errs []error
	if s.local != nil {
		if err := s.local.DeleteDocument(ctx, documentID); err != nil {
			errs = append(errs, fmt.Errorf("local delete: %w", err))
		}
	}
	if s.remote != nil {
		if err := s.remote.DeleteDocument(ctx, documentID); err != nil {
			errs = append(errs, fmt.Errorf("remote delete: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete document %s: %v", documentID, errs)
	}
	return nil
}

// Close closes every enabled backend.
func (s *Store) Close() error {
	var errs []error
	if s.local != nil {
		if err := s.local.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing backends: %v", errs)
	}
	return nil
}

// merge combines hits from both backends. Chunk IDs appearing in both
// keep the higher score; the local chunk metadata is canonical because
// the local index is authoritative for content.
func merge(localHits, remoteHits []driven.VectorHit) []domain.SearchResult {
	byID := make(map[string]domain.SearchResult, len(localHits)+len(remoteHits))

	for _, hit := range localHits {
		byID[hit.ChunkID] = domain.SearchResult{
			ChunkID: hit.ChunkID,
			Score:   hit.Score,
			Origin:  domain.OriginLocal,
			Chunk:   hit.Chunk,
		}
	}

	for _, hit := range remoteHits {
		existing, seen := byID[hit.ChunkID]
		if !seen {
			byID[hit.ChunkID] = domain.SearchResult{
				ChunkID: hit.ChunkID,
				Score:   hit.Score,
				Origin:  domain.OriginRemote,
				Chunk:   hit.Chunk,
			}
			continue
		}
		if hit.Score > existing.Score {
			// Higher remote score wins, but the local copy of the
			// chunk stays canonical.
			existing.Score = hit.Score
			existing.Origin = domain.OriginRemote
			byID[hit.ChunkID] = existing
		}
	}

	results := make([]domain.SearchResult, 0, len(byID))
	for _, r := range byID {
		results = append(results, r)
	}

	// Deterministic order: score descending, earlier document position
	// wins ties.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.SequenceIndex < results[j].Chunk.SequenceIndex
	})

	return results
}
