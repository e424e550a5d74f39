package services

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driving"
)

// Ensure Status implements the interface.
var _ driving.StatusService = (*Status)(nil)

// Status reports store health for the status command.
type Status struct {
	store VectorStore
}

// NewStatus creates the status service.
func NewStatus(store VectorStore) *Status {
	return &Status{store: store}
}

// Stats returns per-backend availability and vector counts. An
// unreachable backend is reported unavailable, never an error.
func (s *Status) Stats(ctx context.Context) (*domain.StoreStats, error) {
	return s.store.Stats(ctx), nil
}
