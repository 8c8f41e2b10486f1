// Package registry provides the funding source registry the resolver
// reads. In production the registry is an external service; this
// in-memory implementation backs dev mode, the CLI, and tests.
package registry

import (
	"context"
	"sync"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory funding source registry.
type MemoryRegistry struct {
	mu      sync.RWMutex
	sources map[uuid.UUID]map[string]*rail.FundingSource
}

// NewMemory creates an empty registry.
func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{
		sources: make(map[uuid.UUID]map[string]*rail.FundingSource),
	}
}

// Seed registers a funding source.
func (r *MemoryRegistry) Seed(src *rail.FundingSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sources[src.UserID] == nil {
		r.sources[src.UserID] = make(map[string]*rail.FundingSource)
	}
	copied := *src
	r.sources[src.UserID][src.ID] = &copied
}

// ListLinked implements repository.FundingSource.
func (r *MemoryRegistry) ListLinked(
	_ context.Context,
	userID uuid.UUID,
) ([]*rail.FundingSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*rail.FundingSource, 0, len(r.sources[userID]))
	for _, src := range r.sources[userID] {
		if src.LinkedStatus != rail.StatusLinked {
			continue
		}
		copied := *src
		out = append(out, &copied)
	}
	return out, nil
}

// Get implements repository.FundingSource.
func (r *MemoryRegistry) Get(
	_ context.Context,
	userID uuid.UUID,
	railID string,
) (*rail.FundingSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[userID][railID]
	if !ok {
		return nil, rail.ErrRailNotFound
	}
	copied := *src
	return &copied, nil
}

// SetBalance updates a rail's balance. Used by dev-mode wiring to
// mirror gateway movements.
func (r *MemoryRegistry) SetBalance(userID uuid.UUID, railID string, balance money.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[userID][railID]
	if !ok {
		return rail.ErrRailNotFound
	}
	src.Balance = balance
	return nil
}

var _ repository.FundingSource = (*MemoryRegistry)(nil)
