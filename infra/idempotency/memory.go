// Package idempotency stores charge results by idempotency key so that
// retried gateway calls replay the original result instead of
// re-executing.
package idempotency

import (
	"context"
	"sync"

	"github.com/amirasaad/railpay/pkg/provider"
)

// MemoryStore is an in-memory idempotency store for tests and
// single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]provider.ChargeResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]provider.ChargeResult)}
}

// Get implements provider.IdempotencyStore.
func (s *MemoryStore) Get(_ context.Context, key string) (*provider.ChargeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[key]
	if !ok {
		return nil, nil
	}
	out := res
	return &out, nil
}

// Put implements provider.IdempotencyStore.
func (s *MemoryStore) Put(_ context.Context, key string, result *provider.ChargeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[key] = *result
	return nil
}

var _ provider.IdempotencyStore = (*MemoryStore)(nil)
