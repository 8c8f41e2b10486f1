// Package connector tracks rail connector health. Health is refreshed
// by an external monitor independently of any resolution call; the
// resolver only reads it.
package connector

import (
	"context"
	"sync"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/repository"
)

// MemoryHealthStore is an in-memory connector health store. Unknown
// rails report as available, matching the optimistic default of the
// external monitor.
type MemoryHealthStore struct {
	mu       sync.RWMutex
	statuses map[string]rail.HealthStatus
}

// NewMemoryHealthStore creates a store seeded with the given statuses.
func NewMemoryHealthStore(statuses map[string]rail.HealthStatus) *MemoryHealthStore {
	if statuses == nil {
		statuses = make(map[string]rail.HealthStatus)
	}
	return &MemoryHealthStore{statuses: statuses}
}

// StatusOf implements repository.ConnectorHealth.
func (s *MemoryHealthStore) StatusOf(_ context.Context, railID string) (rail.HealthStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.statuses[railID]; ok {
		return status, nil
	}
	return rail.HealthAvailable, nil
}

// SetStatus updates a rail's health. Called by the external monitor.
func (s *MemoryHealthStore) SetStatus(railID string, status rail.HealthStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[railID] = status
}

var _ repository.ConnectorHealth = (*MemoryHealthStore)(nil)
