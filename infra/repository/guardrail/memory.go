package guardrail

import (
	"context"
	"sync"

	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory guardrail repository for tests and
// dev mode. Increments are serialized per store, matching the atomic
// guarantee of the SQL implementation.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Guardrails
}

// NewMemory creates an empty in-memory guardrail repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]*domain.Guardrails)}
}

// Seed stores a guardrail record directly.
func (r *MemoryRepository) Seed(g *domain.Guardrails) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *g
	r.records[g.UserID] = &copied
}

// Get implements repository.Guardrail.
func (r *MemoryRepository) Get(_ context.Context, userID uuid.UUID) (*domain.Guardrails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.records[userID]
	if !ok {
		return nil, domain.ErrGuardrailsNotFound
	}
	copied := *g
	return &copied, nil
}

// IncrementDailySpent implements repository.Guardrail.
func (r *MemoryRepository) IncrementDailySpent(
	_ context.Context,
	userID uuid.UUID,
	amount money.Money,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.records[userID]
	if !ok {
		return domain.ErrGuardrailsNotFound
	}
	updated, err := g.DailySpentSoFar.Add(amount)
	if err != nil {
		return err
	}
	g.DailySpentSoFar = updated
	return nil
}

// Update implements repository.Guardrail.
func (r *MemoryRepository) Update(_ context.Context, g *domain.Guardrails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *g
	r.records[g.UserID] = &copied
	return nil
}

// SetKillSwitch implements repository.Guardrail.
func (r *MemoryRepository) SetKillSwitch(_ context.Context, userID uuid.UUID, engaged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.records[userID]
	if !ok {
		return domain.ErrGuardrailsNotFound
	}
	g.KillSwitchEngaged = engaged
	return nil
}

var _ repository.Guardrail = (*MemoryRepository)(nil)
