package translog

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory transaction log and history source
// for tests and dev mode.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*intent.TransactionLogEntry
}

// NewMemory creates an empty in-memory transaction log.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{}
}

// Append implements repository.TransactionLog.
func (r *MemoryRepository) Append(_ context.Context, entry *intent.TransactionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

// ListByUser implements repository.TransactionLog.
func (r *MemoryRepository) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	limit int,
) ([]*intent.TransactionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*intent.TransactionLogEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			copied := *r.entries[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// RecentByRail implements repository.TransactionHistory.
func (r *MemoryRepository) RecentByRail(
	_ context.Context,
	userID uuid.UUID,
	days int,
) (map[string]int, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range r.entries {
		if e.UserID == userID && e.Status == intent.LogSuccess && e.Timestamp.After(since) {
			counts[e.RailUsed]++
		}
	}
	return counts, nil
}

// SeedHistory appends count synthetic successful entries for a rail so
// the history factor has data. Test and dev helper.
func (r *MemoryRepository) SeedHistory(userID uuid.UUID, railID string, count int, amount money.Money) {
	for i := 0; i < count; i++ {
		entry := intent.TransactionLogEntry{
			IntentID:  uuid.New(),
			UserID:    userID,
			RailUsed:  railID,
			Amount:    amount,
			Status:    intent.LogSuccess,
			Timestamp: time.Now().Add(-time.Duration(i+1) * time.Hour),
		}
		_ = r.Append(context.Background(), &entry)
	}
}

var (
	_ repository.TransactionLog     = (*MemoryRepository)(nil)
	_ repository.TransactionHistory = (*MemoryRepository)(nil)
)
