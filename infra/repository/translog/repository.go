// Package translog persists the append-only transaction log and serves
// the 30-day per-rail success counts the history score factor reads.
package translog

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// New creates a gorm-backed transaction log repository. It also serves
// as the transaction history source for scoring.
func New(db *gorm.DB) *gormRepository { //nolint:revive // constructor returns unexported impl
	return &gormRepository{db: db}
}

// Append implements repository.TransactionLog.
func (r *gormRepository) Append(ctx context.Context, entry *intent.TransactionLogEntry) error {
	m := toModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("appending transaction log: %w", err)
	}
	return nil
}

// ListByUser implements repository.TransactionLog.
func (r *gormRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*intent.TransactionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []TransactionLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing transaction log: %w", err)
	}

	entries := make([]*intent.TransactionLogEntry, 0, len(models))
	for i := range models {
		entry, err := toEntry(&models[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecentByRail implements repository.TransactionHistory: successful
// payment counts per rail over the trailing window.
func (r *gormRepository) RecentByRail(
	ctx context.Context,
	userID uuid.UUID,
	days int,
) (map[string]int, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	type railCount struct {
		RailUsed string
		Count    int
	}
	var rows []railCount
	err := r.db.WithContext(ctx).
		Model(&TransactionLog{}).
		Select("rail_used, COUNT(*) as count").
		Where("user_id = ? AND status = ? AND created_at >= ?",
			userID, string(intent.LogSuccess), since).
		Group("rail_used").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting rail history: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.RailUsed] = row.Count
	}
	return counts, nil
}

var (
	_ repository.TransactionLog     = (*gormRepository)(nil)
	_ repository.TransactionHistory = (*gormRepository)(nil)
)
