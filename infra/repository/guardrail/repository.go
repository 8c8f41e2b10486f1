// Package guardrail persists per-user risk limit records. The daily
// spend counter is only ever mutated through an atomic SQL increment,
// never read-modify-write.
package guardrail

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// New creates a gorm-backed guardrail repository.
func New(db *gorm.DB) repository.Guardrail {
	return &gormRepository{db: db}
}

// Get implements repository.Guardrail.
func (r *gormRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Guardrails, error) {
	var m Guardrails
	err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGuardrailsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading guardrails: %w", err)
	}
	return toDomain(&m)
}

// IncrementDailySpent implements repository.Guardrail with a single
// atomic UPDATE.
func (r *gormRepository) IncrementDailySpent(
	ctx context.Context,
	userID uuid.UUID,
	amount money.Money,
) error {
	res := r.db.WithContext(ctx).
		Model(&Guardrails{}).
		Where("user_id = ?", userID).
		UpdateColumn("daily_spent_so_far", gorm.Expr("daily_spent_so_far + ?", amount.Amount()))
	if res.Error != nil {
		return fmt.Errorf("incrementing daily spend: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrGuardrailsNotFound
	}
	return nil
}

// Update implements repository.Guardrail.
func (r *gormRepository) Update(ctx context.Context, g *domain.Guardrails) error {
	m := fromDomain(g)
	return r.db.WithContext(ctx).Save(m).Error
}

// SetKillSwitch implements repository.Guardrail.
func (r *gormRepository) SetKillSwitch(ctx context.Context, userID uuid.UUID, engaged bool) error {
	res := r.db.WithContext(ctx).
		Model(&Guardrails{}).
		Where("user_id = ?", userID).
		UpdateColumn("kill_switch_engaged", engaged)
	if res.Error != nil {
		return fmt.Errorf("setting kill switch: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrGuardrailsNotFound
	}
	return nil
}
