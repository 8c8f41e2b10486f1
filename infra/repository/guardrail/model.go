package guardrail

import (
	"time"

	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// Guardrails is the persisted per-user risk limit record. Monetary
// amounts are stored in the smallest currency unit.
type Guardrails struct {
	UserID               uuid.UUID `gorm:"type:uuid;primary_key"`
	Currency             string    `gorm:"type:varchar(3);not null;default:'MYR'"`
	MaxSinglePaymentAuto int64     `gorm:"not null;default:0"`
	MaxAutoTopUp         int64     `gorm:"not null;default:0"`
	DailyAutoLimit       int64     `gorm:"not null;default:0"`
	DailySpentSoFar      int64     `gorm:"not null;default:0"`
	KillSwitchEngaged    bool      `gorm:"not null;default:false"`
	UpdatedAt            time.Time
	CreatedAt            time.Time
}

// TableName specifies the table name for the Guardrails model.
func (Guardrails) TableName() string {
	return "guardrails"
}

func toDomain(m *Guardrails) (*domain.Guardrails, error) {
	code := money.Code(m.Currency)
	maxSingle, err := money.NewFromSmallestUnit(m.MaxSinglePaymentAuto, code)
	if err != nil {
		return nil, err
	}
	maxTopUp, err := money.NewFromSmallestUnit(m.MaxAutoTopUp, code)
	if err != nil {
		return nil, err
	}
	dailyLimit, err := money.NewFromSmallestUnit(m.DailyAutoLimit, code)
	if err != nil {
		return nil, err
	}
	dailySpent, err := money.NewFromSmallestUnit(m.DailySpentSoFar, code)
	if err != nil {
		return nil, err
	}
	return &domain.Guardrails{
		UserID:               m.UserID,
		MaxSinglePaymentAuto: maxSingle,
		MaxAutoTopUp:         maxTopUp,
		DailyAutoLimit:       dailyLimit,
		DailySpentSoFar:      dailySpent,
		KillSwitchEngaged:    m.KillSwitchEngaged,
	}, nil
}

func fromDomain(g *domain.Guardrails) *Guardrails {
	return &Guardrails{
		UserID:               g.UserID,
		Currency:             g.MaxSinglePaymentAuto.Code().String(),
		MaxSinglePaymentAuto: g.MaxSinglePaymentAuto.Amount(),
		MaxAutoTopUp:         g.MaxAutoTopUp.Amount(),
		DailyAutoLimit:       g.DailyAutoLimit.Amount(),
		DailySpentSoFar:      g.DailySpentSoFar.Amount(),
		KillSwitchEngaged:    g.KillSwitchEngaged,
	}
}
