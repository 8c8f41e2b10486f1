package translog

import (
	"time"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// TransactionLog is the persisted append-only audit record of a
// terminal payment outcome.
type TransactionLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	IntentID  uuid.UUID `gorm:"type:uuid;index"`
	UserID    uuid.UUID `gorm:"type:uuid;index"`
	RailUsed  string    `gorm:"type:varchar(64);index"`
	Amount    int64     `gorm:"not null"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'MYR'"`
	Status    string    `gorm:"type:varchar(16);not null"`
	Note      string    `gorm:"type:varchar(256)"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the table name for the TransactionLog model.
func (TransactionLog) TableName() string {
	return "transaction_logs"
}

func toModel(e *intent.TransactionLogEntry) *TransactionLog {
	return &TransactionLog{
		ID:        uuid.New(),
		IntentID:  e.IntentID,
		UserID:    e.UserID,
		RailUsed:  e.RailUsed,
		Amount:    e.Amount.Amount(),
		Currency:  e.Amount.Code().String(),
		Status:    string(e.Status),
		Note:      e.Note,
		CreatedAt: e.Timestamp,
	}
}

func toEntry(m *TransactionLog) (*intent.TransactionLogEntry, error) {
	amount, err := money.NewFromSmallestUnit(m.Amount, money.Code(m.Currency))
	if err != nil {
		return nil, err
	}
	return &intent.TransactionLogEntry{
		IntentID:  m.IntentID,
		UserID:    m.UserID,
		RailUsed:  m.RailUsed,
		Amount:    amount,
		Status:    intent.LogStatus(m.Status),
		Timestamp: m.CreatedAt,
		Note:      m.Note,
	}, nil
}
