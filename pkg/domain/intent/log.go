package intent

import (
	"time"

	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// LogStatus is the terminal outcome recorded for an intent.
type LogStatus string

// Terminal outcomes.
const (
	LogSuccess   LogStatus = "success"
	LogPending   LogStatus = "pending"
	LogFailed    LogStatus = "failed"
	LogCancelled LogStatus = "cancelled"
)

// TransactionLogEntry is an append-only audit record of a terminal
// payment outcome.
type TransactionLogEntry struct {
	IntentID  uuid.UUID
	UserID    uuid.UUID
	RailUsed  string
	Amount    money.Money
	Status    LogStatus
	Timestamp time.Time
	Note      string
}
