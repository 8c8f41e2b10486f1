// Package events defines the domain events emitted while a payment
// intent moves through execution.
package events

import (
	"time"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// Event type names.
const (
	TypeStateChanged        = "execution.state_changed"
	TypePaymentCompleted    = "execution.payment_completed"
	TypePaymentFailed       = "execution.payment_failed"
	TypeRailFailedOver      = "execution.rail_failed_over"
	TypeCompensationFlagged = "execution.compensation_flagged"
)

// StateChanged is emitted on every lifecycle transition of an intent.
type StateChanged struct {
	IntentID uuid.UUID
	UserID   uuid.UUID
	From     intent.State
	To       intent.State
	At       time.Time
}

// Type implements eventbus.Event.
func (StateChanged) Type() string { return TypeStateChanged }

// PaymentCompleted is emitted when an intent reaches Complete.
type PaymentCompleted struct {
	IntentID uuid.UUID
	UserID   uuid.UUID
	RailUsed string
	Amount   money.Money
	At       time.Time
}

// Type implements eventbus.Event.
func (PaymentCompleted) Type() string { return TypePaymentCompleted }

// PaymentFailed is emitted when an intent reaches Error.
type PaymentFailed struct {
	IntentID uuid.UUID
	UserID   uuid.UUID
	Reason   string
	At       time.Time
}

// Type implements eventbus.Event.
func (PaymentFailed) Type() string { return TypePaymentFailed }

// RailFailedOver is emitted when a charge failure hands execution to
// the next rail in the fallback chain.
type RailFailedOver struct {
	IntentID   uuid.UUID
	UserID     uuid.UUID
	FailedRail string
	NextRail   string
	At         time.Time
}

// Type implements eventbus.Event.
func (RailFailedOver) Type() string { return TypeRailFailedOver }

// CompensationFlagged is emitted when a late success callback arrives
// after cancellation and money may have moved.
type CompensationFlagged struct {
	IntentID uuid.UUID
	UserID   uuid.UUID
	RailID   string
	Amount   money.Money
	At       time.Time
}

// Type implements eventbus.Event.
func (CompensationFlagged) Type() string { return TypeCompensationFlagged }
