// Package intent defines the payment intent aggregate: a single
// payment request moving through resolution and execution, its
// kind-specific details, and its lifecycle states.
package intent

import (
	"errors"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrAmountMustBePositive is returned when an intent amount is not positive.
	ErrAmountMustBePositive = errors.New("payment amount must be positive")

	// ErrIntentNotFound is returned when an intent cannot be found.
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrIntentTerminal is returned when mutating an intent that has
	// already reached a terminal state.
	ErrIntentTerminal = errors.New("payment intent is terminal")

	// ErrInvalidTransition is returned on a state transition the
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDetailsRequired is returned when an intent is built without
	// kind-specific details.
	ErrDetailsRequired = errors.New("intent details are required")
)

// Kind discriminates the payment intent variants.
type Kind string

// Intent kinds.
const (
	KindPayMerchant  Kind = "pay_merchant"
	KindSendMoney    Kind = "send_money"
	KindRequestMoney Kind = "request_money"
	KindPayBill      Kind = "pay_bill"
)

// Details is the kind-specific payload of an intent. Each variant
// carries only the fields it needs; the scorer and resolver switch
// exhaustively on the concrete type.
type Details interface {
	Kind() Kind
	// RequiredCapability is the rail capability this intent kind needs.
	RequiredCapability() rail.Capability
	// AcceptedRails is the set of rail IDs the counterparty accepts.
	// Empty means any universal rail.
	AcceptedRails() []string
}

// MerchantPayment is a QR or terminal payment to a merchant.
type MerchantPayment struct {
	MerchantRef   string
	MerchantRails []string // rails the merchant accepts; empty = any
}

func (MerchantPayment) Kind() Kind { return KindPayMerchant }
func (MerchantPayment) RequiredCapability() rail.Capability { return rail.CanPayQR }
func (d MerchantPayment) AcceptedRails() []string { return d.MerchantRails }

// P2PSend is a direct transfer to another user.
type P2PSend struct {
	RecipientRef string
}

func (P2PSend) Kind() Kind { return KindSendMoney }
func (P2PSend) RequiredCapability() rail.Capability { return rail.CanP2P }
func (P2PSend) AcceptedRails() []string { return nil }

// MoneyRequest is an incoming request for money from another user.
type MoneyRequest struct {
	RequesterRef string
}

func (MoneyRequest) Kind() Kind { return KindRequestMoney }
func (MoneyRequest) RequiredCapability() rail.Capability { return rail.CanRequestMoney }
func (MoneyRequest) AcceptedRails() []string { return nil }

// BillPayment is a payment against a registered biller.
type BillPayment struct {
	BillerRef   string
	BillerRails []string // rails the biller accepts; empty = any
}

func (BillPayment) Kind() Kind { return KindPayBill }
func (BillPayment) RequiredCapability() rail.Capability { return rail.CanPayBill }
func (d BillPayment) AcceptedRails() []string { return d.BillerRails }

// PaymentIntent is one payment request pending resolution and
// execution. Only the execution state machine mutates it; it becomes
// immutable once a terminal state is reached.
type PaymentIntent struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Amount    money.Money
	Details   Details
	CreatedAt time.Time
	State     State
}

// NewPaymentIntent creates an intent in the Scanning state.
func NewPaymentIntent(
	userID uuid.UUID,
	amount money.Money,
	details Details,
) (*PaymentIntent, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}
	if details == nil {
		return nil, ErrDetailsRequired
	}
	return &PaymentIntent{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Details:   details,
		CreatedAt: time.Now(),
		State:     StateScanning,
	}, nil
}

// Kind returns the discriminator of the intent's details.
func (p *PaymentIntent) Kind() Kind {
	return p.Details.Kind()
}

// TransitionTo advances the intent's state, enforcing the lifecycle.
func (p *PaymentIntent) TransitionTo(next State) error {
	if p.State.IsTerminal() {
		return ErrIntentTerminal
	}
	if !p.State.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	p.State = next
	return nil
}
