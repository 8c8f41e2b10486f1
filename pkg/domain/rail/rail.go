// Package rail defines the funding-source domain model: the payment
// rails (wallets, bank accounts, cards, BNPL lines) a user has linked,
// their capabilities, and their connector health.
package rail

import (
	"errors"

	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrRailNotFound is returned when a funding source cannot be found.
	ErrRailNotFound = errors.New("funding source not found")

	// ErrRailNotLinked is returned when an operation targets a rail that
	// is not in the linked state.
	ErrRailNotLinked = errors.New("funding source not linked")

	// ErrRailIDRequired is returned when building a funding source
	// without an identifier.
	ErrRailIDRequired = errors.New("rail id is required")

	// ErrInvalidPriorityRank is returned when a priority rank is below 1.
	ErrInvalidPriorityRank = errors.New("priority rank must be >= 1")
)

// Kind classifies a funding source.
type Kind string

// Funding source kinds.
const (
	KindWallet Kind = "wallet"
	KindBank   Kind = "bank"
	KindCard   Kind = "card"
	KindBNPL   Kind = "bnpl"
)

// LinkedStatus is the linking lifecycle state of a funding source.
type LinkedStatus string

// Linking states.
const (
	StatusLinked   LinkedStatus = "linked"
	StatusUnlinked LinkedStatus = "unlinked"
	StatusPending  LinkedStatus = "pending"
)

// Capability is a tag describing what a rail can do.
type Capability string

// Known capabilities.
const (
	CanPayQR          Capability = "can_pay_qr"
	CanP2P            Capability = "can_p2p"
	CanPayBill        Capability = "can_pay_bill"
	CanRequestMoney   Capability = "can_request_money"
	CanInstallment    Capability = "can_installment"
	UniversalFallback Capability = "universal_fallback"
)

// Capabilities is a set of capability tags.
type Capabilities map[Capability]struct{}

// NewCapabilities builds a capability set from the given tags.
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the capability.
func (cs Capabilities) Has(c Capability) bool {
	_, ok := cs[c]
	return ok
}

// List returns the capabilities as a slice (order unspecified).
func (cs Capabilities) List() []Capability {
	out := make([]Capability, 0, len(cs))
	for c := range cs {
		out = append(out, c)
	}
	return out
}

// HealthStatus is the connector health of a rail, refreshed
// independently of any resolution call.
type HealthStatus string

// Connector health states.
const (
	HealthAvailable   HealthStatus = "available"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnavailable HealthStatus = "unavailable"
)

// FundingSource is one linked payment rail. It is owned by the registry
// and read-only to the resolution core; only the execution layer moves
// money on it, through the charge gateway.
type FundingSource struct {
	ID                string
	UserID            uuid.UUID
	Kind              Kind
	Name              string
	Balance           money.Money
	PriorityRank      int // 1 = most preferred
	LinkedStatus      LinkedStatus
	Available         bool
	Capabilities      Capabilities
	MaxAutoTopUp      money.Money // largest shortfall auto top-up may cover
	ExtraConfirmAbove money.Money // amounts above this need an extra confirmation
}

// IsUniversalFallback reports whether this rail is designated as a
// universal fallback and therefore survives compatibility filtering.
func (f *FundingSource) IsUniversalFallback() bool {
	return f.Capabilities.Has(UniversalFallback)
}

// CanCover reports whether the current balance covers the amount.
func (f *FundingSource) CanCover(amount money.Money) bool {
	ok, err := f.Balance.LessThan(amount)
	if err != nil {
		return false
	}
	return !ok
}

// Shortfall returns amount minus balance, or zero money when the
// balance already covers the amount.
func (f *FundingSource) Shortfall(amount money.Money) money.Money {
	if f.CanCover(amount) {
		return money.Zero(amount.Code())
	}
	short, err := amount.Subtract(f.Balance)
	if err != nil {
		return money.Zero(amount.Code())
	}
	return short
}

// CanTopUp reports whether the shortfall for amount fits within the
// rail's auto top-up allowance.
func (f *FundingSource) CanTopUp(amount money.Money) bool {
	short := f.Shortfall(amount)
	if short.IsZero() {
		return false
	}
	over, err := short.GreaterThan(f.MaxAutoTopUp)
	if err != nil {
		return false
	}
	return !over
}
