// Package guardrail defines the per-user risk limits that gate
// automatic payment execution.
package guardrail

import (
	"errors"

	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrGuardrailExceeded marks a plan that needs explicit user
	// confirmation before automatic execution. It never blocks the
	// payment itself.
	ErrGuardrailExceeded = errors.New("guardrail exceeded, confirmation required")

	// ErrKillSwitchEngaged is returned when the user's kill switch
	// halts execution.
	ErrKillSwitchEngaged = errors.New("kill switch engaged")

	// ErrGuardrailsNotFound is returned when no guardrail record exists
	// for a user.
	ErrGuardrailsNotFound = errors.New("guardrails not found")
)

// Guardrails is the per-user risk limit record. dailySpentSoFar is the
// only field mutated after execution, and only through the repository's
// atomic increment; the kill switch is toggled only by explicit user
// action.
type Guardrails struct {
	UserID               uuid.UUID
	MaxSinglePaymentAuto money.Money
	MaxAutoTopUp         money.Money
	DailyAutoLimit       money.Money
	DailySpentSoFar      money.Money
	KillSwitchEngaged    bool
}

// AllowsAutoPayment reports whether a payment of amount fits under the
// single-payment auto limit.
func (g *Guardrails) AllowsAutoPayment(amount money.Money) bool {
	over, err := amount.GreaterThan(g.MaxSinglePaymentAuto)
	if err != nil {
		return false
	}
	return !over
}

// AllowsAutoTopUp reports whether a top-up of amount fits under the
// auto top-up limit.
func (g *Guardrails) AllowsAutoTopUp(amount money.Money) bool {
	over, err := amount.GreaterThan(g.MaxAutoTopUp)
	if err != nil {
		return false
	}
	return !over
}

// WithinDailyLimit reports whether spending amount on top of today's
// spend stays under the daily auto limit.
func (g *Guardrails) WithinDailyLimit(amount money.Money) bool {
	projected, err := g.DailySpentSoFar.Add(amount)
	if err != nil {
		return false
	}
	over, err := projected.GreaterThan(g.DailyAutoLimit)
	if err != nil {
		return false
	}
	return !over
}
