package resolution

import (
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/scoring"
	"github.com/google/uuid"
)

// Action is the resolver's verdict for an intent.
type Action string

// Plan actions.
const (
	// ActionProceed means the plan may execute automatically.
	ActionProceed Action = "PROCEED"
	// ActionRequiresConfirmation means a guardrail removed the
	// automatic path; an explicit user confirmation is needed first.
	ActionRequiresConfirmation Action = "REQUIRES_CONFIRMATION"
	// ActionInsufficientFunds means no candidate could fund the amount
	// even with top-up capacity.
	ActionInsufficientFunds Action = "INSUFFICIENT_FUNDS"
	// ActionBlocked means every candidate was incompatible with the
	// counterparty.
	ActionBlocked Action = "BLOCKED"
)

// StepKind discriminates plan steps.
type StepKind string

// Step kinds.
const (
	StepTopUp  StepKind = "top_up"
	StepCharge StepKind = "charge"
)

// Step is one concrete execution action of a plan.
type Step struct {
	Kind     StepKind
	SourceID string
	Amount   money.Money
}

// Plan is the resolver's output for one intent: the chosen rail, the
// ordered fallback chain, and the concrete steps to run. A plan is
// produced fresh per resolution call and never mutated in place; a
// failed step triggers a new resolution excluding the failed rail.
type Plan struct {
	IntentID      uuid.UUID
	Action        Action
	ChosenRailID  string
	FallbackChain []string // ordered, chosen rail excluded
	Steps         []Step
	Explanation   string
	BlockedReason string
	// Executable is false when the kill switch forbids any automatic
	// execution regardless of Action.
	Executable bool
	// Scores holds every candidate's score, ranked, for display.
	Scores []scoring.RailScore
}

// CanAutoExecute reports whether the plan may run without further user
// interaction.
func (p *Plan) CanAutoExecute() bool {
	return p.Executable && p.Action == ActionProceed
}

// IsFunded reports whether the plan found a rail able to fund the
// intent.
func (p *Plan) IsFunded() bool {
	return p.Action == ActionProceed || p.Action == ActionRequiresConfirmation
}
