package execution

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/service/resolution"
	"github.com/google/uuid"
)

// Machine drives one payment intent through its lifecycle. Each intent
// owns exactly one machine; many machines may run concurrently. All
// state access goes through the mutex.
type Machine struct {
	mu sync.Mutex

	intent     *intent.PaymentIntent
	plan       *resolution.Plan
	guardrails *guardrail.Guardrails

	// attempt numbers the charge attempts for idempotency keys.
	attempt int
	// authAttempts counts failed authorization tries.
	authAttempts int
	// failedRails accumulates rails excluded from re-resolution.
	failedRails map[string]bool

	confirmed bool
	cancelled bool
	// cancelInFlight aborts the suspension currently in progress, if
	// any.
	cancelInFlight context.CancelFunc

	failReason string
	updatedAt  time.Time
}

// Snapshot is a read-only view of a machine for presentation.
type Snapshot struct {
	IntentID      uuid.UUID
	UserID        uuid.UUID
	State         intent.State
	Action        resolution.Action
	ChosenRailID  string
	FallbackChain []string
	Explanation   string
	BlockedReason string
	Executable    bool
	Attempt       int
	FailedRails   []string
	FailReason    string
	UpdatedAt     time.Time
}

// Snapshot returns a consistent view of the machine.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := make([]string, 0, len(m.failedRails))
	for id := range m.failedRails {
		failed = append(failed, id)
	}
	return Snapshot{
		IntentID:      m.intent.ID,
		UserID:        m.intent.UserID,
		State:         m.intent.State,
		Action:        m.plan.Action,
		ChosenRailID:  m.plan.ChosenRailID,
		FallbackChain: append([]string(nil), m.plan.FallbackChain...),
		Explanation:   m.plan.Explanation,
		BlockedReason: m.plan.BlockedReason,
		Executable:    m.plan.Executable,
		Attempt:       m.attempt,
		FailedRails:   failed,
		FailReason:    m.failReason,
		UpdatedAt:     m.updatedAt,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() intent.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent.State
}

// Plan returns the current resolution plan.
func (m *Machine) Plan() *resolution.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan
}

// IsCancelled reports whether the user cancelled the intent.
func (m *Machine) IsCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

// setCancelInFlight records the cancel func for the suspension in
// progress so a user cancel can abort it.
func (m *Machine) setCancelInFlight(cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancelInFlight = cancel
	m.mu.Unlock()
}

// nextAttempt increments and returns the attempt number used for
// idempotency keys.
func (m *Machine) nextAttempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt++
	return m.attempt
}
