package intent

// State is one phase of the payment execution lifecycle. The state
// machine advances only on discrete events: confirmation, authorization
// result, charge result, timeout, cancellation.
type State string

// Lifecycle states.
const (
	StateScanning           State = "scanning"
	StateConfirming         State = "confirming"
	StateAuthenticating     State = "authenticating"
	StateProcessing         State = "processing"
	StateWalletError        State = "wallet_error"
	StateFallbackSelection  State = "fallback_selection"
	StateFallbackHandoff    State = "fallback_handoff"
	StateFallbackProcessing State = "fallback_processing"
	StateComplete           State = "complete"
	StateError              State = "error"
	StatePaused             State = "paused"
)

// IsTerminal reports whether the state ends the lifecycle.
func (s State) IsTerminal() bool {
	switch s {
	case StateComplete, StateError, StatePaused:
		return true
	}
	return false
}

// transitions is the allowed lifecycle graph. Every non-terminal state
// may additionally fail to StateError on timeout or cancellation.
var transitions = map[State][]State{
	StateScanning:           {StateConfirming},
	StateConfirming:         {StateAuthenticating, StatePaused},
	StateAuthenticating:     {StateProcessing, StateConfirming},
	StateProcessing:         {StateComplete, StateWalletError},
	StateWalletError:        {StateFallbackSelection},
	StateFallbackSelection:  {StateFallbackHandoff},
	StateFallbackHandoff:    {StateFallbackProcessing},
	StateFallbackProcessing: {StateComplete, StateWalletError},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to
// next.
func (s State) CanTransitionTo(next State) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateError {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
