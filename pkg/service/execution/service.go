// Package execution drives payment intents through the
// authorization/execution lifecycle: confirmation, biometric
// authorization, step execution against the charge gateway, and
// recovery from mid-flight rail failures via the fallback chain.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/railpay/pkg/domain/events"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/amirasaad/railpay/pkg/provider"
	"github.com/amirasaad/railpay/pkg/repository"
	guardrailsvc "github.com/amirasaad/railpay/pkg/service/guardrail"
	"github.com/amirasaad/railpay/pkg/service/resolution"
	"github.com/google/uuid"
)

var (
	// ErrMachineNotFound is returned when no execution machine exists
	// for the intent.
	ErrMachineNotFound = errors.New("execution machine not found")

	// ErrConfirmationRequired is returned when a guardrail-gated plan
	// is confirmed without an explicit acknowledgement.
	ErrConfirmationRequired = errors.New("explicit confirmation required")

	// ErrFallbackExhausted is returned when every rail in the fallback
	// chain has failed.
	ErrFallbackExhausted = errors.New("fallback chain exhausted")

	// ErrCancelled marks a user-initiated cancellation. Not an error
	// condition in itself, but it terminates the intent.
	ErrCancelled = errors.New("cancelled by user")

	// ErrInvalidState is returned when an operation does not apply to
	// the machine's current state.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrPlanNotFunded is returned when confirming a plan that found
	// no rail able to fund the intent.
	ErrPlanNotFunded = errors.New("plan is not funded")
)

// Config bounds the execution layer's suspensions and retries.
type Config struct {
	// AuthTimeout bounds the wait on the external authorizer.
	AuthTimeout time.Duration
	// ChargeTimeout bounds each wait on the charge gateway.
	ChargeTimeout time.Duration
	// MaxAuthAttempts bounds authorization retries per intent.
	MaxAuthAttempts int
	// MaxFallbacks bounds how many failed rails an intent may consume.
	MaxFallbacks int
}

func (c Config) withDefaults() Config {
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = 30 * time.Second
	}
	if c.ChargeTimeout <= 0 {
		c.ChargeTimeout = 15 * time.Second
	}
	if c.MaxAuthAttempts <= 0 {
		c.MaxAuthAttempts = 3
	}
	if c.MaxFallbacks <= 0 {
		c.MaxFallbacks = 3
	}
	return c
}

// Service owns the execution machines, one per intent, and the
// per-rail serialization that keeps two concurrent intents from
// over-drawing the same funding source.
type Service struct {
	cfg        Config
	resolver   *resolution.Service
	enforcer   *guardrailsvc.Service
	gateway    provider.ChargeGateway
	authorizer provider.Authorizer
	logSink    repository.TransactionLog
	bus        eventbus.Bus
	logger     *slog.Logger

	mu        sync.Mutex
	machines  map[uuid.UUID]*Machine
	railLocks map[string]*sync.Mutex
}

// New creates the execution service.
func New(
	cfg Config,
	resolver *resolution.Service,
	enforcer *guardrailsvc.Service,
	gateway provider.ChargeGateway,
	authorizer provider.Authorizer,
	logSink repository.TransactionLog,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:        cfg.withDefaults(),
		resolver:   resolver,
		enforcer:   enforcer,
		gateway:    gateway,
		authorizer: authorizer,
		logSink:    logSink,
		bus:        bus,
		logger:     logger.With("service", "Execution"),
		machines:   make(map[uuid.UUID]*Machine),
		railLocks:  make(map[string]*sync.Mutex),
	}
}

// IdempotencyKey derives the key for one charge or top-up call from
// the intent, the attempt number, and the step kind.
func IdempotencyKey(intentID uuid.UUID, attempt int, kind resolution.StepKind) string {
	return fmt.Sprintf("%s:%d:%s", intentID, attempt, kind)
}

// Begin resolves and guardrail-checks the intent, creates its machine,
// and advances it from Scanning to Confirming. The returned machine's
// plan carries the resolution verdict, including blocked outcomes.
func (s *Service) Begin(ctx context.Context, pi *intent.PaymentIntent) (*Machine, error) {
	plan, err := s.resolver.Resolve(ctx, pi)
	if err != nil {
		return nil, err
	}
	g, err := s.enforcer.Enforce(ctx, pi, plan)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		intent:      pi,
		plan:        plan,
		guardrails:  g,
		failedRails: make(map[string]bool),
		updatedAt:   time.Now(),
	}
	if err := s.transition(ctx, m, intent.StateConfirming); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.machines[pi.ID] = m
	s.mu.Unlock()

	s.logger.Info("execution started",
		"intent", pi.ID, "action", plan.Action, "chosen", plan.ChosenRailID)
	return m, nil
}

// Get returns the machine for an intent.
func (s *Service) Get(intentID uuid.UUID) (*Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[intentID]
	if !ok {
		return nil, ErrMachineNotFound
	}
	return m, nil
}

// Confirm is the user's confirmation gesture. It authorizes the user
// and, on success, executes the plan's steps, following the fallback
// chain on rail failures. Guardrail-gated plans require acknowledged
// to be true.
func (s *Service) Confirm(
	ctx context.Context,
	intentID uuid.UUID,
	acknowledged bool,
) (Snapshot, error) {
	m, err := s.Get(intentID)
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	if m.intent.State != intent.StateConfirming {
		state := m.intent.State
		m.mu.Unlock()
		return m.Snapshot(), fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	plan := m.plan
	if !plan.IsFunded() {
		m.mu.Unlock()
		return m.Snapshot(), fmt.Errorf("%w: %s", ErrPlanNotFunded, plan.BlockedReason)
	}
	if !plan.Executable {
		// Kill switch engaged at confirmation time.
		m.mu.Unlock()
		if err := s.transition(ctx, m, intent.StatePaused); err != nil {
			return m.Snapshot(), err
		}
		s.appendLog(ctx, m, intent.LogPending, "kill switch engaged")
		return m.Snapshot(), nil
	}
	if plan.Action == resolution.ActionRequiresConfirmation && !acknowledged {
		m.mu.Unlock()
		return m.Snapshot(), ErrConfirmationRequired
	}
	m.confirmed = true
	m.mu.Unlock()

	if err := s.transition(ctx, m, intent.StateAuthenticating); err != nil {
		return m.Snapshot(), err
	}
	if err := s.authenticate(ctx, m); err != nil {
		return m.Snapshot(), err
	}
	if err := s.transition(ctx, m, intent.StateProcessing); err != nil {
		return m.Snapshot(), err
	}
	return s.process(ctx, m)
}

// Cancel is a user-initiated cancellation. It aborts any in-flight
// suspension and terminates the intent. A late success arriving after
// cancellation is reconciled by the processing loop, not dropped.
func (s *Service) Cancel(ctx context.Context, intentID uuid.UUID) error {
	m, err := s.Get(intentID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.intent.State.IsTerminal() {
		m.mu.Unlock()
		return intent.ErrIntentTerminal
	}
	m.cancelled = true
	m.failReason = ErrCancelled.Error()
	if m.cancelInFlight != nil {
		m.cancelInFlight()
	}
	inFlight := m.cancelInFlight != nil
	m.mu.Unlock()

	// When a suspension is in flight the processing loop owns the
	// terminal transition so it can reconcile a late success first.
	if inFlight {
		return nil
	}
	if err := s.transition(ctx, m, intent.StateError); err != nil {
		return err
	}
	s.appendLog(ctx, m, intent.LogCancelled, "cancelled before processing")
	return nil
}

// authenticate runs one bounded authorization attempt. Failure returns
// the machine to Confirming until attempts run out; timeout is fatal.
func (s *Service) authenticate(ctx context.Context, m *Machine) error {
	actx, cancel := context.WithTimeout(ctx, s.cfg.AuthTimeout)
	m.setCancelInFlight(cancel)
	err := s.authorizer.Authorize(actx)
	m.setCancelInFlight(nil)
	cancel()

	if m.IsCancelled() {
		s.fail(ctx, m, intent.LogCancelled, ErrCancelled.Error())
		return ErrCancelled
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.fail(ctx, m, intent.LogFailed, "authorization timed out")
		return fmt.Errorf("%w: authorization", provider.ErrGatewayTimeout)
	}

	m.mu.Lock()
	m.authAttempts++
	attempts := m.authAttempts
	m.mu.Unlock()

	if attempts >= s.cfg.MaxAuthAttempts {
		s.fail(ctx, m, intent.LogFailed, "authorization attempts exhausted")
		return provider.ErrAuthorizationFailed
	}
	// Retryable: back to Confirming for another gesture.
	if terr := s.transition(ctx, m, intent.StateConfirming); terr != nil {
		return terr
	}
	return provider.ErrAuthorizationFailed
}

// process executes the current plan's steps, recomputing the plan with
// failed rails excluded whenever a charge fails or times out, until
// completion or fallback exhaustion.
func (s *Service) process(ctx context.Context, m *Machine) (Snapshot, error) {
	cursor := newFallbackCursor(s.cfg.MaxFallbacks)

	for {
		err := s.runSteps(ctx, m)
		if err == nil {
			if cerr := s.complete(ctx, m); cerr != nil {
				return m.Snapshot(), cerr
			}
			return m.Snapshot(), nil
		}
		if errors.Is(err, ErrCancelled) {
			s.fail(ctx, m, intent.LogCancelled, ErrCancelled.Error())
			return m.Snapshot(), ErrCancelled
		}
		if !errors.Is(err, provider.ErrChargeFailed) &&
			!errors.Is(err, provider.ErrGatewayTimeout) {
			s.fail(ctx, m, intent.LogFailed, err.Error())
			return m.Snapshot(), err
		}

		// Rail failure: enter the fallback sub-path.
		failedRail := m.Plan().ChosenRailID
		m.mu.Lock()
		m.failedRails[failedRail] = true
		m.mu.Unlock()
		if terr := s.transition(ctx, m, intent.StateWalletError); terr != nil {
			return m.Snapshot(), terr
		}
		s.logger.Warn("rail failed during processing",
			"intent", m.intent.ID, "rail", failedRail, "cause", err)

		if !cursor.fail(failedRail) {
			s.fail(ctx, m, intent.LogFailed, ErrFallbackExhausted.Error())
			return m.Snapshot(), ErrFallbackExhausted
		}
		if terr := s.transition(ctx, m, intent.StateFallbackSelection); terr != nil {
			return m.Snapshot(), terr
		}

		next, rerr := s.resolver.ResolveExcluding(ctx, m.intent, cursor.excluded)
		if rerr != nil || !next.IsFunded() {
			s.fail(ctx, m, intent.LogFailed, ErrFallbackExhausted.Error())
			return m.Snapshot(), ErrFallbackExhausted
		}

		m.mu.Lock()
		prevExecutable := m.plan.Executable
		next.Executable = prevExecutable
		m.plan = next
		m.mu.Unlock()

		if emitErr := s.bus.Emit(ctx, events.RailFailedOver{
			IntentID:   m.intent.ID,
			UserID:     m.intent.UserID,
			FailedRail: failedRail,
			NextRail:   next.ChosenRailID,
			At:         time.Now(),
		}); emitErr != nil {
			s.logger.Error("failed to emit failover event", "error", emitErr)
		}

		if terr := s.transition(ctx, m, intent.StateFallbackHandoff); terr != nil {
			return m.Snapshot(), terr
		}
		if terr := s.transition(ctx, m, intent.StateFallbackProcessing); terr != nil {
			return m.Snapshot(), terr
		}
	}
}

// runSteps executes every step of the current plan against the
// gateway. Charge calls on the same funding source are serialized.
func (s *Service) runSteps(ctx context.Context, m *Machine) error {
	attempt := m.nextAttempt()
	plan := m.Plan()

	for _, step := range plan.Steps {
		req := provider.ChargeRequest{
			SourceID:       step.SourceID,
			Amount:         step.Amount,
			IdempotencyKey: IdempotencyKey(m.intent.ID, attempt, step.Kind),
		}

		lock := s.railLock(step.SourceID)
		lock.Lock()
		cctx, cancel := context.WithTimeout(ctx, s.cfg.ChargeTimeout)
		m.setCancelInFlight(cancel)

		var (
			res *provider.ChargeResult
			err error
		)
		switch step.Kind {
		case resolution.StepTopUp:
			res, err = s.gateway.TopUp(cctx, req)
		default:
			res, err = s.gateway.Charge(cctx, req)
		}

		m.setCancelInFlight(nil)
		cancel()
		lock.Unlock()

		if m.IsCancelled() {
			// A success that lands after cancellation means money may
			// have moved; it must be flagged, never dropped.
			if err == nil && res.Succeeded() {
				s.flagCompensation(ctx, m, step)
			}
			return ErrCancelled
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s on %s", provider.ErrGatewayTimeout, step.Kind, step.SourceID)
			}
			if errors.Is(err, provider.ErrChargeFailed) || errors.Is(err, provider.ErrGatewayTimeout) {
				return err
			}
			return fmt.Errorf("%w: %v", provider.ErrChargeFailed, err)
		}
		if !res.Succeeded() {
			return fmt.Errorf("%w: %s on %s", provider.ErrChargeFailed, step.Kind, step.SourceID)
		}
	}
	return nil
}

func (s *Service) complete(ctx context.Context, m *Machine) error {
	if err := s.transition(ctx, m, intent.StateComplete); err != nil {
		return err
	}
	s.appendLog(ctx, m, intent.LogSuccess, "")

	if err := s.enforcer.RecordCompletion(ctx, m.intent.UserID, m.intent.Amount); err != nil {
		s.logger.Error("failed to record daily spend",
			"intent", m.intent.ID, "error", err)
	}
	if err := s.bus.Emit(ctx, events.PaymentCompleted{
		IntentID: m.intent.ID,
		UserID:   m.intent.UserID,
		RailUsed: m.Plan().ChosenRailID,
		Amount:   m.intent.Amount,
		At:       time.Now(),
	}); err != nil {
		s.logger.Error("failed to emit completion event", "error", err)
	}
	s.logger.Info("payment complete",
		"intent", m.intent.ID, "rail", m.Plan().ChosenRailID)
	return nil
}

// fail terminates the intent in Error (or leaves it terminal if it
// already is) and records the outcome.
func (s *Service) fail(ctx context.Context, m *Machine, status intent.LogStatus, reason string) {
	m.mu.Lock()
	m.failReason = reason
	alreadyTerminal := m.intent.State.IsTerminal()
	m.mu.Unlock()

	if alreadyTerminal {
		// Cancel already terminated and logged the intent.
		return
	}
	if err := s.transition(ctx, m, intent.StateError); err != nil {
		s.logger.Error("failed to transition to error",
			"intent", m.intent.ID, "error", err)
	}
	s.appendLog(ctx, m, status, reason)

	if status != intent.LogCancelled {
		if err := s.bus.Emit(ctx, events.PaymentFailed{
			IntentID: m.intent.ID,
			UserID:   m.intent.UserID,
			Reason:   reason,
			At:       time.Now(),
		}); err != nil {
			s.logger.Error("failed to emit failure event", "error", err)
		}
	}
}

func (s *Service) flagCompensation(ctx context.Context, m *Machine, step resolution.Step) {
	s.logger.Warn("late success after cancellation, flagging for compensation",
		"intent", m.intent.ID, "rail", step.SourceID)
	s.appendLog(ctx, m, intent.LogCancelled, "flagged_for_compensation")
	if err := s.bus.Emit(ctx, events.CompensationFlagged{
		IntentID: m.intent.ID,
		UserID:   m.intent.UserID,
		RailID:   step.SourceID,
		Amount:   step.Amount,
		At:       time.Now(),
	}); err != nil {
		s.logger.Error("failed to emit compensation event", "error", err)
	}
}

func (s *Service) appendLog(ctx context.Context, m *Machine, status intent.LogStatus, note string) {
	entry := &intent.TransactionLogEntry{
		IntentID:  m.intent.ID,
		UserID:    m.intent.UserID,
		RailUsed:  m.Plan().ChosenRailID,
		Amount:    m.intent.Amount,
		Status:    status,
		Timestamp: time.Now(),
		Note:      note,
	}
	if err := s.logSink.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append transaction log",
			"intent", m.intent.ID, "error", err)
	}
}

func (s *Service) transition(ctx context.Context, m *Machine, next intent.State) error {
	m.mu.Lock()
	from := m.intent.State
	err := m.intent.TransitionTo(next)
	if err == nil {
		m.updatedAt = time.Now()
	}
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("transition %s -> %s: %w", from, next, err)
	}

	if emitErr := s.bus.Emit(ctx, events.StateChanged{
		IntentID: m.intent.ID,
		UserID:   m.intent.UserID,
		From:     from,
		To:       next,
		At:       time.Now(),
	}); emitErr != nil {
		s.logger.Error("failed to emit state change", "error", emitErr)
	}
	return nil
}

// railLock returns the mutex serializing mutations on one funding
// source.
func (s *Service) railLock(sourceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.railLocks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.railLocks[sourceID] = lock
	}
	return lock
}
