package execution_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/railpay/infra/connector"
	infra_eventbus "github.com/amirasaad/railpay/infra/eventbus"
	"github.com/amirasaad/railpay/infra/idempotency"
	"github.com/amirasaad/railpay/infra/provider/biometric"
	"github.com/amirasaad/railpay/infra/provider/mockgateway"
	"github.com/amirasaad/railpay/infra/registry"
	guardrailrepo "github.com/amirasaad/railpay/infra/repository/guardrail"
	"github.com/amirasaad/railpay/infra/repository/translog"
	"github.com/amirasaad/railpay/internal/fixtures/mocks"
	"github.com/amirasaad/railpay/pkg/decorator"
	"github.com/amirasaad/railpay/pkg/domain/events"
	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/provider"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/amirasaad/railpay/pkg/service/execution"
	guardrailsvc "github.com/amirasaad/railpay/pkg/service/guardrail"
	"github.com/amirasaad/railpay/pkg/service/resolution"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// fixture wires the full execution stack over in-memory infra: a
// wallet rail, a universal-fallback bank rail, permissive guardrails,
// the mock gateway, and the stub authorizer.
type fixture struct {
	userID     uuid.UUID
	rails      *registry.MemoryRegistry
	guardrails *guardrailrepo.MemoryRepository
	logSink    *translog.MemoryRepository
	gateway    *mockgateway.Gateway
	authorizer *biometric.StubAuthorizer
	bus        *infra_eventbus.MemoryEventBus
	svc        *execution.Service
}

func newFixture(t *testing.T, cfg execution.Config) *fixture {
	t.Helper()
	f := &fixture{
		userID:     uuid.New(),
		rails:      registry.NewMemory(),
		guardrails: guardrailrepo.NewMemory(),
		logSink:    translog.NewMemory(),
		gateway:    mockgateway.New(),
		authorizer: biometric.NewStub(),
		bus:        infra_eventbus.NewWithMemory(nil),
	}

	seed := func(b *rail.Builder) {
		src, err := b.WithUserID(f.userID).Build()
		require.NoError(t, err)
		f.rails.Seed(src)
	}
	seed(rail.New().
		WithID("tng-wallet").
		WithKind(rail.KindWallet).
		WithName("Touch 'n Go eWallet").
		WithBalance(25000).
		WithPriorityRank(1).
		WithCapabilities(rail.CanPayQR, rail.CanP2P, rail.CanPayBill).
		WithMaxAutoTopUp(20000))
	seed(rail.New().
		WithID("duitnow-maybank").
		WithKind(rail.KindBank).
		WithName("DuitNow · Maybank").
		WithBalance(500000).
		WithPriorityRank(2).
		WithCapabilities(rail.CanP2P, rail.CanPayBill, rail.UniversalFallback))

	f.guardrails.Seed(&domain.Guardrails{
		UserID:               f.userID,
		MaxSinglePaymentAuto: money.Must(100, money.MYR),
		MaxAutoTopUp:         money.Must(200, money.MYR),
		DailyAutoLimit:       money.Must(1000, money.MYR),
		DailySpentSoFar:      money.Zero(money.MYR),
	})

	resolver := resolution.New(
		f.rails, f.logSink, connector.NewMemoryHealthStore(nil), 20, nil)
	enforcer := guardrailsvc.New(f.guardrails, f.rails, nil)
	f.svc = execution.New(
		cfg, resolver, enforcer, f.gateway, f.authorizer,
		f.logSink, f.bus, nil)
	return f
}

func (f *fixture) begin(t *testing.T, amount float64) *intent.PaymentIntent {
	t.Helper()
	pi, err := intent.NewPaymentIntent(
		f.userID, money.Must(amount, money.MYR),
		intent.MerchantPayment{MerchantRef: "kopitiam"},
	)
	require.NoError(t, err)
	_, err = f.svc.Begin(context.Background(), pi)
	require.NoError(t, err)
	return pi
}

// newService builds an execution service over the fixture's seeded
// rails and guardrails with the given collaborators swapped in.
func (f *fixture) newService(
	cfg execution.Config,
	gateway provider.ChargeGateway,
	authorizer provider.Authorizer,
	logSink repository.TransactionLog,
	bus eventbus.Bus,
) *execution.Service {
	resolver := resolution.New(
		f.rails, f.logSink, connector.NewMemoryHealthStore(nil), 20, nil)
	enforcer := guardrailsvc.New(f.guardrails, f.rails, nil)
	return execution.New(cfg, resolver, enforcer, gateway, authorizer, logSink, bus, nil)
}

func (f *fixture) beginOn(
	t *testing.T,
	svc *execution.Service,
	amount float64,
	details intent.Details,
) *intent.PaymentIntent {
	t.Helper()
	pi, err := intent.NewPaymentIntent(f.userID, money.Must(amount, money.MYR), details)
	require.NoError(t, err)
	_, err = svc.Begin(context.Background(), pi)
	require.NoError(t, err)
	return pi
}

func (f *fixture) eventsOfType(eventType string) []eventbus.Event {
	var out []eventbus.Event
	for _, e := range f.bus.Published() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestBegin_StartsInConfirming(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	m, err := f.svc.Get(pi.ID)
	require.NoError(t, err)
	snap := m.Snapshot()
	assert.Equal(t, intent.StateConfirming, snap.State)
	assert.Equal(t, resolution.ActionProceed, snap.Action)
	assert.Equal(t, "tng-wallet", snap.ChosenRailID)
}

func TestGet_UnknownIntent(t *testing.T) {
	f := newFixture(t, execution.Config{})
	_, err := f.svc.Get(uuid.New())
	assert.ErrorIs(t, err, execution.ErrMachineNotFound)
}

func TestConfirm_HappyPathCompletes(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
	assert.Equal(t, "tng-wallet", snap.ChosenRailID)

	// One charge, no top-up.
	calls := f.gateway.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tng-wallet", calls[0].SourceID)
	assert.Equal(t, int64(5000), calls[0].Amount.Amount())

	// Completion is logged and counted against the daily limit.
	entries, err := f.logSink.ListByUser(context.Background(), f.userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, intent.LogSuccess, entries[0].Status)

	g, err := f.guardrails.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), g.DailySpentSoFar.Amount())

	completed := f.eventsOfType(events.TypePaymentCompleted)
	require.Len(t, completed, 1)
	evt := completed[0].(events.PaymentCompleted)
	assert.Equal(t, pi.ID, evt.IntentID)
	assert.Equal(t, "tng-wallet", evt.RailUsed)
}

func TestConfirm_EmitsStateChanges(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	_, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)

	var states []intent.State
	for _, e := range f.eventsOfType(events.TypeStateChanged) {
		states = append(states, e.(events.StateChanged).To)
	}
	assert.Equal(t, []intent.State{
		intent.StateConfirming,
		intent.StateAuthenticating,
		intent.StateProcessing,
		intent.StateComplete,
	}, states)
}

func TestConfirm_GatedPlanNeedsAcknowledgement(t *testing.T) {
	f := newFixture(t, execution.Config{})
	// RM150 is over the RM100 single-payment auto limit.
	pi := f.begin(t, 150)

	m, err := f.svc.Get(pi.ID)
	require.NoError(t, err)
	require.Equal(t, resolution.ActionRequiresConfirmation, m.Snapshot().Action)

	_, err = f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, execution.ErrConfirmationRequired)
	assert.Equal(t, intent.StateConfirming, m.State())
	assert.Empty(t, f.gateway.Calls())

	snap, err := f.svc.Confirm(context.Background(), pi.ID, true)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
}

func TestConfirm_KillSwitchPausesInsteadOfProcessing(t *testing.T) {
	f := newFixture(t, execution.Config{})
	require.NoError(t,
		f.guardrails.SetKillSwitch(context.Background(), f.userID, true))
	pi := f.begin(t, 50)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, true)
	require.NoError(t, err)
	assert.Equal(t, intent.StatePaused, snap.State)
	assert.False(t, snap.Executable)
	assert.Empty(t, f.gateway.Calls())

	entries, err := f.logSink.ListByUser(context.Background(), f.userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, intent.LogPending, entries[0].Status)
	assert.Equal(t, "kill switch engaged", entries[0].Note)
}

func TestConfirm_UnfundedPlanRejected(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50000)

	m, err := f.svc.Get(pi.ID)
	require.NoError(t, err)
	require.Equal(t, resolution.ActionInsufficientFunds, m.Snapshot().Action)

	_, err = f.svc.Confirm(context.Background(), pi.ID, true)
	assert.ErrorIs(t, err, execution.ErrPlanNotFunded)
	assert.Equal(t, intent.StateConfirming, m.State())
}

func TestConfirm_OnlyFromConfirming(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	_, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, execution.ErrInvalidState)
}

func TestConfirm_FailsOverToNextRail(t *testing.T) {
	f := newFixture(t, execution.Config{})
	f.gateway.FailRail("tng-wallet")
	pi := f.begin(t, 50)

	m, err := f.svc.Get(pi.ID)
	require.NoError(t, err)
	originalChain := m.Snapshot().FallbackChain
	require.NotEmpty(t, originalChain)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
	assert.Equal(t, originalChain[0], snap.ChosenRailID)
	assert.Equal(t, "duitnow-maybank", snap.ChosenRailID)
	assert.Contains(t, snap.FailedRails, "tng-wallet")

	failovers := f.eventsOfType(events.TypeRailFailedOver)
	require.Len(t, failovers, 1)
	evt := failovers[0].(events.RailFailedOver)
	assert.Equal(t, "tng-wallet", evt.FailedRail)
	assert.Equal(t, "duitnow-maybank", evt.NextRail)

	// The fallback sub-path is visible in the state history.
	var states []intent.State
	for _, e := range f.eventsOfType(events.TypeStateChanged) {
		states = append(states, e.(events.StateChanged).To)
	}
	assert.Contains(t, states, intent.StateWalletError)
	assert.Contains(t, states, intent.StateFallbackSelection)
	assert.Contains(t, states, intent.StateFallbackHandoff)
	assert.Contains(t, states, intent.StateFallbackProcessing)
}

func TestConfirm_FallbackExhausted(t *testing.T) {
	f := newFixture(t, execution.Config{})
	f.gateway.FailRail("tng-wallet")
	f.gateway.FailRail("duitnow-maybank")
	pi := f.begin(t, 50)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, execution.ErrFallbackExhausted)
	assert.Equal(t, intent.StateError, snap.State)

	entries, lerr := f.logSink.ListByUser(context.Background(), f.userID, 10)
	require.NoError(t, lerr)
	require.Len(t, entries, 1)
	assert.Equal(t, intent.LogFailed, entries[0].Status)

	failed := f.eventsOfType(events.TypePaymentFailed)
	require.Len(t, failed, 1)
	assert.Equal(t,
		execution.ErrFallbackExhausted.Error(),
		failed[0].(events.PaymentFailed).Reason)
}

func TestConfirm_AuthFailureReturnsToConfirming(t *testing.T) {
	f := newFixture(t, execution.Config{MaxAuthAttempts: 2})
	f.authorizer.SetResult(true)
	pi := f.begin(t, 50)

	_, err := f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, provider.ErrAuthorizationFailed)

	m, gerr := f.svc.Get(pi.ID)
	require.NoError(t, gerr)
	assert.Equal(t, intent.StateConfirming, m.State())
	assert.Empty(t, f.gateway.Calls())

	// A successful retry picks up where the gesture left off.
	f.authorizer.SetResult(false)
	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
	assert.Equal(t, 2, f.authorizer.Calls())
}

func TestConfirm_AuthAttemptsExhausted(t *testing.T) {
	f := newFixture(t, execution.Config{MaxAuthAttempts: 2})
	f.authorizer.SetResult(true)
	pi := f.begin(t, 50)

	_, err := f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, provider.ErrAuthorizationFailed)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, provider.ErrAuthorizationFailed)
	assert.Equal(t, intent.StateError, snap.State)
	assert.Empty(t, f.gateway.Calls())
}

func TestCancel_BeforeProcessing(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	require.NoError(t, f.svc.Cancel(context.Background(), pi.ID))

	m, err := f.svc.Get(pi.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StateError, m.State())
	assert.Empty(t, f.gateway.Calls())

	entries, err := f.logSink.ListByUser(context.Background(), f.userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, intent.LogCancelled, entries[0].Status)
	assert.Equal(t, "cancelled before processing", entries[0].Note)
}

func TestCancel_TerminalIntentRejected(t *testing.T) {
	f := newFixture(t, execution.Config{})
	pi := f.begin(t, 50)

	_, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), pi.ID)
	assert.ErrorIs(t, err, intent.ErrIntentTerminal)
}

func TestConfirm_IdempotentGatewayKeysEachStep(t *testing.T) {
	f := newFixture(t, execution.Config{})
	store := idempotency.NewMemoryStore()
	idem := decorator.NewIdempotentGateway(f.gateway, store, nil)
	svc := f.newService(execution.Config{}, idem, f.authorizer, f.logSink, f.bus)

	// RM299 needs a top-up and a charge, each under its own key.
	pi := f.beginOn(t, svc, 299, intent.MerchantPayment{
		MerchantRef:   "kopitiam",
		MerchantRails: []string{"tng-wallet"},
	})

	snap, err := svc.Confirm(context.Background(), pi.ID, true)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)

	calls := f.gateway.Calls()
	require.Len(t, calls, 2)
	topUpKey := execution.IdempotencyKey(pi.ID, 1, resolution.StepTopUp)
	chargeKey := execution.IdempotencyKey(pi.ID, 1, resolution.StepCharge)
	assert.Equal(t, topUpKey, calls[0].IdempotencyKey)
	assert.Equal(t, chargeKey, calls[1].IdempotencyKey)

	prior, err := store.Get(context.Background(), chargeKey)
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, provider.ChargeSucceeded, prior.Status)
}

func TestConfirm_ChargeTimeoutFailsOver(t *testing.T) {
	f := newFixture(t, execution.Config{ChargeTimeout: 50 * time.Millisecond})
	f.gateway.DelayRail("tng-wallet", time.Second)
	pi := f.begin(t, 50)

	snap, err := f.svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
	assert.Equal(t, "duitnow-maybank", snap.ChosenRailID)
	assert.Contains(t, snap.FailedRails, "tng-wallet")

	// A timed-out charge consumes the fallback chain like a failed one.
	var states []intent.State
	for _, e := range f.eventsOfType(events.TypeStateChanged) {
		states = append(states, e.(events.StateChanged).To)
	}
	assert.Contains(t, states, intent.StateWalletError)

	failovers := f.eventsOfType(events.TypeRailFailedOver)
	require.Len(t, failovers, 1)
	assert.Equal(t, "tng-wallet", failovers[0].(events.RailFailedOver).FailedRail)
}

func TestCancel_LateSuccessFlagsCompensation(t *testing.T) {
	f := newFixture(t, execution.Config{})

	started := make(chan struct{})
	release := make(chan struct{})
	gateway := mocks.NewChargeGateway(t)
	gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&provider.ChargeResult{
			Status:      provider.ChargeSucceeded,
			ProviderRef: "late-success",
		}, nil)
	svc := f.newService(execution.Config{}, gateway, f.authorizer, f.logSink, f.bus)

	pi := f.beginOn(t, svc, 50, intent.MerchantPayment{MerchantRef: "kopitiam"})

	confirmErr := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(context.Background(), pi.ID, false)
		confirmErr <- err
	}()

	<-started
	require.NoError(t, svc.Cancel(context.Background(), pi.ID))
	close(release)

	assert.ErrorIs(t, <-confirmErr, execution.ErrCancelled)

	m, err := svc.Get(pi.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StateError, m.State())

	// Money moved after cancellation: the outcome is flagged, not
	// dropped.
	entries, err := f.logSink.ListByUser(context.Background(), f.userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, intent.LogCancelled, entries[0].Status)
	assert.Equal(t, "flagged_for_compensation", entries[1].Note)

	flagged := f.eventsOfType(events.TypeCompensationFlagged)
	require.Len(t, flagged, 1)
	evt := flagged[0].(events.CompensationFlagged)
	assert.Equal(t, pi.ID, evt.IntentID)
	assert.Equal(t, "tng-wallet", evt.RailID)
}

func TestConfirm_AuthTimeoutIsFatal(t *testing.T) {
	f := newFixture(t, execution.Config{})
	authorizer := mocks.NewAuthorizer(t)
	authorizer.On("Authorize", mock.Anything).Return(context.DeadlineExceeded)
	svc := f.newService(execution.Config{}, f.gateway, authorizer, f.logSink, f.bus)

	pi := f.beginOn(t, svc, 50, intent.MerchantPayment{MerchantRef: "kopitiam"})

	_, err := svc.Confirm(context.Background(), pi.ID, false)
	assert.ErrorIs(t, err, provider.ErrGatewayTimeout)

	m, gerr := svc.Get(pi.ID)
	require.NoError(t, gerr)
	assert.Equal(t, intent.StateError, m.State())
	assert.Empty(t, f.gateway.Calls())
}

func TestConfirm_LogSinkFailureDoesNotFailPayment(t *testing.T) {
	f := newFixture(t, execution.Config{})
	logSink := mocks.NewTransactionLog(t)
	logSink.On("Append", mock.Anything, mock.Anything).
		Return(errors.New("sink unavailable"))
	svc := f.newService(execution.Config{}, f.gateway, f.authorizer, logSink, f.bus)

	pi := f.beginOn(t, svc, 50, intent.MerchantPayment{MerchantRef: "kopitiam"})

	snap, err := svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
}

func TestConfirm_BusFailureDoesNotFailPayment(t *testing.T) {
	f := newFixture(t, execution.Config{})
	bus := mocks.NewBus(t)
	bus.On("Emit", mock.Anything, mock.Anything).
		Return(errors.New("stream unavailable"))
	svc := f.newService(execution.Config{}, f.gateway, f.authorizer, f.logSink, bus)

	pi := f.beginOn(t, svc, 50, intent.MerchantPayment{MerchantRef: "kopitiam"})

	snap, err := svc.Confirm(context.Background(), pi.ID, false)
	require.NoError(t, err)
	assert.Equal(t, intent.StateComplete, snap.State)
}

func TestIdempotencyKey_Format(t *testing.T) {
	id := uuid.MustParse("6d2f8b4a-9c31-4e0f-8f5d-2a7b1c9e0d43")
	assert.Equal(t,
		"6d2f8b4a-9c31-4e0f-8f5d-2a7b1c9e0d43:2:charge",
		execution.IdempotencyKey(id, 2, resolution.StepCharge))
	assert.Equal(t,
		"6d2f8b4a-9c31-4e0f-8f5d-2a7b1c9e0d43:1:top_up",
		execution.IdempotencyKey(id, 1, resolution.StepTopUp))
}
