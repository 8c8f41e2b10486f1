package guardrail_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	guardrailrepo "github.com/amirasaad/railpay/infra/repository/guardrail"
	"github.com/amirasaad/railpay/infra/registry"
	"github.com/amirasaad/railpay/internal/fixtures/mocks"
	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
	guardrailsvc "github.com/amirasaad/railpay/pkg/service/guardrail"
	"github.com/amirasaad/railpay/pkg/service/resolution"
)

type fixture struct {
	userID     uuid.UUID
	guardrails *guardrailrepo.MemoryRepository
	rails      *registry.MemoryRegistry
	svc        *guardrailsvc.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		userID:     uuid.New(),
		guardrails: guardrailrepo.NewMemory(),
		rails:      registry.NewMemory(),
	}
	f.guardrails.Seed(&domain.Guardrails{
		UserID:               f.userID,
		MaxSinglePaymentAuto: money.Must(100, money.MYR),
		MaxAutoTopUp:         money.Must(200, money.MYR),
		DailyAutoLimit:       money.Must(500, money.MYR),
		DailySpentSoFar:      money.Zero(money.MYR),
	})

	src, err := rail.New().
		WithID("tng-wallet").
		WithUserID(f.userID).
		WithKind(rail.KindWallet).
		WithName("Touch 'n Go eWallet").
		WithBalance(100000).
		WithCapabilities(rail.CanPayQR).
		Build()
	require.NoError(t, err)
	f.rails.Seed(src)

	f.svc = guardrailsvc.New(f.guardrails, f.rails, nil)
	return f
}

func (f *fixture) planFor(t *testing.T, amount float64) (*intent.PaymentIntent, *resolution.Plan) {
	t.Helper()
	pi, err := intent.NewPaymentIntent(
		f.userID, money.Must(amount, money.MYR),
		intent.MerchantPayment{MerchantRef: "m"},
	)
	require.NoError(t, err)
	plan := &resolution.Plan{
		IntentID:     pi.ID,
		Action:       resolution.ActionProceed,
		ChosenRailID: "tng-wallet",
		Steps: []resolution.Step{
			{Kind: resolution.StepCharge, SourceID: "tng-wallet", Amount: pi.Amount},
		},
		Executable: true,
	}
	return pi, plan
}

func TestEnforce_SmallPaymentProceeds(t *testing.T) {
	f := newFixture(t)
	pi, plan := f.planFor(t, 50)

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionProceed, plan.Action)
	assert.True(t, plan.Executable)
}

func TestEnforce_OverSingleLimitRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	// RM299 against a RM100 single-payment auto limit.
	pi, plan := f.planFor(t, 299)

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionRequiresConfirmation, plan.Action)
	// Confirmation is a gate, not a block.
	assert.True(t, plan.Executable)
}

func TestEnforce_TopUpOverLimitRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	pi, plan := f.planFor(t, 90)
	plan.Steps = append([]resolution.Step{{
		Kind:     resolution.StepTopUp,
		SourceID: "tng-wallet",
		Amount:   money.Must(250, money.MYR),
	}}, plan.Steps...)

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionRequiresConfirmation, plan.Action)
}

func TestEnforce_DailyLimitCountsSpentSoFar(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.guardrails.IncrementDailySpent(
		context.Background(), f.userID, money.Must(460, money.MYR),
	))
	// RM50 fits every per-payment limit but busts the RM500 daily cap.
	pi, plan := f.planFor(t, 50)

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionRequiresConfirmation, plan.Action)
}

func TestEnforce_RailExtraConfirmThreshold(t *testing.T) {
	f := newFixture(t)
	src, err := rail.New().
		WithID("visa-4821").
		WithUserID(f.userID).
		WithKind(rail.KindCard).
		WithName("Visa ···4821").
		WithBalance(1000000).
		WithCapabilities(rail.CanPayQR).
		WithExtraConfirmAbove(5000).
		Build()
	require.NoError(t, err)
	f.rails.Seed(src)

	pi, plan := f.planFor(t, 80)
	plan.ChosenRailID = "visa-4821"

	_, err = f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionRequiresConfirmation, plan.Action)
}

func TestEnforce_KillSwitchRemovesExecutability(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.SetKillSwitch(context.Background(), f.userID, true))
	pi, plan := f.planFor(t, 10)

	g, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.True(t, g.KillSwitchEngaged)
	assert.False(t, plan.Executable)
}

func TestEnforce_UnfundedPlanLeftUntouched(t *testing.T) {
	f := newFixture(t)
	pi, plan := f.planFor(t, 1000)
	plan.Action = resolution.ActionInsufficientFunds
	plan.ChosenRailID = ""
	plan.Steps = nil

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	require.NoError(t, err)
	assert.Equal(t, resolution.ActionInsufficientFunds, plan.Action)
}

func TestEnforce_MissingGuardrails(t *testing.T) {
	f := newFixture(t)
	pi, plan := f.planFor(t, 10)
	pi.UserID = uuid.New() // no record seeded

	_, err := f.svc.Enforce(context.Background(), pi, plan)
	assert.ErrorIs(t, err, domain.ErrGuardrailsNotFound)
}

func TestRecordCompletion_AccumulatesDailySpend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RecordCompletion(ctx, f.userID, money.Must(120, money.MYR)))
	require.NoError(t, f.svc.RecordCompletion(ctx, f.userID, money.Must(80, money.MYR)))

	g, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), g.DailySpentSoFar.Amount())
}

func TestUpdate_ReplacesLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	g.MaxSinglePaymentAuto = money.Must(1000, money.MYR)
	require.NoError(t, f.svc.Update(ctx, g))

	got, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), got.MaxSinglePaymentAuto.Amount())
}

func TestRecordCompletion_PropagatesStoreError(t *testing.T) {
	guardrails := mocks.NewGuardrail(t)
	userID := uuid.New()
	guardrails.On("IncrementDailySpent", mock.Anything, userID, mock.Anything).
		Return(errors.New("db down"))
	svc := guardrailsvc.New(guardrails, registry.NewMemory(), nil)

	err := svc.RecordCompletion(context.Background(), userID, money.Must(50, money.MYR))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incrementing daily spend")
}
