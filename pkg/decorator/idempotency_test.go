package decorator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/railpay/infra/idempotency"
	"github.com/amirasaad/railpay/infra/provider/mockgateway"
	"github.com/amirasaad/railpay/internal/fixtures/mocks"
	"github.com/amirasaad/railpay/pkg/decorator"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/provider"
)

func chargeReq(key string) provider.ChargeRequest {
	return provider.ChargeRequest{
		SourceID:       "tng-wallet",
		Amount:         money.Must(12.50, money.MYR),
		IdempotencyKey: key,
	}
}

func TestCharge_FirstCallDelegatesAndRecords(t *testing.T) {
	inner := mockgateway.New()
	store := idempotency.NewMemoryStore()
	gw := decorator.NewIdempotentGateway(inner, store, nil)

	res, err := gw.Charge(context.Background(), chargeReq("k1"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.False(t, res.Replayed)
	assert.Len(t, inner.Calls(), 1)

	recorded, err := store.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.Equal(t, res.ProviderRef, recorded.ProviderRef)
}

func TestCharge_SecondCallReplaysWithoutDelegating(t *testing.T) {
	inner := mockgateway.New()
	store := idempotency.NewMemoryStore()
	gw := decorator.NewIdempotentGateway(inner, store, nil)

	first, err := gw.Charge(context.Background(), chargeReq("k1"))
	require.NoError(t, err)

	second, err := gw.Charge(context.Background(), chargeReq("k1"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ProviderRef, second.ProviderRef)
	assert.Len(t, inner.Calls(), 1)

	// A different key executes again.
	_, err = gw.Charge(context.Background(), chargeReq("k2"))
	require.NoError(t, err)
	assert.Len(t, inner.Calls(), 2)
}

func TestTopUp_ReplaysFailedResultsToo(t *testing.T) {
	inner := mockgateway.New()
	inner.FailRail("tng-wallet")
	store := idempotency.NewMemoryStore()
	gw := decorator.NewIdempotentGateway(inner, store, nil)

	first, err := gw.TopUp(context.Background(), chargeReq("k1"))
	require.NoError(t, err)
	assert.Equal(t, provider.ChargeFailed, first.Status)

	inner.RecoverRail("tng-wallet")
	second, err := gw.TopUp(context.Background(), chargeReq("k1"))
	require.NoError(t, err)
	assert.Equal(t, provider.ChargeFailed, second.Status)
	assert.True(t, second.Replayed)
	assert.Len(t, inner.Calls(), 1)
}

func TestCharge_LookupErrorIsFatal(t *testing.T) {
	store := mocks.NewIdempotencyStore(t)
	store.On("Get", mock.Anything, "k1").
		Return(nil, errors.New("redis down"))
	gw := decorator.NewIdempotentGateway(mockgateway.New(), store, nil)

	_, err := gw.Charge(context.Background(), chargeReq("k1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idempotency lookup")
}

func TestCharge_RecordFailureDoesNotFailTheCharge(t *testing.T) {
	store := mocks.NewIdempotencyStore(t)
	store.On("Get", mock.Anything, "k1").Return(nil, nil)
	store.On("Put", mock.Anything, "k1", mock.Anything).
		Return(errors.New("redis down"))
	gw := decorator.NewIdempotentGateway(mockgateway.New(), store, nil)

	res, err := gw.Charge(context.Background(), chargeReq("k1"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

func TestCharge_GatewayErrorIsNotRecorded(t *testing.T) {
	inner := mocks.NewChargeGateway(t)
	inner.On("Charge", mock.Anything, mock.Anything).
		Return(nil, provider.ErrGatewayTimeout)
	store := idempotency.NewMemoryStore()
	gw := decorator.NewIdempotentGateway(inner, store, nil)

	_, err := gw.Charge(context.Background(), chargeReq("k1"))
	assert.ErrorIs(t, err, provider.ErrGatewayTimeout)

	recorded, gerr := store.Get(context.Background(), "k1")
	require.NoError(t, gerr)
	assert.Nil(t, recorded)
}
