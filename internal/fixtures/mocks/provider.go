package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/amirasaad/railpay/pkg/provider"
)

// ChargeGateway mocks provider.ChargeGateway.
type ChargeGateway struct {
	mock.Mock
}

// NewChargeGateway creates a ChargeGateway mock that asserts its
// expectations on test cleanup.
func NewChargeGateway(t *testing.T) *ChargeGateway {
	m := &ChargeGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ChargeGateway) Charge(
	ctx context.Context,
	req provider.ChargeRequest,
) (*provider.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

func (m *ChargeGateway) TopUp(
	ctx context.Context,
	req provider.ChargeRequest,
) (*provider.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

// Authorizer mocks provider.Authorizer.
type Authorizer struct {
	mock.Mock
}

// NewAuthorizer creates an Authorizer mock that asserts its
// expectations on test cleanup.
func NewAuthorizer(t *testing.T) *Authorizer {
	m := &Authorizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Authorizer) Authorize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// IdempotencyStore mocks provider.IdempotencyStore.
type IdempotencyStore struct {
	mock.Mock
}

// NewIdempotencyStore creates an IdempotencyStore mock that asserts
// its expectations on test cleanup.
func NewIdempotencyStore(t *testing.T) *IdempotencyStore {
	m := &IdempotencyStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *IdempotencyStore) Get(
	ctx context.Context,
	key string,
) (*provider.ChargeResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

func (m *IdempotencyStore) Put(
	ctx context.Context,
	key string,
	result *provider.ChargeResult,
) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}

// Bus mocks eventbus.Bus.
type Bus struct {
	mock.Mock
}

// NewBus creates a Bus mock that asserts its expectations on test
// cleanup.
func NewBus(t *testing.T) *Bus {
	m := &Bus{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Bus) Emit(ctx context.Context, event eventbus.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *Bus) Register(eventType string, handler eventbus.HandlerFunc) {
	m.Called(eventType, handler)
}
