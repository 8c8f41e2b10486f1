// Package mocks provides testify mocks for the repository and
// provider ports.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
)

// FundingSource mocks repository.FundingSource.
type FundingSource struct {
	mock.Mock
}

// NewFundingSource creates a FundingSource mock that asserts its
// expectations on test cleanup.
func NewFundingSource(t *testing.T) *FundingSource {
	m := &FundingSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *FundingSource) ListLinked(
	ctx context.Context,
	userID uuid.UUID,
) ([]*rail.FundingSource, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rail.FundingSource), args.Error(1)
}

func (m *FundingSource) Get(
	ctx context.Context,
	userID uuid.UUID,
	railID string,
) (*rail.FundingSource, error) {
	args := m.Called(ctx, userID, railID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rail.FundingSource), args.Error(1)
}

// TransactionHistory mocks repository.TransactionHistory.
type TransactionHistory struct {
	mock.Mock
}

// NewTransactionHistory creates a TransactionHistory mock that asserts
// its expectations on test cleanup.
func NewTransactionHistory(t *testing.T) *TransactionHistory {
	m := &TransactionHistory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TransactionHistory) RecentByRail(
	ctx context.Context,
	userID uuid.UUID,
	days int,
) (map[string]int, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// ConnectorHealth mocks repository.ConnectorHealth.
type ConnectorHealth struct {
	mock.Mock
}

// NewConnectorHealth creates a ConnectorHealth mock that asserts its
// expectations on test cleanup.
func NewConnectorHealth(t *testing.T) *ConnectorHealth {
	m := &ConnectorHealth{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ConnectorHealth) StatusOf(
	ctx context.Context,
	railID string,
) (rail.HealthStatus, error) {
	args := m.Called(ctx, railID)
	return args.Get(0).(rail.HealthStatus), args.Error(1)
}

// Guardrail mocks repository.Guardrail.
type Guardrail struct {
	mock.Mock
}

// NewGuardrail creates a Guardrail mock that asserts its expectations
// on test cleanup.
func NewGuardrail(t *testing.T) *Guardrail {
	m := &Guardrail{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Guardrail) Get(ctx context.Context, userID uuid.UUID) (*guardrail.Guardrails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guardrail.Guardrails), args.Error(1)
}

func (m *Guardrail) IncrementDailySpent(
	ctx context.Context,
	userID uuid.UUID,
	amount money.Money,
) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *Guardrail) Update(ctx context.Context, g *guardrail.Guardrails) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *Guardrail) SetKillSwitch(ctx context.Context, userID uuid.UUID, engaged bool) error {
	args := m.Called(ctx, userID, engaged)
	return args.Error(0)
}

// TransactionLog mocks repository.TransactionLog.
type TransactionLog struct {
	mock.Mock
}

// NewTransactionLog creates a TransactionLog mock that asserts its
// expectations on test cleanup.
func NewTransactionLog(t *testing.T) *TransactionLog {
	m := &TransactionLog{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TransactionLog) Append(ctx context.Context, entry *intent.TransactionLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *TransactionLog) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*intent.TransactionLogEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*intent.TransactionLogEntry), args.Error(1)
}
