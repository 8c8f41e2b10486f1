// Package provider defines the external gateway ports the execution
// layer suspends on: the biometric authorizer and the rail charge
// gateway. Implementations live under infra.
package provider

import (
	"context"
	"errors"

	"github.com/amirasaad/railpay/pkg/money"
)

var (
	// ErrAuthorizationFailed is returned when the external authorizer
	// rejects the user. Retryable within the execution layer's bounds.
	ErrAuthorizationFailed = errors.New("authorization failed")

	// ErrChargeFailed is returned when a charge or top-up against a
	// rail fails. Triggers fallback.
	ErrChargeFailed = errors.New("charge failed")

	// ErrGatewayTimeout is returned when the gateway does not answer
	// within the configured timeout. Fatal to the attempt, treated like
	// a charge failure for fallback purposes.
	ErrGatewayTimeout = errors.New("gateway timeout")
)

// ChargeStatus is the gateway-reported outcome of a charge or top-up.
type ChargeStatus string

// Charge outcomes.
const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

// ChargeRequest is one charge or top-up call against a rail.
// IdempotencyKey is derived from (intentID, attemptNumber); repeating a
// call with the same key must return the original result without
// re-executing.
type ChargeRequest struct {
	SourceID       string
	Amount         money.Money
	IdempotencyKey string
}

// ChargeResult is the gateway's answer to a charge or top-up.
type ChargeResult struct {
	Status      ChargeStatus
	ProviderRef string
	// Replayed is true when the result was served from the idempotency
	// record of an earlier call with the same key.
	Replayed bool
}

// Succeeded reports whether the charge went through.
func (r *ChargeResult) Succeeded() bool {
	return r != nil && r.Status == ChargeSucceeded
}

// ChargeGateway moves money on a rail. Both calls suspend on external
// I/O and must honour ctx cancellation and deadlines.
type ChargeGateway interface {
	// Charge debits the rail for the amount.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// TopUp credits the rail with the amount from its backing source.
	TopUp(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Authorizer verifies the user before processing. Suspending; must
// honour ctx cancellation and deadlines.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// IdempotencyStore records charge results by idempotency key so that
// retried calls replay the original result.
type IdempotencyStore interface {
	// Get returns the stored result for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*ChargeResult, error)
	// Put stores the result for key.
	Put(ctx context.Context, key string, result *ChargeResult) error
}
