// Package decorator provides decorators for cross-cutting concerns.
// IdempotentGateway wraps a charge gateway with idempotency-key replay
// so that retried charges never double-debit a rail.
package decorator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/railpay/pkg/provider"
)

// IdempotentGateway wraps a ChargeGateway: before delegating, it checks
// the idempotency store for an earlier result under the same key and
// replays it instead of re-executing.
type IdempotentGateway struct {
	next   provider.ChargeGateway
	store  provider.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotentGateway decorates next with idempotency-key replay.
func NewIdempotentGateway(
	next provider.ChargeGateway,
	store provider.IdempotencyStore,
	logger *slog.Logger,
) *IdempotentGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotentGateway{
		next:   next,
		store:  store,
		logger: logger.With("decorator", "IdempotentGateway"),
	}
}

// Charge implements provider.ChargeGateway.
func (g *IdempotentGateway) Charge(
	ctx context.Context,
	req provider.ChargeRequest,
) (*provider.ChargeResult, error) {
	return g.execute(ctx, req, g.next.Charge)
}

// TopUp implements provider.ChargeGateway.
func (g *IdempotentGateway) TopUp(
	ctx context.Context,
	req provider.ChargeRequest,
) (*provider.ChargeResult, error) {
	return g.execute(ctx, req, g.next.TopUp)
}

func (g *IdempotentGateway) execute(
	ctx context.Context,
	req provider.ChargeRequest,
	call func(context.Context, provider.ChargeRequest) (*provider.ChargeResult, error),
) (*provider.ChargeResult, error) {
	prior, err := g.store.Get(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if prior != nil {
		g.logger.Info("replaying idempotent result",
			"key", req.IdempotencyKey, "status", prior.Status)
		replay := *prior
		replay.Replayed = true
		return &replay, nil
	}

	result, err := call(ctx, req)
	if err != nil {
		return nil, err
	}
	if putErr := g.store.Put(ctx, req.IdempotencyKey, result); putErr != nil {
		// The charge already happened; a failed record write must not
		// fail the payment.
		g.logger.Error("failed to record idempotency result",
			"key", req.IdempotencyKey, "error", putErr)
	}
	return result, nil
}

var _ provider.ChargeGateway = (*IdempotentGateway)(nil)
