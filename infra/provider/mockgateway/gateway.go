// Package mockgateway simulates the rail charge gateway for tests and
// local development.
//
// Usage:
//   - Charge/TopUp succeed immediately unless the rail has been marked
//     failing via FailRail, or a per-call delay is configured.
//   - Calls honour ctx cancellation and deadlines, so timeout and
//     cancellation paths can be exercised without a real gateway.
//
// This is NOT for production use. Real gateways confirm asynchronously
// via webhooks or callbacks.
package mockgateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/railpay/pkg/provider"
	"github.com/google/uuid"
)

// Gateway is a configurable in-memory charge gateway.
type Gateway struct {
	mu         sync.Mutex
	failing    map[string]bool
	delay      time.Duration
	railDelays map[string]time.Duration
	calls      []provider.ChargeRequest
}

// New creates a mock gateway with no failing rails and no delay.
func New() *Gateway {
	return &Gateway{
		failing:    make(map[string]bool),
		railDelays: make(map[string]time.Duration),
	}
}

// FailRail marks a rail so its charges and top-ups fail.
func (g *Gateway) FailRail(sourceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[sourceID] = true
}

// RecoverRail clears a rail's failure mark.
func (g *Gateway) RecoverRail(sourceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failing, sourceID)
}

// SetDelay makes every call wait before answering, to exercise
// timeouts and cancellation.
func (g *Gateway) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// DelayRail makes calls on one rail wait before answering, leaving the
// others prompt. Overrides SetDelay for that rail.
func (g *Gateway) DelayRail(sourceID string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.railDelays[sourceID] = d
}

// Calls returns every request seen, in order.
func (g *Gateway) Calls() []provider.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]provider.ChargeRequest(nil), g.calls...)
}

// Charge implements provider.ChargeGateway.
func (g *Gateway) Charge(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error) {
	return g.execute(ctx, req)
}

// TopUp implements provider.ChargeGateway.
func (g *Gateway) TopUp(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error) {
	return g.execute(ctx, req)
}

func (g *Gateway) execute(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	failing := g.failing[req.SourceID]
	delay := g.delay
	if d, ok := g.railDelays[req.SourceID]; ok {
		delay = d
	}
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if failing {
		return &provider.ChargeResult{Status: provider.ChargeFailed}, nil
	}
	return &provider.ChargeResult{
		Status:      provider.ChargeSucceeded,
		ProviderRef: fmt.Sprintf("mock-%s", uuid.NewString()[:8]),
	}, nil
}

var _ provider.ChargeGateway = (*Gateway)(nil)
