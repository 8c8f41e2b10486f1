// Package biometric provides a stub for the external biometric
// authorizer. Real capture happens on-device; the core only sees
// success or failure.
package biometric

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/railpay/pkg/provider"
)

// StubAuthorizer simulates the device authorizer. It succeeds by
// default; tests flip outcomes with SetResult.
type StubAuthorizer struct {
	mu    sync.Mutex
	fail  bool
	delay time.Duration
	calls int
}

// NewStub creates a stub authorizer that always succeeds.
func NewStub() *StubAuthorizer {
	return &StubAuthorizer{}
}

// SetResult configures whether the next authorizations fail.
func (a *StubAuthorizer) SetResult(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = fail
}

// SetDelay makes authorization wait before answering.
func (a *StubAuthorizer) SetDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = d
}

// Calls returns how many authorizations were attempted.
func (a *StubAuthorizer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Authorize implements provider.Authorizer.
func (a *StubAuthorizer) Authorize(ctx context.Context) error {
	a.mu.Lock()
	a.calls++
	fail := a.fail
	delay := a.delay
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if fail {
		return provider.ErrAuthorizationFailed
	}
	return nil
}

var _ provider.Authorizer = (*StubAuthorizer)(nil)
