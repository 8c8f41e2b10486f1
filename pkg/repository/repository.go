// Package repository defines the persistence and lookup ports the
// resolution and execution core depends on. Implementations live under
// infra; the core never touches storage directly.
package repository

import (
	"context"

	"github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/google/uuid"
)

// FundingSource supplies a user's linked rails. Owned by the registry;
// read-only to the core.
type FundingSource interface {
	// ListLinked returns all funding sources in the linked state for
	// the user.
	ListLinked(ctx context.Context, userID uuid.UUID) ([]*rail.FundingSource, error)
	// Get returns one funding source by rail ID.
	Get(ctx context.Context, userID uuid.UUID, railID string) (*rail.FundingSource, error)
}

// TransactionHistory supplies per-rail success counts used by the
// history score factor.
type TransactionHistory interface {
	// RecentByRail returns the successful payment count per rail over
	// the trailing window of days.
	RecentByRail(ctx context.Context, userID uuid.UUID, days int) (map[string]int, error)
}

// ConnectorHealth supplies rail connector health, refreshed
// independently of any resolution call.
type ConnectorHealth interface {
	// StatusOf returns the connector health of one rail.
	StatusOf(ctx context.Context, railID string) (rail.HealthStatus, error)
}

// Guardrail reads and mutates the per-user risk limit record.
type Guardrail interface {
	// Get returns the user's guardrail record.
	Get(ctx context.Context, userID uuid.UUID) (*guardrail.Guardrails, error)
	// IncrementDailySpent atomically adds amount to the user's daily
	// spend counter.
	IncrementDailySpent(ctx context.Context, userID uuid.UUID, amount money.Money) error
	// Update replaces the user's configured limits.
	Update(ctx context.Context, g *guardrail.Guardrails) error
	// SetKillSwitch toggles the user's kill switch.
	SetKillSwitch(ctx context.Context, userID uuid.UUID, engaged bool) error
}

// TransactionLog is the append-only audit sink for terminal payment
// outcomes.
type TransactionLog interface {
	// Append records one terminal outcome.
	Append(ctx context.Context, entry *intent.TransactionLogEntry) error
	// ListByUser returns the user's log entries, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*intent.TransactionLogEntry, error)
}
