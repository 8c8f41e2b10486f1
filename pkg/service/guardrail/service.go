// Package guardrail enforces the user's configured risk limits against
// a resolution plan, deciding whether execution may proceed
// automatically or needs an explicit confirmation gesture first.
package guardrail

import (
	"context"
	"fmt"
	"log/slog"

	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/amirasaad/railpay/pkg/service/resolution"
	"github.com/google/uuid"
)

// Service is the guardrail enforcer. It never blocks a payment on its
// own: a breached limit only removes the automatic-execution path.
type Service struct {
	guardrails repository.Guardrail
	rails      repository.FundingSource
	logger     *slog.Logger
}

// New creates a guardrail enforcer.
func New(
	guardrails repository.Guardrail,
	rails repository.FundingSource,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		guardrails: guardrails,
		rails:      rails,
		logger:     logger.With("service", "Guardrail"),
	}
}

// Enforce evaluates the user's guardrails against the plan, mutating
// the plan's action and executability in place, and returns the
// guardrail snapshot it used.
//
// Rules, in order:
//   - kill switch engaged: the plan becomes non-executable regardless
//     of action.
//   - amount over the single-payment auto limit, any top-up step over
//     the auto top-up limit, a breached daily limit, or an amount over
//     the chosen rail's own extra-confirm threshold: the action drops
//     from PROCEED to REQUIRES_CONFIRMATION.
func (s *Service) Enforce(
	ctx context.Context,
	pi *intent.PaymentIntent,
	plan *resolution.Plan,
) (*domain.Guardrails, error) {
	g, err := s.guardrails.Get(ctx, pi.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading guardrails: %w", err)
	}

	if g.KillSwitchEngaged {
		plan.Executable = false
		s.logger.Info("kill switch engaged, plan marked non-executable",
			"user", pi.UserID, "intent", pi.ID)
	}

	if !plan.IsFunded() {
		return g, nil
	}

	if reason := s.confirmationReason(ctx, pi, plan, g); reason != "" {
		plan.Action = resolution.ActionRequiresConfirmation
		s.logger.Info("guardrail requires confirmation",
			"user", pi.UserID, "intent", pi.ID, "reason", reason)
	}
	return g, nil
}

func (s *Service) confirmationReason(
	ctx context.Context,
	pi *intent.PaymentIntent,
	plan *resolution.Plan,
	g *domain.Guardrails,
) string {
	if !g.AllowsAutoPayment(pi.Amount) {
		return "amount exceeds single-payment auto limit"
	}
	for _, step := range plan.Steps {
		if step.Kind != resolution.StepTopUp {
			continue
		}
		if !g.AllowsAutoTopUp(step.Amount) {
			return "top-up exceeds auto top-up limit"
		}
	}
	if !g.WithinDailyLimit(pi.Amount) {
		return "daily auto limit would be exceeded"
	}

	chosen, err := s.rails.Get(ctx, pi.UserID, plan.ChosenRailID)
	if err != nil {
		s.logger.Warn("could not load chosen rail for extra-confirm check",
			"rail", plan.ChosenRailID, "error", err)
		return ""
	}
	if chosen.ExtraConfirmAbove.IsPositive() {
		over, err := pi.Amount.GreaterThan(chosen.ExtraConfirmAbove)
		if err == nil && over {
			return "amount exceeds rail extra-confirmation threshold"
		}
	}
	return ""
}

// RecordCompletion atomically adds the completed amount to the user's
// daily spend counter.
func (s *Service) RecordCompletion(
	ctx context.Context,
	userID uuid.UUID,
	amount money.Money,
) error {
	if err := s.guardrails.IncrementDailySpent(ctx, userID, amount); err != nil {
		return fmt.Errorf("incrementing daily spend: %w", err)
	}
	return nil
}

// Get returns the user's guardrail record.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Guardrails, error) {
	return s.guardrails.Get(ctx, userID)
}

// Update replaces the user's configured limits.
func (s *Service) Update(ctx context.Context, g *domain.Guardrails) error {
	return s.guardrails.Update(ctx, g)
}

// SetKillSwitch toggles the user's kill switch. Explicit user action
// only.
func (s *Service) SetKillSwitch(ctx context.Context, userID uuid.UUID, engaged bool) error {
	s.logger.Info("kill switch toggled", "user", userID, "engaged", engaged)
	return s.guardrails.SetKillSwitch(ctx, userID, engaged)
}
