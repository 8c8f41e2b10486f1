// Package resolution picks which of a user's funding rails should fund
// a payment intent. It scores every candidate, selects a primary rail,
// builds the ordered fallback chain and the concrete step sequence, and
// explains the choice. Resolution is read-only; it never moves money.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/amirasaad/railpay/pkg/scoring"
)

var (
	// ErrNoCompatibleRail is carried on blocked plans when every
	// candidate was incompatible with the counterparty.
	ErrNoCompatibleRail = errors.New("no compatible rail")

	// ErrInsufficientFunds is carried on blocked plans when no
	// candidate could fund the amount even with top-up capacity.
	ErrInsufficientFunds = errors.New("insufficient funds across all rails")

	// ErrNoLinkedRails is returned when the user has no linked funding
	// sources at all.
	ErrNoLinkedRails = errors.New("no linked funding sources")
)

// historyWindowDays is the trailing window for the history factor.
const historyWindowDays = 30

// maxFallbackRails caps the fallback chain length.
const maxFallbackRails = 3

// Service is the resolver. It orchestrates scoring across all
// candidates and produces a Plan. Stateless and safe for concurrent
// use.
type Service struct {
	rails       repository.FundingSource
	history     repository.TransactionHistory
	health      repository.ConnectorHealth
	historyNorm int
	logger      *slog.Logger
}

// New creates a resolver service. historyNorm <= 0 falls back to
// scoring.DefaultHistoryNorm.
func New(
	rails repository.FundingSource,
	history repository.TransactionHistory,
	health repository.ConnectorHealth,
	historyNorm int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		rails:       rails,
		history:     history,
		health:      health,
		historyNorm: historyNorm,
		logger:      logger.With("service", "Resolution"),
	}
}

// Resolve builds a plan for the intent considering every linked rail.
func (s *Service) Resolve(ctx context.Context, pi *intent.PaymentIntent) (*Plan, error) {
	return s.ResolveExcluding(ctx, pi, nil)
}

// ResolveExcluding builds a plan with the given rails removed from the
// candidate set. This is how the fallback chain is realized: after a
// rail failure the resolver runs again without the failed rails rather
// than replaying a stale plan.
func (s *Service) ResolveExcluding(
	ctx context.Context,
	pi *intent.PaymentIntent,
	excluded map[string]bool,
) (*Plan, error) {
	if !pi.Amount.IsPositive() {
		return nil, intent.ErrAmountMustBePositive
	}

	sources, err := s.rails.ListLinked(ctx, pi.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing linked rails: %w", err)
	}

	candidates := make([]*rail.FundingSource, 0, len(sources))
	for _, src := range sources {
		if excluded[src.ID] {
			continue
		}
		if src.LinkedStatus != rail.StatusLinked || !src.Available {
			continue
		}
		candidates = append(candidates, src)
	}
	if len(candidates) == 0 {
		return nil, ErrNoLinkedRails
	}

	counts, err := s.history.RecentByRail(ctx, pi.UserID, historyWindowDays)
	if err != nil {
		return nil, fmt.Errorf("loading rail history: %w", err)
	}

	maxRank := 1
	for _, src := range candidates {
		if src.PriorityRank > maxRank {
			maxRank = src.PriorityRank
		}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, src := range candidates {
		status, err := s.health.StatusOf(ctx, src.ID)
		if err != nil {
			s.logger.Warn("connector health lookup failed, assuming unavailable",
				"rail", src.ID, "error", err)
			status = rail.HealthUnavailable
		}
		score := scoring.Score(scoring.Input{
			Source:       src,
			Intent:       pi,
			MaxRank:      maxRank,
			SuccessCount: counts[src.ID],
			Health:       status,
			HistoryNorm:  s.historyNorm,
		})
		scored = append(scored, scoredCandidate{source: src, score: score})
	}

	return s.buildPlan(pi, scored), nil
}

type scoredCandidate struct {
	source *rail.FundingSource
	score  scoring.RailScore
}

// viable reports whether the candidate can actually fund the amount,
// directly or via top-up.
func (c scoredCandidate) viable() bool {
	return c.score.Balance > 0
}

func (s *Service) buildPlan(pi *intent.PaymentIntent, scored []scoredCandidate) *Plan {
	// Deterministic order: total desc, then priority rank asc, then
	// rail ID lexical.
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score.Total != b.score.Total {
			return a.score.Total > b.score.Total
		}
		if a.source.PriorityRank != b.source.PriorityRank {
			return a.source.PriorityRank < b.source.PriorityRank
		}
		return a.source.ID < b.source.ID
	})

	plan := &Plan{
		IntentID:   pi.ID,
		Executable: true,
		Scores:     make([]scoring.RailScore, 0, len(scored)),
	}
	for _, c := range scored {
		plan.Scores = append(plan.Scores, c.score)
	}

	// Compatibility-0 candidates drop out unless designated universal
	// fallback.
	eligible := make([]scoredCandidate, 0, len(scored))
	for _, c := range scored {
		if c.score.Compatibility > 0 || c.source.IsUniversalFallback() {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		plan.Action = ActionBlocked
		plan.BlockedReason = ErrNoCompatibleRail.Error()
		s.logger.Info("resolution blocked: no compatible rail",
			"intent", pi.ID, "candidates", len(scored))
		return plan
	}

	var primary *scoredCandidate
	for i := range eligible {
		if eligible[i].viable() {
			primary = &eligible[i]
			break
		}
	}
	if primary == nil {
		plan.Action = ActionInsufficientFunds
		plan.BlockedReason = ErrInsufficientFunds.Error()
		s.logger.Info("resolution blocked: insufficient funds",
			"intent", pi.ID, "amount", pi.Amount.String())
		return plan
	}

	plan.Action = ActionProceed
	plan.ChosenRailID = primary.source.ID

	for _, c := range eligible {
		if len(plan.FallbackChain) == maxFallbackRails {
			break
		}
		if c.source.ID == primary.source.ID {
			continue
		}
		if c.viable() && c.score.Total > 0 {
			plan.FallbackChain = append(plan.FallbackChain, c.source.ID)
		}
	}

	if primary.score.NeedsTopUp {
		plan.Steps = append(plan.Steps, Step{
			Kind:     StepTopUp,
			SourceID: primary.source.ID,
			Amount:   primary.source.Shortfall(pi.Amount),
		})
	}
	plan.Steps = append(plan.Steps, Step{
		Kind:     StepCharge,
		SourceID: primary.source.ID,
		Amount:   pi.Amount,
	})

	plan.Explanation = explain(primary.source, primary.score)

	s.logger.Info("resolved payment intent",
		"intent", pi.ID,
		"chosen", plan.ChosenRailID,
		"fallbacks", len(plan.FallbackChain),
		"top_up", primary.score.NeedsTopUp,
	)
	return plan
}
