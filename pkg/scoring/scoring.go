// Package scoring computes the weighted multi-factor score that ranks
// a user's funding rails for one payment intent. Scoring is pure and
// read-only: it never touches balances or counters.
package scoring

import (
	"math"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/domain/rail"
)

// Factor weights. They always sum to 100.
const (
	WeightCompatibility = 35.0
	WeightBalance       = 30.0
	WeightPriority      = 15.0
	WeightHistory       = 10.0
	WeightHealth        = 10.0

	// balancePartial is awarded when the balance falls short but the
	// shortfall fits within the rail's auto top-up allowance.
	balancePartial = WeightBalance / 2

	// healthPartial is awarded to degraded connectors.
	healthPartial = WeightHealth / 2

	// DefaultHistoryNorm is the 30-day success count at which the
	// history factor saturates.
	DefaultHistoryNorm = 20
)

// RailScore is the scored assessment of one candidate rail for one
// intent. Total is always the sum of the five components and lies in
// [0, 100].
type RailScore struct {
	RailID        string  `json:"rail_id"`
	Compatibility float64 `json:"compatibility"`
	Balance       float64 `json:"balance"`
	Priority      float64 `json:"priority"`
	History       float64 `json:"history"`
	Health        float64 `json:"health"`
	Total         float64 `json:"total"`
	NeedsTopUp    bool    `json:"needs_top_up"`
}

// Input carries everything the scorer needs for one candidate.
type Input struct {
	Source *rail.FundingSource
	Intent *intent.PaymentIntent
	// MaxRank is the highest priority rank among all candidates in
	// this resolution call.
	MaxRank int
	// SuccessCount is the rail's 30-day successful payment count.
	SuccessCount int
	// Health is the rail's connector health.
	Health rail.HealthStatus
	// HistoryNorm is the success count at which history saturates.
	// Zero means DefaultHistoryNorm.
	HistoryNorm int
}

// Score computes the five-factor score for one candidate rail.
//
// Compatibility is binary: full weight when the counterparty accepts
// the rail (or accepts any) and the rail has the capability the intent
// kind requires, zero otherwise. No partial credit.
func Score(in Input) RailScore {
	s := RailScore{RailID: in.Source.ID}

	s.Compatibility = compatibilityScore(in.Source, in.Intent.Details)
	s.Balance, s.NeedsTopUp = balanceScore(in.Source, in.Intent)
	s.Priority = priorityScore(in.Source.PriorityRank, in.MaxRank)
	s.History = historyScore(in.SuccessCount, in.HistoryNorm)
	s.Health = healthScore(in.Health)

	s.Total = s.Compatibility + s.Balance + s.Priority + s.History + s.Health
	return s
}

func compatibilityScore(src *rail.FundingSource, details intent.Details) float64 {
	if !src.Capabilities.Has(details.RequiredCapability()) {
		return 0
	}
	accepted := details.AcceptedRails()
	if len(accepted) == 0 {
		// Empty set means any universal rail is accepted.
		return WeightCompatibility
	}
	for _, id := range accepted {
		if id == src.ID {
			return WeightCompatibility
		}
	}
	return 0
}

func balanceScore(src *rail.FundingSource, pi *intent.PaymentIntent) (score float64, needsTopUp bool) {
	if src.CanCover(pi.Amount) {
		return WeightBalance, false
	}
	if src.CanTopUp(pi.Amount) {
		return balancePartial, true
	}
	return 0, false
}

func priorityScore(rank, maxRank int) float64 {
	if maxRank < 1 {
		maxRank = 1
	}
	score := WeightPriority * (1 - float64(rank-1)/float64(maxRank))
	return math.Min(WeightPriority, math.Max(0, score))
}

func historyScore(count, norm int) float64 {
	if norm <= 0 {
		norm = DefaultHistoryNorm
	}
	ratio := float64(count) / float64(norm)
	return WeightHistory * math.Min(1, ratio)
}

func healthScore(status rail.HealthStatus) float64 {
	switch status {
	case rail.HealthAvailable:
		return WeightHealth
	case rail.HealthDegraded:
		return healthPartial
	default:
		return 0
	}
}
