package resolution

import (
	"fmt"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/scoring"
)

// explain names the dominant score factor for the chosen rail in plain
// language. Compatibility is excluded from dominance: every eligible
// candidate already has it, so it never distinguishes the winner.
func explain(src *rail.FundingSource, score scoring.RailScore) string {
	type factor struct {
		value  float64
		phrase string
	}
	factors := []factor{
		{score.Balance, "it has sufficient balance"},
		{score.Priority, "it is your most preferred rail"},
		{score.History, "it is your most-used rail this month"},
		{score.Health, "its connector is healthy"},
	}

	dominant := factors[0]
	for _, f := range factors[1:] {
		if f.value > dominant.value {
			dominant = f
		}
	}

	if score.NeedsTopUp {
		return fmt.Sprintf(
			"%s was chosen because %s; it will be topped up automatically first.",
			src.Name, dominant.phrase,
		)
	}
	return fmt.Sprintf("%s was chosen because %s.", src.Name, dominant.phrase)
}
