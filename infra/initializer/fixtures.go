package initializer

import (
	"github.com/google/uuid"

	infra_credentials "github.com/amirasaad/railpay/infra/credentials"
	infra_registry "github.com/amirasaad/railpay/infra/registry"
	guardrail_repo "github.com/amirasaad/railpay/infra/repository/guardrail"
	"github.com/amirasaad/railpay/infra/repository/translog"
	"github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/service/auth"
)

// Dev mode login and fixture identity.
const (
	DevUsername = "demo"
	DevPassword = "demo-password"
)

// DevUserID is the fixed user every dev fixture is seeded under, so
// the CLI and curl sessions can share state across restarts.
var DevUserID = uuid.MustParse("6d2f8b4a-9c31-4e0f-8f5d-2a7b1c9e0d43")

func seedDevFixtures(
	registry *infra_registry.MemoryRegistry,
	guardrails *guardrail_repo.MemoryRepository,
	log *translog.MemoryRepository,
	credentials *infra_credentials.MemoryStore,
) error {
	rails := []*rail.Builder{
		rail.New().
			WithID("tng-wallet").
			WithKind(rail.KindWallet).
			WithName("Touch 'n Go eWallet").
			WithBalance(25000).
			WithPriorityRank(1).
			WithCapabilities(rail.CanPayQR, rail.CanP2P, rail.CanPayBill, rail.CanRequestMoney).
			WithMaxAutoTopUp(20000),
		rail.New().
			WithID("duitnow-maybank").
			WithKind(rail.KindBank).
			WithName("DuitNow · Maybank").
			WithBalance(500000).
			WithPriorityRank(2).
			WithCapabilities(rail.CanP2P, rail.CanPayBill, rail.UniversalFallback),
		rail.New().
			WithID("visa-4821").
			WithKind(rail.KindCard).
			WithName("Visa ···4821").
			WithBalance(1000000).
			WithPriorityRank(3).
			WithCapabilities(rail.CanPayQR, rail.CanInstallment, rail.UniversalFallback).
			WithExtraConfirmAbove(50000),
		rail.New().
			WithID("atome-bnpl").
			WithKind(rail.KindBNPL).
			WithName("Atome").
			WithBalance(120000).
			WithPriorityRank(4).
			WithCapabilities(rail.CanInstallment),
	}
	for _, b := range rails {
		src, err := b.
			WithUserID(DevUserID).
			WithCurrency(money.MYR).
			WithLinkedStatus(rail.StatusLinked).
			WithAvailable(true).
			Build()
		if err != nil {
			return err
		}
		registry.Seed(src)
	}

	guardrails.Seed(&guardrail.Guardrails{
		UserID:               DevUserID,
		MaxSinglePaymentAuto: money.Must(100, money.MYR),
		MaxAutoTopUp:         money.Must(200, money.MYR),
		DailyAutoLimit:       money.Must(500, money.MYR),
		DailySpentSoFar:      money.Zero(money.MYR),
	})

	// Recent successes skew the history factor toward the wallet.
	log.SeedHistory(DevUserID, "tng-wallet", 18, money.Must(12.50, money.MYR))
	log.SeedHistory(DevUserID, "duitnow-maybank", 5, money.Must(80, money.MYR))

	hash, err := auth.HashPassword(DevPassword)
	if err != nil {
		return err
	}
	credentials.Seed(DevUsername, DevUserID, hash)

	return nil
}
