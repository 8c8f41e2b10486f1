// Command cli resolves payments against the seeded dev fixtures
// without executing anything. Useful for inspecting scores, the
// chosen rail, and the fallback chain.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/amirasaad/railpay/infra/initializer"
	"github.com/amirasaad/railpay/pkg/app"
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/money"
	"github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/amirasaad/railpay/pkg/service/resolution"
)

func main() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	argsLen := len(os.Args)
	if argsLen < 2 {
		fmt.Println("Usage: cli <command> [arguments]")
		fmt.Println("Commands: resolve <kind> <amount>, rails, hash")
		return
	}

	cmd := os.Args[1]
	switch cmd {
	case "resolve":
		if argsLen < 4 {
			fmt.Println("Usage: resolve <kind> <amount>")
			fmt.Println("Kinds: pay_merchant, send_money, request_money, pay_bill")
			return
		}
		amount, err := strconv.ParseFloat(os.Args[3], 64)
		if err != nil {
			fmt.Println("Invalid amount:", err)
			return
		}
		resolve(os.Args[2], amount)
	case "rails":
		listRails()
	case "hash":
		hashPassword()
	default:
		fmt.Println("Unknown command:", cmd)
	}
}

func devApp() (*app.App, error) {
	cfg := &config.App{
		Env:       "development",
		Log:       config.LogConfig{Format: "text", Prefix: "railpay-cli", TimeFormat: "15:04:05"},
		Scoring:   config.ScoringConfig{HistoryNorm: 20},
		Execution: config.ExecutionConfig{},
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(deps, cfg), nil
}

func resolve(kind string, amount float64) {
	a, err := devApp()
	if err != nil {
		fmt.Println("Failed to initialize:", err)
		return
	}

	var details intent.Details
	switch intent.Kind(kind) {
	case intent.KindPayMerchant:
		details = intent.MerchantPayment{MerchantRef: "dry-run-merchant"}
	case intent.KindSendMoney:
		details = intent.P2PSend{RecipientRef: "dry-run-recipient"}
	case intent.KindRequestMoney:
		details = intent.MoneyRequest{RequesterRef: "dry-run-requester"}
	case intent.KindPayBill:
		details = intent.BillPayment{BillerRef: "dry-run-biller"}
	default:
		fmt.Println("Unknown kind:", kind)
		return
	}

	m, err := money.New(amount, money.DefaultCode)
	if err != nil {
		fmt.Println("Invalid amount:", err)
		return
	}
	pi, err := intent.NewPaymentIntent(initializer.DevUserID, m, details)
	if err != nil {
		fmt.Println("Invalid intent:", err)
		return
	}

	plan, err := a.ResolutionSvc.Resolve(context.Background(), pi)
	if err != nil {
		color.Red("Resolution failed: %v", err)
		return
	}
	printPlan(plan, m)
}

func printPlan(plan *resolution.Plan, amount money.Money) {
	fmt.Printf("Payment of %s\n\n", amount)

	switch plan.Action {
	case resolution.ActionProceed:
		color.Green("PROCEED via %s", plan.ChosenRailID)
	case resolution.ActionRequiresConfirmation:
		color.Yellow("REQUIRES_CONFIRMATION via %s", plan.ChosenRailID)
	case resolution.ActionInsufficientFunds:
		color.Red("INSUFFICIENT_FUNDS")
	case resolution.ActionBlocked:
		color.Red("BLOCKED: %s", plan.BlockedReason)
	}
	if plan.Explanation != "" {
		fmt.Println(plan.Explanation)
	}
	if len(plan.FallbackChain) > 0 {
		fmt.Println("Fallback chain:")
		for i, railID := range plan.FallbackChain {
			fmt.Printf("  %d. %s\n", i+1, railID)
		}
	}
	if len(plan.Steps) > 0 {
		fmt.Println("Steps:")
		for _, step := range plan.Steps {
			fmt.Printf("  %-7s %s %s\n", step.Kind, step.SourceID, step.Amount)
		}
	}

	fmt.Println("\nScores:")
	bold := color.New(color.Bold)
	bold.Printf("  %-18s %6s %6s %6s %6s %6s %7s\n",
		"rail", "compat", "bal", "prio", "hist", "health", "total")
	for _, score := range plan.Scores {
		fmt.Printf("  %-18s %6.1f %6.1f %6.1f %6.1f %6.1f %7.1f\n",
			score.RailID, score.Compatibility, score.Balance,
			score.Priority, score.History, score.Health, score.Total)
	}
}

func listRails() {
	a, err := devApp()
	if err != nil {
		fmt.Println("Failed to initialize:", err)
		return
	}
	sources, err := a.Deps.Rails.ListLinked(context.Background(), initializer.DevUserID)
	if err != nil {
		fmt.Println("Failed to list rails:", err)
		return
	}
	bold := color.New(color.Bold)
	bold.Printf("%-18s %-7s %-22s %12s %5s\n", "id", "kind", "name", "balance", "rank")
	for _, src := range sources {
		fmt.Printf("%-18s %-7s %-22s %12s %5d\n",
			src.ID, src.Kind, src.Name, src.Balance, src.PriorityRank)
	}
}

// hashPassword prints a bcrypt hash for seeding credential fixtures.
func hashPassword() {
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Failed to read password:", err)
		return
	}
	hash, err := auth.HashPassword(string(raw))
	if err != nil {
		fmt.Println("Failed to hash password:", err)
		return
	}
	fmt.Println(string(hash))
}
