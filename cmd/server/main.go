package main

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/railpay/infra/initializer"
	"github.com/amirasaad/railpay/pkg/app"
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/webapi"
	log "github.com/charmbracelet/log"
)

// @title RailPay API
// @version 1.0.0
// @description Payment rail resolution and execution API
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	a := app.New(deps, cfg)
	fiberApp := webapi.SetupApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
	)

	return fiberApp.Listen(addr)
}
