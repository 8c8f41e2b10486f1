// Package app aggregates the application's dependencies and services.
package app

import (
	"log/slog"

	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/amirasaad/railpay/pkg/provider"
	"github.com/amirasaad/railpay/pkg/repository"
	"github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/amirasaad/railpay/pkg/service/execution"
	guardrailsvc "github.com/amirasaad/railpay/pkg/service/guardrail"
	"github.com/amirasaad/railpay/pkg/service/resolution"
)

// Deps contains the wired collaborators the services are built from.
type Deps struct {
	Rails       repository.FundingSource
	History     repository.TransactionHistory
	Health      repository.ConnectorHealth
	Guardrails  repository.Guardrail
	Log         repository.TransactionLog
	Gateway     provider.ChargeGateway
	Authorizer  provider.Authorizer
	Credentials auth.CredentialStore
	EventBus    eventbus.Bus
	Logger      *slog.Logger
}

// App holds the constructed services.
type App struct {
	Deps          *Deps
	Config        *config.App
	AuthService   *auth.Service
	ResolutionSvc *resolution.Service
	GuardrailSvc  *guardrailsvc.Service
	ExecutionSvc  *execution.Service
}

// New wires the services from their dependencies.
func New(deps *Deps, cfg *config.App) *App {
	resolver := resolution.New(
		deps.Rails, deps.History, deps.Health,
		cfg.Scoring.HistoryNorm, deps.Logger,
	)
	enforcer := guardrailsvc.New(deps.Guardrails, deps.Rails, deps.Logger)
	executor := execution.New(
		execution.Config{
			AuthTimeout:     cfg.Execution.AuthTimeout,
			ChargeTimeout:   cfg.Execution.ChargeTimeout,
			MaxAuthAttempts: cfg.Execution.MaxAuthAttempts,
			MaxFallbacks:    cfg.Execution.MaxFallbacks,
		},
		resolver, enforcer,
		deps.Gateway, deps.Authorizer,
		deps.Log, deps.EventBus, deps.Logger,
	)

	return &App{
		Deps:          deps,
		Config:        cfg,
		AuthService:   auth.New(cfg.Jwt, deps.Credentials, deps.Logger),
		ResolutionSvc: resolver,
		GuardrailSvc:  enforcer,
		ExecutionSvc:  executor,
	}
}
