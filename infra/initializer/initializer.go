// Package initializer wires the application dependencies from
// configuration: persistence, connector health, idempotency storage,
// the event bus, and the provider stubs.
package initializer

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amirasaad/railpay/infra"
	infra_connector "github.com/amirasaad/railpay/infra/connector"
	infra_credentials "github.com/amirasaad/railpay/infra/credentials"
	infra_eventbus "github.com/amirasaad/railpay/infra/eventbus"
	infra_idempotency "github.com/amirasaad/railpay/infra/idempotency"
	"github.com/amirasaad/railpay/infra/provider/biometric"
	"github.com/amirasaad/railpay/infra/provider/mockgateway"
	infra_registry "github.com/amirasaad/railpay/infra/registry"
	guardrail_repo "github.com/amirasaad/railpay/infra/repository/guardrail"
	"github.com/amirasaad/railpay/infra/repository/translog"
	"github.com/amirasaad/railpay/pkg/app"
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/decorator"
	"github.com/amirasaad/railpay/pkg/eventbus"
	"github.com/amirasaad/railpay/pkg/provider"
)

const (
	eventStream   = "railpay:executions"
	consumerGroup = "railpay"
	redisPrefix   = "railpay"
	redisTTL      = 24 * time.Hour
)

// InitializeDependencies builds the application dependency graph from
// configuration. Development mode runs entirely in memory with seeded
// fixtures; any other environment connects Postgres, and Redis is used
// for health, idempotency, and the event stream whenever enabled.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, err error) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	// The funding source registry is owned by an external service in
	// production; the in-memory registry stands in for it here.
	registry := infra_registry.NewMemory()
	deps.Rails = registry

	credentials := infra_credentials.NewMemory()
	deps.Credentials = credentials

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Env == "development" {
		logger.Info("Development mode, using in-memory persistence")
		guardrails := guardrail_repo.NewMemory()
		log := translog.NewMemory()
		deps.Guardrails = guardrails
		deps.Log = log
		deps.History = log

		if err = seedDevFixtures(registry, guardrails, log, credentials); err != nil {
			return nil, fmt.Errorf("failed to seed dev fixtures: %w", err)
		}
		logger.Info("Seeded dev fixtures", "user_id", DevUserID, "username", DevUsername)
	} else {
		db, dbErr := infra.NewDatabase(cfg.DB.Url)
		if dbErr != nil {
			logger.Error("Failed to initialize database", "error", dbErr)
			return nil, dbErr
		}
		log := translog.New(db)
		deps.Guardrails = guardrail_repo.New(db)
		deps.Log = log
		deps.History = log
	}

	// Connector health is refreshed by an external monitor; the core
	// only reads it.
	if redisClient != nil {
		deps.Health = infra_connector.NewRedisHealthStore(redisClient, redisPrefix, redisTTL)
	} else {
		deps.Health = infra_connector.NewMemoryHealthStore(nil)
	}

	var idemStore provider.IdempotencyStore
	if redisClient != nil {
		idemStore = infra_idempotency.NewRedisStore(redisClient, redisPrefix, redisTTL)
	} else {
		idemStore = infra_idempotency.NewMemoryStore()
	}

	var bus eventbus.Bus
	if redisClient != nil {
		bus, err = infra_eventbus.NewWithRedis(
			redisClient,
			eventStream,
			consumerGroup,
			infra_eventbus.ExecutionEventTypes(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
	} else {
		bus = infra_eventbus.NewWithMemory(logger)
	}
	deps.EventBus = bus

	deps.Gateway = decorator.NewIdempotentGateway(mockgateway.New(), idemStore, logger)
	deps.Authorizer = biometric.NewStub()

	return deps, nil
}
