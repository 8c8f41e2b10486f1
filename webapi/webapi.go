// Package webapi provides HTTP handlers and API endpoints for the
// payment rail service. It is organized into sub-packages per domain:
// - payments: Payment resolution and execution endpoints
// - rails: Funding source listing
// - guardrails: Risk limit and kill switch endpoints
// - transactions: Transaction log endpoints
// - auth: Authentication endpoints
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/railpay/pkg/app"
	authweb "github.com/amirasaad/railpay/webapi/auth"
	"github.com/amirasaad/railpay/webapi/common"
	guardrailweb "github.com/amirasaad/railpay/webapi/guardrails"
	paymentweb "github.com/amirasaad/railpay/webapi/payments"
	railweb "github.com/amirasaad/railpay/webapi/rails"
	transactionweb "github.com/amirasaad/railpay/webapi/transactions"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp initializes Fiber with custom configuration.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err, status)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		WithCredentials:      true,
		PersistAuthorization: true,
		OAuth2RedirectUrl:    "/auth/login",
	}))

	// Rate limiter keys on X-Forwarded-For when behind a proxy,
	// falling back to X-Real-IP, then the direct IP.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("RailPay API is running! 🚀")
		},
	)

	authweb.Routes(fiberApp, a.AuthService)
	paymentweb.Routes(fiberApp, a.ExecutionSvc, a.AuthService, a.Config)
	railweb.Routes(fiberApp, a.Deps.Rails, a.AuthService, a.Config)
	guardrailweb.Routes(fiberApp, a.GuardrailSvc, a.AuthService, a.Config)
	transactionweb.Routes(fiberApp, a.Deps.Log, a.AuthService, a.Config)

	return fiberApp
}
