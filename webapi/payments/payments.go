// Package payments exposes the payment resolution and execution
// endpoints.
package payments

import (
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/middleware"
	"github.com/amirasaad/railpay/pkg/money"
	authsvc "github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/amirasaad/railpay/pkg/service/execution"
	"github.com/amirasaad/railpay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Routes registers the payment routes:
//   - POST /payments/resolve     : Resolve a rail and open a payment intent.
//   - POST /payments/:id/confirm : Confirm and execute the intent.
//   - POST /payments/:id/cancel  : Cancel the intent.
//   - GET  /payments/:id         : Read the intent's execution status.
func Routes(
	app *fiber.App,
	execSvc *execution.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Post("/payments/resolve", middleware.JwtProtected(cfg.Jwt), Resolve(execSvc, authSvc))
	app.Post("/payments/:id/confirm", middleware.JwtProtected(cfg.Jwt), Confirm(execSvc, authSvc))
	app.Post("/payments/:id/cancel", middleware.JwtProtected(cfg.Jwt), Cancel(execSvc, authSvc))
	app.Get("/payments/:id", middleware.JwtProtected(cfg.Jwt), GetStatus(execSvc, authSvc))
}

// Resolve opens a payment intent and resolves its rail plan.
// @Summary Resolve a payment
// @Description Scores the user's linked rails for the described payment and returns the chosen rail, fallback chain, and plan
// @Tags payments
// @Accept json
// @Produce json
// @Param request body ResolveRequest true "Payment description"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /payments/resolve [post]
// @Security Bearer
func Resolve(execSvc *execution.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[ResolveRequest](c)
		if input == nil {
			return err
		}

		currency := money.DefaultCode
		if input.Currency != "" {
			currency = money.Code(input.Currency)
		}
		amount, err := money.New(input.Amount, currency)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		details, err := input.details()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid payment details", err)
		}
		pi, err := intent.NewPaymentIntent(userID, amount, details)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid payment intent", err)
		}

		m, err := execSvc.Begin(c.UserContext(), pi)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to resolve payment", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusCreated, "Payment resolved",
			newStatusView(m.Snapshot(), m.Plan()),
		)
	}
}

// Confirm confirms a resolved payment and executes its plan.
// @Summary Confirm a payment
// @Description Runs authorization and executes the plan, following the fallback chain on rail failures
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Intent ID"
// @Param request body ConfirmRequest true "Confirmation"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /payments/{id}/confirm [post]
// @Security Bearer
func Confirm(execSvc *execution.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		intentID, err := ownedIntentID(c, execSvc, userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}
		input, err := common.BindAndValidate[ConfirmRequest](c)
		if input == nil {
			return err
		}

		snap, err := execSvc.Confirm(c.UserContext(), intentID, input.Acknowledged)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Confirmation failed", err, newStatusView(snap, nil))
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Payment confirmed",
			statusOf(execSvc, intentID, snap),
		)
	}
}

// Cancel cancels a payment intent.
// @Summary Cancel a payment
// @Description Aborts the payment; an in-flight charge that lands after cancellation is flagged for compensation
// @Tags payments
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /payments/{id}/cancel [post]
// @Security Bearer
func Cancel(execSvc *execution.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		intentID, err := ownedIntentID(c, execSvc, userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}

		if err := execSvc.Cancel(c.UserContext(), intentID); err != nil {
			return common.ProblemDetailsJSON(c, "Cancellation failed", err)
		}
		m, err := execSvc.Get(intentID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Payment cancelled",
			newStatusView(m.Snapshot(), m.Plan()),
		)
	}
}

// GetStatus reads a payment intent's execution status.
// @Summary Payment status
// @Description Returns the intent's current state, plan, and score breakdown
// @Tags payments
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /payments/{id} [get]
// @Security Bearer
func GetStatus(execSvc *execution.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		intentID, err := ownedIntentID(c, execSvc, userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}

		m, err := execSvc.Get(intentID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Payment status",
			newStatusView(m.Snapshot(), m.Plan()),
		)
	}
}

func currentUserID(c *fiber.Ctx, authSvc *authsvc.Service) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, authsvc.ErrInvalidToken
	}
	return authSvc.GetCurrentUserID(token)
}

// ownedIntentID parses the path's intent ID and verifies it belongs
// to the caller. A foreign intent reads as not found.
func ownedIntentID(
	c *fiber.Ctx,
	execSvc *execution.Service,
	userID uuid.UUID,
) (uuid.UUID, error) {
	intentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, execution.ErrMachineNotFound
	}
	m, err := execSvc.Get(intentID)
	if err != nil {
		return uuid.Nil, err
	}
	if m.Snapshot().UserID != userID {
		return uuid.Nil, execution.ErrMachineNotFound
	}
	return intentID, nil
}

// statusOf refreshes the snapshot so the response reflects the state
// after execution finished, not the one captured mid-flight.
func statusOf(execSvc *execution.Service, intentID uuid.UUID, fallback execution.Snapshot) StatusView {
	m, err := execSvc.Get(intentID)
	if err != nil {
		return newStatusView(fallback, nil)
	}
	return newStatusView(m.Snapshot(), m.Plan())
}
