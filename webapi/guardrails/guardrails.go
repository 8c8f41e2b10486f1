// Package guardrails exposes the user risk limit endpoints, including
// the kill switch.
package guardrails

import (
	"github.com/amirasaad/railpay/pkg/config"
	domain "github.com/amirasaad/railpay/pkg/domain/guardrail"
	"github.com/amirasaad/railpay/pkg/middleware"
	"github.com/amirasaad/railpay/pkg/money"
	authsvc "github.com/amirasaad/railpay/pkg/service/auth"
	guardrailsvc "github.com/amirasaad/railpay/pkg/service/guardrail"
	"github.com/amirasaad/railpay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UpdateRequest carries new guardrail limits. Amounts are in major
// currency units.
type UpdateRequest struct {
	MaxSinglePaymentAuto float64 `json:"max_single_payment_auto" validate:"required,gt=0"`
	MaxAutoTopUp         float64 `json:"max_auto_top_up" validate:"gte=0"`
	DailyAutoLimit       float64 `json:"daily_auto_limit" validate:"required,gt=0"`
	Currency             string  `json:"currency" validate:"omitempty,len=3"`
}

// KillSwitchRequest toggles the account-wide kill switch.
type KillSwitchRequest struct {
	Engaged bool `json:"engaged"`
}

// View is the API view of a user's guardrails.
type View struct {
	MaxSinglePaymentAuto float64 `json:"max_single_payment_auto"`
	MaxAutoTopUp         float64 `json:"max_auto_top_up"`
	DailyAutoLimit       float64 `json:"daily_auto_limit"`
	DailySpentSoFar      float64 `json:"daily_spent_so_far"`
	Currency             string  `json:"currency"`
	KillSwitchEngaged    bool    `json:"kill_switch_engaged"`
}

// Routes registers the guardrail routes:
//   - GET  /guardrails             : Read the caller's limits.
//   - PUT  /guardrails             : Replace the caller's limits.
//   - POST /guardrails/kill-switch : Engage or release the kill switch.
func Routes(
	app *fiber.App,
	guardrailSvc *guardrailsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Get("/guardrails", middleware.JwtProtected(cfg.Jwt), Get(guardrailSvc, authSvc))
	app.Put("/guardrails", middleware.JwtProtected(cfg.Jwt), Update(guardrailSvc, authSvc))
	app.Post("/guardrails/kill-switch", middleware.JwtProtected(cfg.Jwt), KillSwitch(guardrailSvc, authSvc))
}

// Get returns the caller's guardrails.
// @Summary Read guardrails
// @Tags guardrails
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /guardrails [get]
// @Security Bearer
func Get(guardrailSvc *guardrailsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		g, err := guardrailSvc.Get(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to read guardrails", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Guardrails", newView(g))
	}
}

// Update replaces the caller's guardrail limits. The daily spend
// counter and kill switch state are left untouched.
// @Summary Update guardrails
// @Tags guardrails
// @Accept json
// @Produce json
// @Param request body UpdateRequest true "New limits"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /guardrails [put]
// @Security Bearer
func Update(guardrailSvc *guardrailsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[UpdateRequest](c)
		if input == nil {
			return err
		}

		currency := money.DefaultCode
		if input.Currency != "" {
			currency = money.Code(input.Currency)
		}
		existing, err := guardrailSvc.Get(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to read guardrails", err)
		}
		updated := &domain.Guardrails{
			UserID:               userID,
			MaxSinglePaymentAuto: money.Must(input.MaxSinglePaymentAuto, currency),
			MaxAutoTopUp:         money.Must(input.MaxAutoTopUp, currency),
			DailyAutoLimit:       money.Must(input.DailyAutoLimit, currency),
			DailySpentSoFar:      existing.DailySpentSoFar,
			KillSwitchEngaged:    existing.KillSwitchEngaged,
		}
		if err := guardrailSvc.Update(c.UserContext(), updated); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update guardrails", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Guardrails updated", newView(updated))
	}
}

// KillSwitch engages or releases the account-wide kill switch.
// @Summary Toggle the kill switch
// @Description While engaged, no payment executes automatically
// @Tags guardrails
// @Accept json
// @Produce json
// @Param request body KillSwitchRequest true "Kill switch state"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /guardrails/kill-switch [post]
// @Security Bearer
func KillSwitch(guardrailSvc *guardrailsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[KillSwitchRequest](c)
		if input == nil {
			return err
		}
		if err := guardrailSvc.SetKillSwitch(c.UserContext(), userID, input.Engaged); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to toggle kill switch", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Kill switch updated",
			fiber.Map{"engaged": input.Engaged},
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

func newView(g *domain.Guardrails) View {
	return View{
		MaxSinglePaymentAuto: g.MaxSinglePaymentAuto.AmountFloat(),
		MaxAutoTopUp:         g.MaxAutoTopUp.AmountFloat(),
		DailyAutoLimit:       g.DailyAutoLimit.AmountFloat(),
		DailySpentSoFar:      g.DailySpentSoFar.AmountFloat(),
		Currency:             string(g.DailyAutoLimit.Code()),
		KillSwitchEngaged:    g.KillSwitchEngaged,
	}
}
