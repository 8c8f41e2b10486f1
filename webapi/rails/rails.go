// Package rails exposes the linked funding source listing.
package rails

import (
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/middleware"
	"github.com/amirasaad/railpay/pkg/repository"
	authsvc "github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/amirasaad/railpay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RailView is the API view of a linked funding source.
type RailView struct {
	ID                string   `json:"id"`
	Kind              string   `json:"kind"`
	Name              string   `json:"name"`
	Balance           float64  `json:"balance"`
	Currency          string   `json:"currency"`
	PriorityRank      int      `json:"priority_rank"`
	LinkedStatus      string   `json:"linked_status"`
	Available         bool     `json:"available"`
	Capabilities      []string `json:"capabilities"`
	MaxAutoTopUp      float64  `json:"max_auto_top_up"`
	ExtraConfirmAbove float64  `json:"extra_confirm_above,omitempty"`
}

// Routes registers the rail listing route.
func Routes(
	app *fiber.App,
	railsRepo repository.FundingSource,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Get("/rails", middleware.JwtProtected(cfg.Jwt), List(railsRepo, authSvc))
}

// List returns the caller's linked funding sources.
// @Summary List linked rails
// @Description Returns every funding source linked to the authenticated user
// @Tags rails
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /rails [get]
// @Security Bearer
func List(railsRepo repository.FundingSource, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", authsvc.ErrInvalidToken)
		}
		userID, err := authSvc.GetCurrentUserID(token)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}

		sources, err := railsRepo.ListLinked(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list rails", err)
		}
		views := make([]RailView, 0, len(sources))
		for _, src := range sources {
			views = append(views, newRailView(src))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Linked rails", views)
	}
}

func newRailView(src *rail.FundingSource) RailView {
	caps := src.Capabilities.List()
	names := make([]string, 0, len(caps))
	for _, capability := range caps {
		names = append(names, string(capability))
	}
	return RailView{
		ID:                src.ID,
		Kind:              string(src.Kind),
		Name:              src.Name,
		Balance:           src.Balance.AmountFloat(),
		Currency:          string(src.Balance.Code()),
		PriorityRank:      src.PriorityRank,
		LinkedStatus:      string(src.LinkedStatus),
		Available:         src.Available,
		Capabilities:      names,
		MaxAutoTopUp:      src.MaxAutoTopUp.AmountFloat(),
		ExtraConfirmAbove: src.ExtraConfirmAbove.AmountFloat(),
	}
}
