// Package transactions exposes the transaction log listing.
package transactions

import (
	"strconv"
	"time"

	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/middleware"
	"github.com/amirasaad/railpay/pkg/repository"
	authsvc "github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/amirasaad/railpay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// EntryView is the API view of a transaction log entry.
type EntryView struct {
	IntentID  string    `json:"intent_id"`
	RailUsed  string    `json:"rail_used"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Routes registers the transaction log route.
func Routes(
	app *fiber.App,
	logRepo repository.TransactionLog,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Get("/transactions", middleware.JwtProtected(cfg.Jwt), List(logRepo, authSvc))
}

// List returns the caller's transaction log, newest first.
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /transactions [get]
// @Security Bearer
func List(logRepo repository.TransactionLog, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", authsvc.ErrInvalidToken)
		}
		userID, err := authSvc.GetCurrentUserID(token)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				return common.ProblemDetailsJSON(
					c, "Invalid limit", err, fiber.StatusBadRequest,
				)
			}
		}

		entries, err := logRepo.ListByUser(c.UserContext(), userID, limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		views := make([]EntryView, 0, len(entries))
		for _, entry := range entries {
			views = append(views, newEntryView(entry))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions", views)
	}
}

func newEntryView(entry *intent.TransactionLogEntry) EntryView {
	return EntryView{
		IntentID:  entry.IntentID.String(),
		RailUsed:  entry.RailUsed,
		Amount:    entry.Amount.AmountFloat(),
		Currency:  string(entry.Amount.Code()),
		Status:    string(entry.Status),
		Timestamp: entry.Timestamp,
		Note:      entry.Note,
	}
}
