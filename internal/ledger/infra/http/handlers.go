package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/hammerdown/auctionhouse/internal/ledger/application"
	"github.com/hammerdown/auctionhouse/internal/shared/httpserver"
	userdomain "github.com/hammerdown/auctionhouse/internal/user/domain"
	userhttp "github.com/hammerdown/auctionhouse/internal/user/infra/http"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// LedgerHandler serves profile balance and deposit/withdraw operations.
type LedgerHandler struct {
	ledger *application.LedgerService
	users  userdomain.UserRepository
}

func NewLedgerHandler(ledger *application.LedgerService, users userdomain.UserRepository) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, users: users}
}

// Profile handles GET /profile.
func (h *LedgerHandler) Profile(c *fiber.Ctx) error {
	callerID := userhttp.Caller(c)
	user, err := h.users.GetByID(c.Context(), callerID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	balance, err := h.ledger.Balance(c.Context(), callerID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"username": user.Username,
		"balance":  balance,
	})
}

// Deposit handles POST /deposit.
func (h *LedgerHandler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	balance, err := h.ledger.Deposit(c.Context(), userhttp.Caller(c), req.Amount)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Deposit successful",
		"balance": balance,
	})
}

// Withdraw handles POST /withdraw.
func (h *LedgerHandler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	balance, err := h.ledger.Withdraw(c.Context(), userhttp.Caller(c), req.Amount)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Withdrawal successful",
		"balance": balance,
	})
}
