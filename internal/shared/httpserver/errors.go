package httpserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	auctiondomain "github.com/hammerdown/auctionhouse/internal/auction/domain"
	ledgerdomain "github.com/hammerdown/auctionhouse/internal/ledger/domain"
	userdomain "github.com/hammerdown/auctionhouse/internal/user/domain"
)

// RespondError maps domain errors to HTTP statuses and the {"error": ...}
// body the original API speaks. Unrecognized errors become opaque 500s so
// internals never leak to callers.
func RespondError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, auctiondomain.ErrAuctionNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, ledgerdomain.ErrAccountNotFound):
		status = fiber.StatusNotFound

	case errors.Is(err, auctiondomain.ErrNotOwner),
		errors.Is(err, auctiondomain.ErrSelfBid):
		status = fiber.StatusForbidden

	case errors.Is(err, auctiondomain.ErrAuctionNotLive),
		errors.Is(err, auctiondomain.ErrAuctionNotUpcoming),
		errors.Is(err, auctiondomain.ErrAuctionEnded),
		errors.Is(err, auctiondomain.ErrAlreadyFinalized),
		errors.Is(err, auctiondomain.ErrAuctionHasBids),
		errors.Is(err, auctiondomain.ErrBidTooLow):
		status = fiber.StatusConflict

	case errors.Is(err, auctiondomain.ErrInsufficientFunds),
		errors.Is(err, auctiondomain.ErrWinnerCannotPay),
		errors.Is(err, ledgerdomain.ErrInsufficientFunds):
		status = fiber.StatusPaymentRequired

	case errors.Is(err, auctiondomain.ErrInvalidListing),
		errors.Is(err, auctiondomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, userdomain.ErrUsernameTaken),
		errors.Is(err, userdomain.ErrInvalidCredentials):
		status = fiber.StatusBadRequest

	case errors.Is(err, userdomain.ErrInvalidToken):
		status = fiber.StatusUnauthorized

	default:
		log.Error("unhandled service error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
