package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hammerdown/auctionhouse/internal/auction/application"
	"github.com/hammerdown/auctionhouse/internal/shared/httpserver"
	userhttp "github.com/hammerdown/auctionhouse/internal/user/infra/http"
)

// Durations travel as whole minutes on the wire. The domain works in
// time.Duration; the conversion happens only at this boundary.

type createListingRequest struct {
	ItemName     string          `json:"item_name"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	BasePrice    decimal.Decimal `json:"base_price"`
	StartDelay   int64           `json:"start_delay"`
	LiveDuration int64           `json:"live_duration"`
}

type editListingRequest struct {
	AuctionID   string `json:"auction_id"`
	Description string `json:"description"`
}

type auctionIDRequest struct {
	AuctionID string `json:"auction_id"`
}

type placeBidRequest struct {
	AuctionID string          `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type auctionResponse struct {
	AuctionID     string          `json:"auction_id"`
	ItemName      string          `json:"item_name"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	BasePrice     decimal.Decimal `json:"base_price"`
	PostedTime    time.Time       `json:"posted_time"`
	StartDelay    int64           `json:"start_delay"`
	LiveDuration  int64           `json:"live_duration"`
	Status        string          `json:"status"`
	HighestBid    decimal.Decimal `json:"highest_bid"`
	HighestBidder string          `json:"highest_bidder"`
}

func toAuctionResponse(v application.AuctionView) auctionResponse {
	return auctionResponse{
		AuctionID:     v.AuctionID.String(),
		ItemName:      v.ItemName,
		Description:   v.Description,
		ImageURL:      v.ImageURL,
		BasePrice:     v.BasePrice,
		PostedTime:    v.PostedTime,
		StartDelay:    int64(v.StartDelay / time.Minute),
		LiveDuration:  int64(v.LiveDuration / time.Minute),
		Status:        string(v.Phase),
		HighestBid:    v.HighestBid,
		HighestBidder: v.HighestBidder,
	}
}

func toAuctionResponses(views []application.AuctionView) []auctionResponse {
	out := make([]auctionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toAuctionResponse(v))
	}
	return out
}

// AuctionHandler serves the listing lifecycle and the browse pages.
type AuctionHandler struct {
	svc *application.Service
}

func NewAuctionHandler(svc *application.Service) *AuctionHandler {
	return &AuctionHandler{svc: svc}
}

// CreateListing handles POST /create_listing.
func (h *AuctionHandler) CreateListing(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.StartDelay < 0 || req.LiveDuration <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction timing"})
	}

	auction, err := h.svc.CreateListing(c.Context(), userhttp.Caller(c), application.CreateListingInput{
		ItemName:     req.ItemName,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		BasePrice:    req.BasePrice,
		StartDelay:   time.Duration(req.StartDelay) * time.Minute,
		LiveDuration: time.Duration(req.LiveDuration) * time.Minute,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Listing created successfully",
		"auction_id": auction.ID.String(),
	})
}

// EditListing handles POST /edit_listing.
func (h *AuctionHandler) EditListing(c *fiber.Ctx) error {
	var req editListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	auctionID, err := uuid.Parse(req.AuctionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	if err := h.svc.EditListing(c.Context(), userhttp.Caller(c), auctionID, req.Description); err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing updated successfully"})
}

// MakeLive handles POST /make_live.
func (h *AuctionHandler) MakeLive(c *fiber.Ctx) error {
	auctionID, err := parseAuctionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	if err := h.svc.MakeLive(c.Context(), userhttp.Caller(c), auctionID); err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Auction is now live"})
}

// PlaceBid handles POST /place_bid.
func (h *AuctionHandler) PlaceBid(c *fiber.Ctx) error {
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	auctionID, err := uuid.Parse(req.AuctionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	bid, err := h.svc.PlaceBid(c.Context(), userhttp.Caller(c), auctionID, req.Amount)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Bid placed successfully",
		"bid_id":  bid.ID.String(),
		"amount":  bid.Amount,
	})
}

// EndAuction handles POST /end_auction.
func (h *AuctionHandler) EndAuction(c *fiber.Ctx) error {
	auctionID, err := parseAuctionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	settlement, err := h.svc.EndAuction(c.Context(), userhttp.Caller(c), auctionID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if settlement.Winner == nil {
		return c.JSON(fiber.Map{"message": "Auction ended with no bids"})
	}
	return c.JSON(fiber.Map{
		"message":        "Auction ended successfully",
		"winning_amount": settlement.Amount,
	})
}

// DeleteListing handles POST /delete_listing.
func (h *AuctionHandler) DeleteListing(c *fiber.Ctx) error {
	auctionID, err := parseAuctionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	if err := h.svc.DeleteListing(c.Context(), userhttp.Caller(c), auctionID); err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing deleted successfully"})
}

// MyListings handles GET /my_listings.
func (h *AuctionHandler) MyListings(c *fiber.Ctx) error {
	views, err := h.svc.ListMine(c.Context(), userhttp.Caller(c))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"my_listings": toAuctionResponses(views)})
}

// Live handles GET /live.
func (h *AuctionHandler) Live(c *fiber.Ctx) error {
	views, err := h.svc.ListLive(c.Context())
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"live_auctions": toAuctionResponses(views)})
}

// Upcoming handles GET /upcoming.
func (h *AuctionHandler) Upcoming(c *fiber.Ctx) error {
	views, err := h.svc.ListUpcoming(c.Context())
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"upcoming_auctions": toAuctionResponses(views)})
}

// AuctionResult handles GET /auction_result?auction_id=...
func (h *AuctionHandler) AuctionResult(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Query("auction_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid auction_id"})
	}
	view, err := h.svc.AuctionResult(c.Context(), auctionID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"auction_id":     view.AuctionID.String(),
		"item_name":      view.ItemName,
		"status":         string(view.Phase),
		"highest_bid":    view.HighestBid,
		"highest_bidder": view.HighestBidder,
	})
}

func parseAuctionID(c *fiber.Ctx) (uuid.UUID, error) {
	var req auctionIDRequest
	if err := c.BodyParser(&req); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(req.AuctionID)
}
