package handler

//go:generate mockgen -destination=mock_service.go -package=handler auction-engine/services/bidding/handler BiddingServiceInterface

import (
	"context"
	"net/http"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	CreateAuction(ctx context.Context, auction model.Auction) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)

	RequestRegistration(ctx context.Context, userID, auctionID string) (model.Registration, error)
	DecideRegistration(ctx context.Context, registrationID string, outcome model.Outcome, notes model.Notes, cooldown time.Duration) (model.Registration, error)
	IsEligibleToBid(ctx context.Context, userID, auctionID string) (bool, error)
	PendingRegistrations(ctx context.Context, auctionID string) ([]model.Registration, error)
	RegistrationsForUser(ctx context.Context, userID, auctionID string) ([]model.Registration, error)

	SubmitBid(ctx context.Context, userID, auctionID, lotID string, amount decimal.Decimal) (model.Bid, error)
	DecideBid(ctx context.Context, bidID string, outcome model.Outcome, notes model.Notes) (model.Bid, error)
	DeclareWinner(ctx context.Context, bidID string) (model.Bid, error)
	PendingBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	CurrentHighestBid(ctx context.Context, auctionID, lotID string) (model.Bid, error)
	BidsForLot(ctx context.Context, auctionID, lotID string) ([]model.Bid, error)
	BidsByUser(ctx context.Context, userID string) ([]model.Bid, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// SubmitBidHandler handles POST /bids
func (h *BiddingHandler) SubmitBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitBidHandler", err)
		return
	}

	bid, err := h.service.SubmitBid(c.Request.Context(), req.UserID, req.AuctionID, req.LotID, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "SubmitBidHandler", err, map[string]any{
			"auction_id": req.AuctionID,
			"lot_id":     req.LotID,
			"user_id":    req.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid submitted for review")
	helpers.LogSuccess("SubmitBidHandler", "bid submitted for review", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"lot_id":     bid.LotID,
		"user_id":    bid.UserID,
		"amount":     bid.BidValue.String(),
	})
}

// DecideBidHandler handles POST /bids/:bid_id/decision
func (h *BiddingHandler) DecideBidHandler(c *gin.Context) {
	bidID := c.Param("bid_id")
	var req helpers.BidDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "DecideBidHandler", err)
		return
	}

	notes := model.Notes{Internal: req.InternalNotes, Client: req.ClientNotes}
	bid, err := h.service.DecideBid(c.Request.Context(), bidID, req.Outcome, notes)
	if err != nil {
		helpers.HandleServiceError(c, "DecideBidHandler", err, map[string]any{"bid_id": bidID, "outcome": string(req.Outcome)})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "bid "+string(bid.Status))
	helpers.LogSuccess("DecideBidHandler", "bid decided", map[string]any{
		"bid_id": bid.BidID,
		"lot_id": bid.LotID,
		"status": string(bid.Status),
	})
}

// DeclareWinnerHandler handles POST /bids/:bid_id/winner
func (h *BiddingHandler) DeclareWinnerHandler(c *gin.Context) {
	bidID := c.Param("bid_id")
	bid, err := h.service.DeclareWinner(c.Request.Context(), bidID)
	if err != nil {
		helpers.HandleServiceError(c, "DeclareWinnerHandler", err, map[string]any{"bid_id": bidID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winner declared")
	helpers.LogSuccess("DeclareWinnerHandler", "winner declared", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"lot_id":     bid.LotID,
		"user_id":    bid.UserID,
	})
}

// PendingBidsHandler handles GET /auctions/:auction_id/bids/pending
func (h *BiddingHandler) PendingBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.PendingBids(c.Request.Context(), auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "PendingBidsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "pending bids retrieved successfully")
	helpers.LogSuccess("PendingBidsHandler", "pending bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// HighestBidHandler handles GET /auctions/:auction_id/lots/:lot_id/highest
func (h *BiddingHandler) HighestBidHandler(c *gin.Context) {
	auctionID, lotID := c.Param("auction_id"), c.Param("lot_id")
	bid, err := h.service.CurrentHighestBid(c.Request.Context(), auctionID, lotID)
	if err != nil {
		helpers.HandleServiceError(c, "HighestBidHandler", err, map[string]any{"auction_id": auctionID, "lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "highest bid retrieved successfully")
	helpers.LogSuccess("HighestBidHandler", "highest bid retrieved successfully", map[string]any{
		"bid_id": bid.BidID,
		"lot_id": lotID,
		"amount": bid.BidValue.String(),
	})
}

// BidsForLotHandler handles GET /auctions/:auction_id/lots/:lot_id/bids
func (h *BiddingHandler) BidsForLotHandler(c *gin.Context) {
	auctionID, lotID := c.Param("auction_id"), c.Param("lot_id")
	bids, err := h.service.BidsForLot(c.Request.Context(), auctionID, lotID)
	if err != nil {
		helpers.HandleServiceError(c, "BidsForLotHandler", err, map[string]any{"auction_id": auctionID, "lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("BidsForLotHandler", "bids retrieved successfully", map[string]any{
		"lot_id": lotID,
		"count":  len(bids),
	})
}

// BidsByUserHandler handles GET /users/:user_id/bids
func (h *BiddingHandler) BidsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	bids, err := h.service.BidsByUser(c.Request.Context(), userID)
	if err != nil {
		helpers.HandleServiceError(c, "BidsByUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("BidsByUserHandler", "bids retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(bids),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), req.ToAuction())
	if err != nil {
		helpers.HandleServiceError(c, "CreateAuctionHandler", err, map[string]any{"auction_id": req.AuctionID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"lots":       len(auction.Lots),
	})
}
