package helpers

import (
	"time"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Request DTOs

type RegistrationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CooldownMinutes is capped at one year so the minute count cannot overflow a time.Duration.
type RegistrationDecisionRequest struct {
	Outcome         model.Outcome `json:"outcome" binding:"required,oneof=approved rejected"`
	InternalNotes   string        `json:"internal_notes"`
	ClientNotes     string        `json:"client_notes"`
	CooldownMinutes int           `json:"cooldown_minutes" binding:"gte=0,lte=525600"`
}

// Amount accepts both JSON numbers and strings; positivity is checked by the service.
type PlaceBidRequest struct {
	AuctionID string          `json:"auction_id" binding:"required"`
	LotID     string          `json:"lot_id" binding:"required"`
	UserID    string          `json:"user_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type BidDecisionRequest struct {
	Outcome       model.Outcome `json:"outcome" binding:"required,oneof=approved rejected"`
	InternalNotes string        `json:"internal_notes"`
	ClientNotes   string        `json:"client_notes"`
}

type CreateAuctionRequest struct {
	AuctionID string              `json:"auction_id"`
	Title     string              `json:"title" binding:"required"`
	Status    model.AuctionStatus `json:"status"`
	IsLive    bool                `json:"is_live"`
	Lots      []LotRequest        `json:"lots" binding:"required,min=1,dive"`
}

type LotRequest struct {
	LotID           string          `json:"lot_id" binding:"required"`
	Title           string          `json:"title"`
	InitialBidValue decimal.Decimal `json:"initial_bid_value"`
	BidIncrement    decimal.Decimal `json:"bid_increment"`
}

// Response DTOs

type RegistrationResponse struct {
	RegistrationID            string `json:"registration_id"`
	UserID                    string `json:"user_id"`
	AuctionID                 string `json:"auction_id"`
	Status                    string `json:"status"`
	NextRegistrationAllowedAt string `json:"next_registration_allowed_at,omitempty"`
	InternalNotes             string `json:"internal_notes"`
	ClientNotes               string `json:"client_notes"`
	CreatedAt                 string `json:"created_at"`
	DecidedAt                 string `json:"decided_at,omitempty"`
}

type BidResponse struct {
	BidID         string `json:"bid_id"`
	AuctionID     string `json:"auction_id"`
	LotID         string `json:"lot_id"`
	UserID        string `json:"user_id"`
	BidValue      string `json:"bid_value"`
	Status        string `json:"status"`
	IsWinner      bool   `json:"is_winner"`
	InternalNotes string `json:"internal_notes"`
	ClientNotes   string `json:"client_notes"`
	CreatedAt     string `json:"created_at"`
	DecidedAt     string `json:"decided_at,omitempty"`
}

type LotResponse struct {
	LotID           string `json:"lot_id"`
	Title           string `json:"title"`
	InitialBidValue string `json:"initial_bid_value"`
	CurrentBidValue string `json:"current_bid_value"`
	BidIncrement    string `json:"bid_increment"`
	MinimumNextBid  string `json:"minimum_next_bid"`
	WinnerBidID     string `json:"winner_bid_id,omitempty"`
}

type AuctionResponse struct {
	AuctionID string        `json:"auction_id"`
	Title     string        `json:"title"`
	Status    string        `json:"status"`
	IsLive    bool          `json:"is_live"`
	Lots      []LotResponse `json:"lots"`
	CreatedAt string        `json:"created_at"`
}

type EligibilityResponse struct {
	UserID    string `json:"user_id"`
	AuctionID string `json:"auction_id"`
	Eligible  bool   `json:"eligible"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NewRegistrationResponse converts a registration to its wire form
func NewRegistrationResponse(reg model.Registration) RegistrationResponse {
	return RegistrationResponse{
		RegistrationID:            reg.RegistrationID,
		UserID:                    reg.UserID,
		AuctionID:                 reg.AuctionID,
		Status:                    string(reg.Status),
		NextRegistrationAllowedAt: formatOptionalTime(reg.NextRegistrationAllowedAt),
		InternalNotes:             reg.InternalNotes,
		ClientNotes:               reg.ClientNotes,
		CreatedAt:                 formatTime(reg.CreatedAt),
		DecidedAt:                 formatOptionalTime(reg.DecidedAt),
	}
}

// NewRegistrationResponses converts a list, never returning nil
func NewRegistrationResponses(regs []model.Registration) []RegistrationResponse {
	out := make([]RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, NewRegistrationResponse(reg))
	}
	return out
}

// NewBidResponse converts a bid to its wire form
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:         bid.BidID,
		AuctionID:     bid.AuctionID,
		LotID:         bid.LotID,
		UserID:        bid.UserID,
		BidValue:      formatMoney(bid.BidValue),
		Status:        string(bid.Status),
		IsWinner:      bid.IsWinner,
		InternalNotes: bid.InternalNotes,
		ClientNotes:   bid.ClientNotes,
		CreatedAt:     formatTime(bid.CreatedAt),
		DecidedAt:     formatOptionalTime(bid.DecidedAt),
	}
}

// NewBidResponses converts a list, never returning nil
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		out = append(out, NewBidResponse(bid))
	}
	return out
}

// NewAuctionResponse converts an auction and its lots to wire form.
// The minimum next bid shown is based on the lot's current value.
func NewAuctionResponse(auction model.Auction) AuctionResponse {
	lots := make([]LotResponse, 0, len(auction.Lots))
	for _, lot := range auction.Lots {
		lots = append(lots, LotResponse{
			LotID:           lot.LotID,
			Title:           lot.Title,
			InitialBidValue: formatMoney(lot.InitialBidValue),
			CurrentBidValue: formatMoney(lot.CurrentBidValue),
			BidIncrement:    formatMoney(lot.BidIncrement),
			MinimumNextBid:  formatMoney(lot.MinimumNextBid(lot.CurrentBidValue)),
			WinnerBidID:     lot.WinnerBidID,
		})
	}
	return AuctionResponse{
		AuctionID: auction.AuctionID,
		Title:     auction.Title,
		Status:    string(auction.Status),
		IsLive:    auction.IsLive,
		Lots:      lots,
		CreatedAt: formatTime(auction.CreatedAt),
	}
}

// ToAuction converts a create request into the domain model
func (r CreateAuctionRequest) ToAuction() model.Auction {
	auction := model.Auction{
		AuctionID: r.AuctionID,
		Title:     r.Title,
		Status:    r.Status,
		IsLive:    r.IsLive,
		Lots:      make([]model.Lot, 0, len(r.Lots)),
	}
	for _, lot := range r.Lots {
		auction.Lots = append(auction.Lots, model.Lot{
			LotID:           lot.LotID,
			Title:           lot.Title,
			InitialBidValue: lot.InitialBidValue,
			CurrentBidValue: lot.InitialBidValue,
			BidIncrement:    lot.BidIncrement,
		})
	}
	return auction
}
