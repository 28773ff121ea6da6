package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the administrative state of an auction
type AuctionStatus string

const (
	AuctionInactive AuctionStatus = "inactive"
	AuctionActive   AuctionStatus = "active"
)

// RegistrationStatus is the eligibility state of a bidder for one auction
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Active reports whether the registration blocks a new request for the same auction
func (s RegistrationStatus) Active() bool {
	return s == RegistrationPending || s == RegistrationApproved
}

// BidStatus is the moderation state of a bid
type BidStatus string

const (
	BidPending    BidStatus = "pending"
	BidApproved   BidStatus = "approved"
	BidRejected   BidStatus = "rejected"
	BidSuperseded BidStatus = "superseded"
)

// Outcome is an administrator decision on a pending registration or bid
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Valid reports whether o is one of the two accepted decisions
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeRejected:
		return true
	default:
		return false
	}
}

// Notes carries the administrator's remarks on a decision
type Notes struct {
	Internal string `json:"internal_notes"`
	Client   string `json:"client_notes"`
}

// Auction groups the lots offered in one sale
type Auction struct {
	AuctionID string        `json:"auction_id"`
	Title     string        `json:"title"`
	Status    AuctionStatus `json:"status"`
	IsLive    bool          `json:"is_live"`
	Lots      []Lot         `json:"lots"`
	CreatedAt time.Time     `json:"created_at"`
}

// Lot is an item inside an auction that is bid on independently
type Lot struct {
	AuctionID       string          `json:"auction_id"`
	LotID           string          `json:"lot_id"`
	Title           string          `json:"title"`
	InitialBidValue decimal.Decimal `json:"initial_bid_value"`
	CurrentBidValue decimal.Decimal `json:"current_bid_value"`
	BidIncrement    decimal.Decimal `json:"bid_increment"`
	WinnerBidID     string          `json:"winner_bid_id,omitempty"`
}

// Closed reports whether a winner has been declared for the lot
func (l Lot) Closed() bool {
	return l.WinnerBidID != ""
}

// MinimumNextBid returns the smallest amount that may be admitted given the highest accepted value
func (l Lot) MinimumNextBid(highestAccepted decimal.Decimal) decimal.Decimal {
	return highestAccepted.Add(l.BidIncrement)
}

// Registration is a bidder's request to take part in an auction
type Registration struct {
	RegistrationID            string             `json:"registration_id"`
	UserID                    string             `json:"user_id"`
	AuctionID                 string             `json:"auction_id"`
	Status                    RegistrationStatus `json:"status"`
	NextRegistrationAllowedAt *time.Time         `json:"next_registration_allowed_at,omitempty"`
	InternalNotes             string             `json:"internal_notes"`
	ClientNotes               string             `json:"client_notes"`
	CreatedAt                 time.Time          `json:"created_at"`
	DecidedAt                 *time.Time         `json:"decided_at,omitempty"`
}

// Bid represents a user's offer on a lot
type Bid struct {
	BidID         string          `json:"bid_id"`
	AuctionID     string          `json:"auction_id"`
	LotID         string          `json:"lot_id"`
	UserID        string          `json:"user_id"`
	BidValue      decimal.Decimal `json:"bid_value"`
	Status        BidStatus       `json:"status"`
	IsWinner      bool            `json:"is_winner"`
	InternalNotes string          `json:"internal_notes"`
	ClientNotes   string          `json:"client_notes"`
	CreatedAt     time.Time       `json:"created_at"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
}
