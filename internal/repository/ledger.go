package repository

//go:generate mockgen -destination=mock_ledger.go -package=repository auction-engine/internal/repository Ledger,Tx

import (
	"context"
	"slices"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Ledger is the durable store of auctions, registrations and bids.
// Every engine operation runs inside WithinTx so that its checks and writes
// commit as one conditional unit, even across engine instances.
type Ledger interface {
	// WithinTx runs fn atomically. If fn returns an error, none of its writes are kept.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the set of reads and conditional writes available inside a Ledger transaction.
type Tx interface {
	InsertAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	// GetLot returns the lot and, on SQL ledgers, locks it until the transaction ends.
	GetLot(ctx context.Context, auctionID, lotID string) (model.Lot, error)
	SetLotCurrentBid(ctx context.Context, auctionID, lotID string, value decimal.Decimal) error
	// CloseLot records the winner; it fails with ErrLotClosed if a winner is already set.
	CloseLot(ctx context.Context, auctionID, lotID, winnerBidID string) error

	// InsertRegistration fails with ErrAlreadyRegistered if the user has an active registration for the auction.
	InsertRegistration(ctx context.Context, reg model.Registration) error
	GetRegistration(ctx context.Context, registrationID string) (model.Registration, error)
	ListRegistrations(ctx context.Context, filter RegistrationFilter) ([]model.Registration, error)
	// UpdateRegistration writes reg only if the stored status equals expected, else ErrInvalidState.
	UpdateRegistration(ctx context.Context, reg model.Registration, expected model.RegistrationStatus) error

	// InsertBid fails with ErrBidInFlight if the lot already has a pending bid.
	InsertBid(ctx context.Context, bid model.Bid) error
	GetBid(ctx context.Context, bidID string) (model.Bid, error)
	ListBids(ctx context.Context, filter BidFilter) ([]model.Bid, error)
	// UpdateBid writes bid only if the stored status equals expected, else ErrInvalidState.
	UpdateBid(ctx context.Context, bid model.Bid, expected model.BidStatus) error
}

// BidFilter selects bids; empty fields match everything. Results are ordered oldest first.
type BidFilter struct {
	AuctionID string
	LotID     string
	UserID    string
	Statuses  []model.BidStatus
}

// Matches reports whether b satisfies every set field of the filter
func (f BidFilter) Matches(b model.Bid) bool {
	if f.AuctionID != "" && b.AuctionID != f.AuctionID {
		return false
	}
	if f.LotID != "" && b.LotID != f.LotID {
		return false
	}
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	return len(f.Statuses) == 0 || slices.Contains(f.Statuses, b.Status)
}

// RegistrationFilter selects registrations; empty fields match everything. Results are ordered oldest first.
type RegistrationFilter struct {
	AuctionID string
	UserID    string
	Statuses  []model.RegistrationStatus
}

// Matches reports whether r satisfies every set field of the filter
func (f RegistrationFilter) Matches(r model.Registration) bool {
	if f.AuctionID != "" && r.AuctionID != f.AuctionID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return len(f.Statuses) == 0 || slices.Contains(f.Statuses, r.Status)
}
