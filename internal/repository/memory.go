package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

type lotKey struct {
	auctionID string
	lotID     string
}

// MemoryRepo is a concurrency-safe in-memory implementation of Ledger.
// Transactions are serialized by a single lock, which is only sufficient for a single-process deployment.
type MemoryRepo struct {
	mu            sync.RWMutex
	auctions      map[string]model.Auction      // key: auctionID -> auction without lots
	lotOrder      map[string][]string           // key: auctionID -> lot ids in insertion order
	lots          map[lotKey]model.Lot          // key: (auctionID, lotID) -> lot
	registrations map[string]model.Registration // key: registrationID -> registration
	regOrder      []string                      // registration ids in insertion order
	bids          map[string]model.Bid          // key: bidID -> bid
	bidsByLot     map[lotKey][]string           // key: (auctionID, lotID) -> bid ids in insertion order
	bidsByUser    map[string][]string           // key: userID -> bid ids in insertion order
	bidOrder      []string                      // bid ids in insertion order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:      make(map[string]model.Auction),
		lotOrder:      make(map[string][]string),
		lots:          make(map[lotKey]model.Lot),
		registrations: make(map[string]model.Registration),
		bids:          make(map[string]model.Bid),
		bidsByLot:     make(map[lotKey][]string),
		bidsByUser:    make(map[string][]string),
	}
}

// WithinTx runs fn while holding the write lock and rolls back its writes if it fails
func (r *MemoryRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn while holding the read lock
func (r *MemoryRepo) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fn(ctx, &memoryTx{repo: r, readOnly: true})
}

// Close is a no-op for the memory ledger
func (r *MemoryRepo) Close() error {
	return nil
}

// AddAuction stores an auction outside of a transaction. This method is intended for tests and seeding.
func (r *MemoryRepo) AddAuction(auction model.Auction) error {
	return r.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertAuction(ctx, auction)
	})
}

type memoryTx struct {
	repo     *MemoryRepo
	readOnly bool
	undo     []func()
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *memoryTx) InsertAuction(_ context.Context, auction model.Auction) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := t.repo
	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("insert auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
	}

	lots := auction.Lots
	auction.Lots = nil
	r.auctions[auction.AuctionID] = auction
	ids := make([]string, 0, len(lots))
	for _, lot := range lots {
		lot.AuctionID = auction.AuctionID
		r.lots[lotKey{auction.AuctionID, lot.LotID}] = lot
		ids = append(ids, lot.LotID)
	}
	r.lotOrder[auction.AuctionID] = ids

	t.undo = append(t.undo, func() {
		for _, id := range ids {
			delete(r.lots, lotKey{auction.AuctionID, id})
		}
		delete(r.lotOrder, auction.AuctionID)
		delete(r.auctions, auction.AuctionID)
	})
	return nil
}

func (t *memoryTx) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r := t.repo
	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	auction.Lots = make([]model.Lot, 0, len(r.lotOrder[auctionID]))
	for _, id := range r.lotOrder[auctionID] {
		auction.Lots = append(auction.Lots, r.lots[lotKey{auctionID, id}])
	}
	return auction, nil
}

func (t *memoryTx) GetLot(_ context.Context, auctionID, lotID string) (model.Lot, error) {
	lot, ok := t.repo.lots[lotKey{auctionID, lotID}]
	if !ok {
		return model.Lot{}, fmt.Errorf("get lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	return lot, nil
}

func (t *memoryTx) SetLotCurrentBid(_ context.Context, auctionID, lotID string, value decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := lotKey{auctionID, lotID}
	lot, ok := t.repo.lots[key]
	if !ok {
		return fmt.Errorf("set current bid for lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	prev := lot
	lot.CurrentBidValue = value
	t.repo.lots[key] = lot
	t.undo = append(t.undo, func() { t.repo.lots[key] = prev })
	return nil
}

func (t *memoryTx) CloseLot(_ context.Context, auctionID, lotID, winnerBidID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := lotKey{auctionID, lotID}
	lot, ok := t.repo.lots[key]
	if !ok {
		return fmt.Errorf("close lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	if lot.Closed() {
		return fmt.Errorf("close lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotClosed)
	}
	prev := lot
	lot.WinnerBidID = winnerBidID
	t.repo.lots[key] = lot
	t.undo = append(t.undo, func() { t.repo.lots[key] = prev })
	return nil
}

func (t *memoryTx) InsertRegistration(_ context.Context, reg model.Registration) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := t.repo
	if reg.Status.Active() {
		for _, existing := range r.registrations {
			if existing.UserID == reg.UserID && existing.AuctionID == reg.AuctionID && existing.Status.Active() {
				return fmt.Errorf("insert registration for user %s: %w", reg.UserID, biddingerrors.ErrAlreadyRegistered)
			}
		}
	}

	r.registrations[reg.RegistrationID] = reg
	r.regOrder = append(r.regOrder, reg.RegistrationID)
	t.undo = append(t.undo, func() {
		delete(r.registrations, reg.RegistrationID)
		r.regOrder = r.regOrder[:len(r.regOrder)-1]
	})
	return nil
}

func (t *memoryTx) GetRegistration(_ context.Context, registrationID string) (model.Registration, error) {
	reg, ok := t.repo.registrations[registrationID]
	if !ok {
		return model.Registration{}, fmt.Errorf("get registration %s: %w", registrationID, biddingerrors.ErrRegistrationNotFound)
	}
	return reg, nil
}

func (t *memoryTx) ListRegistrations(_ context.Context, filter RegistrationFilter) ([]model.Registration, error) {
	var out []model.Registration
	for _, id := range t.repo.regOrder {
		if reg := t.repo.registrations[id]; filter.Matches(reg) {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (t *memoryTx) UpdateRegistration(_ context.Context, reg model.Registration, expected model.RegistrationStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	prev, ok := t.repo.registrations[reg.RegistrationID]
	if !ok {
		return fmt.Errorf("update registration %s: %w", reg.RegistrationID, biddingerrors.ErrRegistrationNotFound)
	}
	if prev.Status != expected {
		return fmt.Errorf("update registration %s: %w - status is %s, expected %s", reg.RegistrationID, biddingerrors.ErrInvalidState, prev.Status, expected)
	}
	t.repo.registrations[reg.RegistrationID] = reg
	t.undo = append(t.undo, func() { t.repo.registrations[reg.RegistrationID] = prev })
	return nil
}

func (t *memoryTx) InsertBid(_ context.Context, bid model.Bid) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := t.repo
	key := lotKey{bid.AuctionID, bid.LotID}
	if _, ok := r.lots[key]; !ok {
		return fmt.Errorf("insert bid for lot %s/%s: %w", bid.AuctionID, bid.LotID, biddingerrors.ErrLotNotFound)
	}
	if bid.Status == model.BidPending {
		for _, id := range r.bidsByLot[key] {
			if r.bids[id].Status == model.BidPending {
				return fmt.Errorf("insert bid for lot %s/%s: %w", bid.AuctionID, bid.LotID, biddingerrors.ErrBidInFlight)
			}
		}
	}

	r.bids[bid.BidID] = bid
	r.bidOrder = append(r.bidOrder, bid.BidID)
	r.bidsByLot[key] = append(r.bidsByLot[key], bid.BidID)
	r.bidsByUser[bid.UserID] = append(r.bidsByUser[bid.UserID], bid.BidID)
	t.undo = append(t.undo, func() {
		delete(r.bids, bid.BidID)
		r.bidOrder = r.bidOrder[:len(r.bidOrder)-1]
		r.bidsByLot[key] = r.bidsByLot[key][:len(r.bidsByLot[key])-1]
		r.bidsByUser[bid.UserID] = r.bidsByUser[bid.UserID][:len(r.bidsByUser[bid.UserID])-1]
	})
	return nil
}

func (t *memoryTx) GetBid(_ context.Context, bidID string) (model.Bid, error) {
	bid, ok := t.repo.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biddingerrors.ErrBidNotFound)
	}
	return bid, nil
}

func (t *memoryTx) ListBids(_ context.Context, filter BidFilter) ([]model.Bid, error) {
	r := t.repo
	ids := r.bidOrder
	switch {
	case filter.AuctionID != "" && filter.LotID != "":
		ids = r.bidsByLot[lotKey{filter.AuctionID, filter.LotID}]
	case filter.UserID != "":
		ids = r.bidsByUser[filter.UserID]
	}

	var out []model.Bid
	for _, id := range ids {
		if bid := r.bids[id]; filter.Matches(bid) {
			out = append(out, bid)
		}
	}
	return out, nil
}

func (t *memoryTx) UpdateBid(_ context.Context, bid model.Bid, expected model.BidStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := t.repo
	prev, ok := r.bids[bid.BidID]
	if !ok {
		return fmt.Errorf("update bid %s: %w", bid.BidID, biddingerrors.ErrBidNotFound)
	}
	if prev.Status != expected {
		return fmt.Errorf("update bid %s: %w - status is %s, expected %s", bid.BidID, biddingerrors.ErrInvalidState, prev.Status, expected)
	}
	if bid.IsWinner && !prev.IsWinner {
		for _, id := range r.bidsByLot[lotKey{bid.AuctionID, bid.LotID}] {
			if id != bid.BidID && r.bids[id].IsWinner {
				return fmt.Errorf("update bid %s: %w", bid.BidID, biddingerrors.ErrLotClosed)
			}
		}
	}
	r.bids[bid.BidID] = bid
	t.undo = append(t.undo, func() { r.bids[bid.BidID] = prev })
	return nil
}
