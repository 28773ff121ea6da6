package bidding

import (
	"context"
	"fmt"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// monetaryPrecision is the number of decimal places kept on bid amounts
const monetaryPrecision = 2

// Money must fit NUMERIC(18,2): below 10^16 after rounding.
// Scale is capped so rounding never rescales an unbounded coefficient.
const (
	maxIntegerDigits  = 16
	maxFractionDigits = 18
)

var maxMonetaryValue = decimal.New(1, maxIntegerDigits)

// normalizeMoney rounds d to monetaryPrecision, reporting false when d is out of storable range.
// Digits and exponent are checked before Round.
func normalizeMoney(d decimal.Decimal) (decimal.Decimal, bool) {
	exp := int(d.Exponent())
	if exp < -maxFractionDigits || d.NumDigits()+exp > maxIntegerDigits {
		return decimal.Zero, false
	}
	d = d.Round(monetaryPrecision)
	if d.Abs().GreaterThanOrEqual(maxMonetaryValue) {
		return decimal.Zero, false
	}
	return d, true
}

// BidArbiter admits, orders and moderates competing bids on a lot
type BidArbiter struct {
	*core
}

// SubmitBid records a pending bid after checking, in order:
// eligibility, the lot's pending slot, the minimum increment, the lot's winner and the auction status.
// The whole check-and-insert runs as one ledger transaction.
func (a *BidArbiter) SubmitBid(ctx context.Context, userID, auctionID, lotID string, amount decimal.Decimal) (model.Bid, error) {
	if userID == "" || auctionID == "" || lotID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing userID, auctionID or lotID", biddingerrors.ErrInvalidBid)
	}
	amount, ok := normalizeMoney(amount)
	if !ok {
		return model.Bid{}, fmt.Errorf("service: %w - amount out of range", biddingerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}

	now := a.clock()
	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		LotID:     lotID,
		UserID:    userID,
		BidValue:  amount,
		Status:    model.BidPending,
		CreatedAt: now,
	}

	err := a.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		auction, err := tx.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		lot, err := tx.GetLot(ctx, auctionID, lotID)
		if err != nil {
			return err
		}

		ok, err := eligible(ctx, tx, userID, auctionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w - user %s in auction %s", biddingerrors.ErrNotEligible, userID, auctionID)
		}

		pending, err := tx.ListBids(ctx, repository.BidFilter{
			AuctionID: auctionID,
			LotID:     lotID,
			Statuses:  []model.BidStatus{model.BidPending},
		})
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return fmt.Errorf("%w - bid %s is awaiting a decision", biddingerrors.ErrBidInFlight, pending[0].BidID)
		}

		highest, err := highestAccepted(ctx, tx, lot)
		if err != nil {
			return err
		}
		if minimum := lot.MinimumNextBid(highest); amount.LessThan(minimum) {
			return fmt.Errorf("%w - minimum next bid is %s", biddingerrors.ErrBidTooLow, minimum.StringFixed(monetaryPrecision))
		}

		if lot.Closed() {
			return fmt.Errorf("%w - lot %s", biddingerrors.ErrLotClosed, lotID)
		}
		if auction.Status != model.AuctionActive {
			return fmt.Errorf("%w - auction %s is %s", biddingerrors.ErrAuctionInactive, auctionID, auction.Status)
		}

		return tx.InsertBid(ctx, bid)
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to submit bid on lot %s by user %s: %w", lotID, userID, err)
	}

	a.announce(ctx, model.Event{
		Type:       model.EventBidCreated,
		AuctionID:  auctionID,
		LotID:      lotID,
		Bid:        &bid,
		OccurredAt: now,
	})
	return bid, nil
}

// Decide approves or rejects a pending bid.
// Approval moves the lot's current value to the bid and supersedes lower approved bids.
func (a *BidArbiter) Decide(ctx context.Context, bidID string, outcome model.Outcome, notes model.Notes) (model.Bid, error) {
	if bidID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty bid ID", biddingerrors.ErrInvalidBid)
	}
	if !outcome.Valid() {
		return model.Bid{}, fmt.Errorf("service: %w - unknown outcome %q", biddingerrors.ErrInvalidDecision, outcome)
	}

	now := a.clock()
	var (
		decided    model.Bid
		superseded []string
	)
	err := a.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		superseded = nil
		bid, err := tx.GetBid(ctx, bidID)
		if err != nil {
			return err
		}
		if bid.Status != model.BidPending {
			return fmt.Errorf("%w - bid %s is %s", biddingerrors.ErrInvalidState, bidID, bid.Status)
		}

		bid.Status = model.BidStatus(outcome)
		bid.InternalNotes = notes.Internal
		bid.ClientNotes = notes.Client
		bid.DecidedAt = &now

		if outcome == model.OutcomeRejected {
			decided = bid
			return tx.UpdateBid(ctx, bid, model.BidPending)
		}

		lot, err := tx.GetLot(ctx, bid.AuctionID, bid.LotID)
		if err != nil {
			return err
		}
		highest, err := highestAccepted(ctx, tx, lot)
		if err != nil {
			return err
		}
		if !bid.BidValue.GreaterThan(highest) {
			return fmt.Errorf("%w - lot %s already accepted %s", biddingerrors.ErrBidTooLow, bid.LotID, highest.StringFixed(monetaryPrecision))
		}

		if err := tx.UpdateBid(ctx, bid, model.BidPending); err != nil {
			return err
		}
		if err := tx.SetLotCurrentBid(ctx, bid.AuctionID, bid.LotID, bid.BidValue); err != nil {
			return err
		}

		approved, err := tx.ListBids(ctx, repository.BidFilter{
			AuctionID: bid.AuctionID,
			LotID:     bid.LotID,
			Statuses:  []model.BidStatus{model.BidApproved},
		})
		if err != nil {
			return err
		}
		for _, other := range approved {
			if other.BidID == bid.BidID || !other.BidValue.LessThan(bid.BidValue) {
				continue
			}
			other.Status = model.BidSuperseded
			if err := tx.UpdateBid(ctx, other, model.BidApproved); err != nil {
				return err
			}
			superseded = append(superseded, other.BidID)
		}

		decided = bid
		return nil
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to decide bid %s: %w", bidID, err)
	}

	a.announce(ctx, model.Event{
		Type:       model.EventBidDecided,
		AuctionID:  decided.AuctionID,
		LotID:      decided.LotID,
		Bid:        &decided,
		Superseded: superseded,
		OccurredAt: now,
	})
	return decided, nil
}

// highestAccepted is the largest approved bid value on the lot, never below the lot's current value
func highestAccepted(ctx context.Context, tx repository.Tx, lot model.Lot) (decimal.Decimal, error) {
	approved, err := tx.ListBids(ctx, repository.BidFilter{
		AuctionID: lot.AuctionID,
		LotID:     lot.LotID,
		Statuses:  []model.BidStatus{model.BidApproved},
	})
	if err != nil {
		return decimal.Zero, err
	}

	highest := decimal.Max(lot.CurrentBidValue, lot.InitialBidValue)
	for _, bid := range approved {
		highest = decimal.Max(highest, bid.BidValue)
	}
	return highest, nil
}
