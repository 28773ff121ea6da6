package bidding

import (
	"context"
	"fmt"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
)

// WinnerResolver finalizes a lot
type WinnerResolver struct {
	*core
}

// DeclareWinner marks an approved bid as the lot's winner, supersedes every other bid on the lot
// and closes the lot to new bids. Declaring the same bid again returns it unchanged.
func (w *WinnerResolver) DeclareWinner(ctx context.Context, bidID string) (model.Bid, error) {
	if bidID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty bid ID", biddingerrors.ErrInvalidBid)
	}

	now := w.clock()
	var (
		winner     model.Bid
		superseded []string
		repeated   bool
	)
	err := w.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		superseded = nil
		bid, err := tx.GetBid(ctx, bidID)
		if err != nil {
			return err
		}
		if bid.IsWinner {
			winner, repeated = bid, true
			return nil
		}

		lot, err := tx.GetLot(ctx, bid.AuctionID, bid.LotID)
		if err != nil {
			return err
		}
		if lot.Closed() {
			return fmt.Errorf("%w - bid %s already won lot %s", biddingerrors.ErrLotClosed, lot.WinnerBidID, lot.LotID)
		}
		if bid.Status != model.BidApproved {
			return fmt.Errorf("%w - bid %s is %s", biddingerrors.ErrInvalidState, bidID, bid.Status)
		}

		bid.IsWinner = true
		if err := tx.UpdateBid(ctx, bid, model.BidApproved); err != nil {
			return err
		}

		others, err := tx.ListBids(ctx, repository.BidFilter{AuctionID: bid.AuctionID, LotID: bid.LotID})
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.BidID == bid.BidID || other.Status == model.BidSuperseded {
				continue
			}
			prior := other.Status
			other.Status = model.BidSuperseded
			if other.DecidedAt == nil {
				other.DecidedAt = &now
			}
			if err := tx.UpdateBid(ctx, other, prior); err != nil {
				return err
			}
			superseded = append(superseded, other.BidID)
		}

		if err := tx.CloseLot(ctx, bid.AuctionID, bid.LotID, bid.BidID); err != nil {
			return err
		}
		winner = bid
		return nil
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to declare winner bid %s: %w", bidID, err)
	}

	if !repeated {
		w.announce(ctx, model.Event{
			Type:       model.EventWinnerDeclared,
			AuctionID:  winner.AuctionID,
			LotID:      winner.LotID,
			Bid:        &winner,
			Superseded: superseded,
			OccurredAt: now,
		})
	}
	return winner, nil
}
