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

// CreateAuction validates and stores a new auction with its lots.
// A missing id is generated, a missing status defaults to active and each lot starts at its initial value.
func (s *BiddingService) CreateAuction(ctx context.Context, auction model.Auction) (model.Auction, error) {
	if err := s.prepareAuction(&auction); err != nil {
		return model.Auction{}, err
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertAuction(ctx, auction)
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction %s: %w", auction.AuctionID, err)
	}
	return auction, nil
}

func (s *BiddingService) prepareAuction(auction *model.Auction) error {
	if auction.AuctionID == "" {
		auction.AuctionID = utils.GenerateID()
	}
	switch auction.Status {
	case "":
		auction.Status = model.AuctionActive
	case model.AuctionActive, model.AuctionInactive:
	default:
		return fmt.Errorf("service: %w - unknown status %q", biddingerrors.ErrInvalidAuction, auction.Status)
	}
	if len(auction.Lots) == 0 {
		return fmt.Errorf("service: %w - auction has no lots", biddingerrors.ErrInvalidAuction)
	}

	seen := make(map[string]struct{}, len(auction.Lots))
	for i := range auction.Lots {
		lot := &auction.Lots[i]
		if lot.LotID == "" {
			return fmt.Errorf("service: %w - lot %d has no id", biddingerrors.ErrInvalidAuction, i)
		}
		if _, dup := seen[lot.LotID]; dup {
			return fmt.Errorf("service: %w - duplicate lot %s", biddingerrors.ErrInvalidAuction, lot.LotID)
		}
		seen[lot.LotID] = struct{}{}

		lot.AuctionID = auction.AuctionID
		for _, value := range []*decimal.Decimal{&lot.InitialBidValue, &lot.BidIncrement, &lot.CurrentBidValue} {
			rounded, ok := normalizeMoney(*value)
			if !ok {
				return fmt.Errorf("service: %w - lot %s has a value out of range", biddingerrors.ErrInvalidAuction, lot.LotID)
			}
			*value = rounded
		}
		lot.WinnerBidID = ""
		if lot.InitialBidValue.IsNegative() {
			return fmt.Errorf("service: %w - lot %s has a negative initial value", biddingerrors.ErrInvalidAuction, lot.LotID)
		}
		if !lot.BidIncrement.IsPositive() {
			return fmt.Errorf("service: %w - lot %s needs a positive increment", biddingerrors.ErrInvalidAuction, lot.LotID)
		}
		if lot.CurrentBidValue.LessThan(lot.InitialBidValue) {
			lot.CurrentBidValue = lot.InitialBidValue
		}
	}
	auction.CreatedAt = s.clock()
	return nil
}

// GetAuction returns the auction with its lots
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}

	var auction model.Auction
	err := s.repo.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		auction, err = tx.GetAuction(ctx, auctionID)
		return err
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// CurrentHighestBid returns the highest approved bid on a lot, or ErrNoBids
func (s *BiddingService) CurrentHighestBid(ctx context.Context, auctionID, lotID string) (model.Bid, error) {
	if auctionID == "" || lotID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or lotID", biddingerrors.ErrInvalidBid)
	}

	var highest model.Bid
	err := s.repo.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetLot(ctx, auctionID, lotID); err != nil {
			return err
		}
		approved, err := tx.ListBids(ctx, repository.BidFilter{
			AuctionID: auctionID,
			LotID:     lotID,
			Statuses:  []model.BidStatus{model.BidApproved},
		})
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			return biddingerrors.ErrNoBids
		}
		highest = approved[0]
		for _, bid := range approved[1:] {
			if bid.BidValue.GreaterThan(highest.BidValue) {
				highest = bid
			}
		}
		return nil
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get highest bid for lot %s: %w", lotID, err)
	}
	return highest, nil
}

// PendingRegistrations lists registrations awaiting a decision in an auction, oldest first
func (s *BiddingService) PendingRegistrations(ctx context.Context, auctionID string) ([]model.Registration, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidRequest)
	}
	return s.listRegistrations(ctx, repository.RegistrationFilter{
		AuctionID: auctionID,
		Statuses:  []model.RegistrationStatus{model.RegistrationPending},
	})
}

// RegistrationsForUser lists a user's registration history in an auction, oldest first
func (s *BiddingService) RegistrationsForUser(ctx context.Context, userID, auctionID string) ([]model.Registration, error) {
	if userID == "" || auctionID == "" {
		return nil, fmt.Errorf("service: %w - missing userID or auctionID", biddingerrors.ErrInvalidRequest)
	}
	return s.listRegistrations(ctx, repository.RegistrationFilter{AuctionID: auctionID, UserID: userID})
}

func (s *BiddingService) listRegistrations(ctx context.Context, filter repository.RegistrationFilter) ([]model.Registration, error) {
	regs := []model.Registration{}
	err := s.repo.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetAuction(ctx, filter.AuctionID); err != nil {
			return err
		}
		found, err := tx.ListRegistrations(ctx, filter)
		regs = append(regs, found...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list registrations for auction %s: %w", filter.AuctionID, err)
	}
	return regs, nil
}

// PendingBids lists bids awaiting a decision across all lots of an auction, oldest first
func (s *BiddingService) PendingBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}
	return s.listBids(ctx, repository.BidFilter{
		AuctionID: auctionID,
		Statuses:  []model.BidStatus{model.BidPending},
	})
}

// BidsForLot returns the full bid history of a lot, oldest first
func (s *BiddingService) BidsForLot(ctx context.Context, auctionID, lotID string) ([]model.Bid, error) {
	if auctionID == "" || lotID == "" {
		return nil, fmt.Errorf("service: %w - missing auctionID or lotID", biddingerrors.ErrInvalidBid)
	}
	return s.listBids(ctx, repository.BidFilter{AuctionID: auctionID, LotID: lotID})
}

// BidsByUser returns every bid a user has placed, across auctions
func (s *BiddingService) BidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBid)
	}
	return s.listBids(ctx, repository.BidFilter{UserID: userID})
}

func (s *BiddingService) listBids(ctx context.Context, filter repository.BidFilter) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := s.repo.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		switch {
		case filter.LotID != "":
			if _, err := tx.GetLot(ctx, filter.AuctionID, filter.LotID); err != nil {
				return err
			}
		case filter.AuctionID != "":
			if _, err := tx.GetAuction(ctx, filter.AuctionID); err != nil {
				return err
			}
		}
		found, err := tx.ListBids(ctx, filter)
		bids = append(bids, found...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids: %w", err)
	}
	return bids, nil
}
