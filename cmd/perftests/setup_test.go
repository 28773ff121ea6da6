package perftests

import (
	"context"
	"fmt"
	"testing"

	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	repository "auction-engine/internal/repository"

	"github.com/shopspring/decimal"
)

// setupService creates a bidding service over the memory ledger with one auction of numLots lots
// and numUsers approved bidders named user_0..user_n.
func setupService(tb testing.TB, numLots, numUsers int) *bidding.BiddingService {
	tb.Helper()
	ctx := context.Background()
	svc := bidding.NewBiddingService(repository.NewMemoryRepo())

	auction := model.Auction{AuctionID: "bench", Title: "Benchmark auction"}
	for i := 0; i < numLots; i++ {
		auction.Lots = append(auction.Lots, model.Lot{
			LotID:           fmt.Sprintf("lot_%d", i),
			InitialBidValue: decimal.NewFromInt(100),
			BidIncrement:    decimal.NewFromInt(1),
		})
	}
	if _, err := svc.CreateAuction(ctx, auction); err != nil {
		tb.Fatalf("failed to create auction: %v", err)
	}

	for i := 0; i < numUsers; i++ {
		reg, err := svc.RequestRegistration(ctx, fmt.Sprintf("user_%d", i), "bench")
		if err != nil {
			tb.Fatalf("failed to request registration: %v", err)
		}
		if _, err := svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeApproved, model.Notes{}, 0); err != nil {
			tb.Fatalf("failed to approve registration: %v", err)
		}
	}
	return svc
}

// approveBid submits and approves one bid, failing the benchmark on error
func approveBid(tb testing.TB, svc *bidding.BiddingService, userID, lotID string, amount int64) {
	tb.Helper()
	ctx := context.Background()
	bid, err := svc.SubmitBid(ctx, userID, "bench", lotID, decimal.NewFromInt(amount))
	if err != nil {
		tb.Fatalf("failed to submit bid: %v", err)
	}
	if _, err := svc.DecideBid(ctx, bid.BidID, model.OutcomeApproved, model.Notes{}); err != nil {
		tb.Fatalf("failed to approve bid: %v", err)
	}
}
