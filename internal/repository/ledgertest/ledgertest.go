// Package ledgertest checks that a repository.Ledger enforces the engine's storage invariants.
// Every Ledger implementation runs the same suite from its own tests.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty ledger. The suite closes it when the test ends.
type Factory func(t *testing.T) repository.Ledger

var errAbort = errors.New("abort")

// base is a fixed timestamp with millisecond precision so every ledger round-trips it exactly
var base = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// Auction returns an active auction with two lots, lot1 (1000 by 100) and lot2 (50 by 5)
func Auction(auctionID string) model.Auction {
	return model.Auction{
		AuctionID: auctionID,
		Title:     "Estate sale",
		Status:    model.AuctionActive,
		IsLive:    true,
		CreatedAt: base,
		Lots: []model.Lot{
			{
				AuctionID:       auctionID,
				LotID:           "lot1",
				Title:           "Clock",
				InitialBidValue: decimal.RequireFromString("1000"),
				CurrentBidValue: decimal.RequireFromString("1000"),
				BidIncrement:    decimal.RequireFromString("100"),
			},
			{
				AuctionID:       auctionID,
				LotID:           "lot2",
				Title:           "Vase",
				InitialBidValue: decimal.RequireFromString("50"),
				CurrentBidValue: decimal.RequireFromString("50"),
				BidIncrement:    decimal.RequireFromString("5"),
			},
		},
	}
}

// Bid returns a pending bid on lot1 of auction1
func Bid(bidID, userID, value string, offset time.Duration) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: "auction1",
		LotID:     "lot1",
		UserID:    userID,
		BidValue:  decimal.RequireFromString(value),
		Status:    model.BidPending,
		CreatedAt: base.Add(offset),
	}
}

// Registration returns a pending registration in auction1
func Registration(registrationID, userID string, offset time.Duration) model.Registration {
	return model.Registration{
		RegistrationID: registrationID,
		UserID:         userID,
		AuctionID:      "auction1",
		Status:         model.RegistrationPending,
		CreatedAt:      base.Add(offset),
	}
}

func write(t *testing.T, ledger repository.Ledger, fn func(ctx context.Context, tx repository.Tx) error) error {
	t.Helper()
	return ledger.WithinTx(context.Background(), fn)
}

func seeded(t *testing.T, factory Factory) repository.Ledger {
	t.Helper()
	ledger := factory(t)
	t.Cleanup(func() { _ = ledger.Close() })
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertAuction(ctx, Auction("auction1"))
	}))
	return ledger
}

// Run executes the ledger conformance suite
func Run(t *testing.T, factory Factory) {
	t.Run("auction_round_trip", func(t *testing.T) { testAuctionRoundTrip(t, factory) })
	t.Run("rollback_discards_writes", func(t *testing.T) { testRollback(t, factory) })
	t.Run("single_pending_bid_per_lot", func(t *testing.T) { testSinglePendingBid(t, factory) })
	t.Run("single_active_registration", func(t *testing.T) { testSingleActiveRegistration(t, factory) })
	t.Run("conditional_updates", func(t *testing.T) { testConditionalUpdates(t, factory) })
	t.Run("close_lot_once", func(t *testing.T) { testCloseLot(t, factory) })
	t.Run("filters_and_order", func(t *testing.T) { testFilters(t, factory) })
	t.Run("concurrent_pending_inserts", func(t *testing.T) { testConcurrentInserts(t, factory) })
}

func testAuctionRoundTrip(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)
	ctx := context.Background()

	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertAuction(ctx, Auction("auction1"))
	})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidAuction)

	require.NoError(t, ledger.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		auction, err := tx.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		require.Equal(t, "Estate sale", auction.Title)
		require.Equal(t, model.AuctionActive, auction.Status)
		require.True(t, auction.IsLive)
		require.True(t, base.Equal(auction.CreatedAt))
		require.Len(t, auction.Lots, 2)
		require.Equal(t, "lot1", auction.Lots[0].LotID)
		require.Equal(t, "lot2", auction.Lots[1].LotID)
		require.True(t, auction.Lots[1].BidIncrement.Equal(decimal.RequireFromString("5")))

		lot, err := tx.GetLot(ctx, "auction1", "lot1")
		require.NoError(t, err)
		require.Equal(t, "auction1", lot.AuctionID)
		require.True(t, lot.InitialBidValue.Equal(decimal.RequireFromString("1000")))
		require.False(t, lot.Closed())

		_, err = tx.GetAuction(ctx, "missing")
		require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
		_, err = tx.GetLot(ctx, "auction1", "missing")
		require.ErrorIs(t, err, biddingerrors.ErrLotNotFound)
		_, err = tx.GetBid(ctx, "missing")
		require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)
		_, err = tx.GetRegistration(ctx, "missing")
		require.ErrorIs(t, err, biddingerrors.ErrRegistrationNotFound)
		return nil
	}))
}

func testRollback(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)
	ctx := context.Background()

	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertBid(ctx, Bid("b1", "alice", "1100", 0)); err != nil {
			return err
		}
		if err := tx.InsertRegistration(ctx, Registration("r1", "alice", 0)); err != nil {
			return err
		}
		if err := tx.SetLotCurrentBid(ctx, "auction1", "lot1", decimal.RequireFromString("1100")); err != nil {
			return err
		}
		if err := tx.CloseLot(ctx, "auction1", "lot1", "b1"); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	require.NoError(t, ledger.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.GetBid(ctx, "b1")
		require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)
		_, err = tx.GetRegistration(ctx, "r1")
		require.ErrorIs(t, err, biddingerrors.ErrRegistrationNotFound)

		lot, err := tx.GetLot(ctx, "auction1", "lot1")
		require.NoError(t, err)
		require.True(t, lot.CurrentBidValue.Equal(decimal.RequireFromString("1000")))
		require.False(t, lot.Closed())

		bids, err := tx.ListBids(ctx, repository.BidFilter{UserID: "alice"})
		require.NoError(t, err)
		require.Empty(t, bids)
		return nil
	}))

	// the same ids are free again after the rollback
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, Bid("b1", "alice", "1100", 0))
	}))
}

func testSinglePendingBid(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, Bid("b1", "alice", "1100", 0))
	}))

	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, Bid("b2", "bob", "1200", time.Second))
	})
	require.ErrorIs(t, err, biddingerrors.ErrBidInFlight)

	// another lot is independent
	other := Bid("b3", "bob", "60", time.Second)
	other.LotID = "lot2"
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, other)
	}))

	missing := Bid("b4", "bob", "60", time.Second)
	missing.LotID = "lot9"
	err = write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, missing)
	})
	require.ErrorIs(t, err, biddingerrors.ErrLotNotFound)

	// once decided the slot frees up
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		bid, err := tx.GetBid(ctx, "b1")
		if err != nil {
			return err
		}
		bid.Status = model.BidRejected
		return tx.UpdateBid(ctx, bid, model.BidPending)
	}))
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, Bid("b2", "bob", "1200", time.Second))
	}))
}

func testSingleActiveRegistration(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertRegistration(ctx, Registration("r1", "alice", 0))
	}))
	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertRegistration(ctx, Registration("r2", "alice", time.Second))
	})
	require.ErrorIs(t, err, biddingerrors.ErrAlreadyRegistered)

	// approval keeps the registration active
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, "r1")
		if err != nil {
			return err
		}
		reg.Status = model.RegistrationApproved
		return tx.UpdateRegistration(ctx, reg, model.RegistrationPending)
	}))
	err = write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertRegistration(ctx, Registration("r2", "alice", time.Second))
	})
	require.ErrorIs(t, err, biddingerrors.ErrAlreadyRegistered)

	// other users are unaffected
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertRegistration(ctx, Registration("r3", "bob", 2*time.Second))
	}))
}

func testConditionalUpdates(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)
	ctx := context.Background()

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertRegistration(ctx, Registration("r1", "alice", 0)); err != nil {
			return err
		}
		return tx.InsertBid(ctx, Bid("b1", "alice", "1100", 0))
	}))

	decidedAt := base.Add(time.Minute)
	nextAllowed := base.Add(time.Hour)
	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, "r1")
		if err != nil {
			return err
		}
		reg.Status = model.RegistrationRejected
		reg.InternalNotes = "id mismatch"
		reg.ClientNotes = "please resubmit"
		reg.DecidedAt = &decidedAt
		reg.NextRegistrationAllowedAt = &nextAllowed
		return tx.UpdateRegistration(ctx, reg, model.RegistrationPending)
	}))

	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, "r1")
		if err != nil {
			return err
		}
		reg.Status = model.RegistrationApproved
		return tx.UpdateRegistration(ctx, reg, model.RegistrationPending)
	})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidState)

	err = write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		bid := Bid("b1", "alice", "1100", 0)
		bid.Status = model.BidApproved
		return tx.UpdateBid(ctx, bid, model.BidApproved)
	})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidState)

	err = write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.UpdateBid(ctx, Bid("missing", "alice", "1100", 0), model.BidPending)
	})
	require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		bid, err := tx.GetBid(ctx, "b1")
		if err != nil {
			return err
		}
		bid.Status = model.BidApproved
		bid.IsWinner = true
		bid.ClientNotes = "congratulations"
		bid.DecidedAt = &decidedAt
		return tx.UpdateBid(ctx, bid, model.BidPending)
	}))

	require.NoError(t, ledger.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, model.RegistrationRejected, reg.Status)
		require.Equal(t, "id mismatch", reg.InternalNotes)
		require.Equal(t, "please resubmit", reg.ClientNotes)
		require.NotNil(t, reg.DecidedAt)
		require.True(t, decidedAt.Equal(*reg.DecidedAt))
		require.NotNil(t, reg.NextRegistrationAllowedAt)
		require.True(t, nextAllowed.Equal(*reg.NextRegistrationAllowedAt))

		bid, err := tx.GetBid(ctx, "b1")
		require.NoError(t, err)
		require.Equal(t, model.BidApproved, bid.Status)
		require.True(t, bid.IsWinner)
		require.Equal(t, "congratulations", bid.ClientNotes)
		require.True(t, bid.BidValue.Equal(decimal.RequireFromString("1100")))
		require.True(t, base.Equal(bid.CreatedAt))
		return nil
	}))
}

func testCloseLot(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)
	ctx := context.Background()

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertBid(ctx, Bid("b1", "alice", "1100", 0)); err != nil {
			return err
		}
		return tx.CloseLot(ctx, "auction1", "lot1", "b1")
	}))

	err := write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.CloseLot(ctx, "auction1", "lot1", "b2")
	})
	require.ErrorIs(t, err, biddingerrors.ErrLotClosed)

	err = write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		return tx.CloseLot(ctx, "auction1", "lot9", "b1")
	})
	require.ErrorIs(t, err, biddingerrors.ErrLotNotFound)

	require.NoError(t, ledger.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		lot, err := tx.GetLot(ctx, "auction1", "lot1")
		require.NoError(t, err)
		require.Equal(t, "b1", lot.WinnerBidID)
		require.True(t, lot.Closed())
		return nil
	}))
}

func testFilters(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)
	ctx := context.Background()

	require.NoError(t, write(t, ledger, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertAuction(ctx, Auction("auction2")); err != nil {
			return err
		}
		for i, user := range []string{"alice", "bob", "alice"} {
			bid := Bid(fmt.Sprintf("b%d", i), user, fmt.Sprint(1100+i*100), time.Duration(i)*time.Second)
			bid.Status = model.BidApproved
			if err := tx.InsertBid(ctx, bid); err != nil {
				return err
			}
		}
		elsewhere := Bid("b9", "alice", "60", 10*time.Second)
		elsewhere.AuctionID, elsewhere.LotID = "auction2", "lot2"
		if err := tx.InsertBid(ctx, elsewhere); err != nil {
			return err
		}

		if err := tx.InsertRegistration(ctx, Registration("r1", "alice", 0)); err != nil {
			return err
		}
		second := Registration("r2", "bob", time.Second)
		second.Status = model.RegistrationRejected
		return tx.InsertRegistration(ctx, second)
	}))

	require.NoError(t, ledger.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		bids, err := tx.ListBids(ctx, repository.BidFilter{AuctionID: "auction1", LotID: "lot1"})
		require.NoError(t, err)
		require.Equal(t, []string{"b0", "b1", "b2"}, bidIDs(bids))

		bids, err = tx.ListBids(ctx, repository.BidFilter{UserID: "alice"})
		require.NoError(t, err)
		require.Equal(t, []string{"b0", "b2", "b9"}, bidIDs(bids))

		bids, err = tx.ListBids(ctx, repository.BidFilter{AuctionID: "auction1", UserID: "alice"})
		require.NoError(t, err)
		require.Equal(t, []string{"b0", "b2"}, bidIDs(bids))

		bids, err = tx.ListBids(ctx, repository.BidFilter{AuctionID: "auction2", Statuses: []model.BidStatus{model.BidPending}})
		require.NoError(t, err)
		require.Equal(t, []string{"b9"}, bidIDs(bids))

		bids, err = tx.ListBids(ctx, repository.BidFilter{
			AuctionID: "auction1",
			Statuses:  []model.BidStatus{model.BidPending, model.BidRejected},
		})
		require.NoError(t, err)
		require.Empty(t, bids)

		regs, err := tx.ListRegistrations(ctx, repository.RegistrationFilter{AuctionID: "auction1"})
		require.NoError(t, err)
		require.Len(t, regs, 2)
		require.Equal(t, "r1", regs[0].RegistrationID)

		regs, err = tx.ListRegistrations(ctx, repository.RegistrationFilter{
			AuctionID: "auction1",
			Statuses:  []model.RegistrationStatus{model.RegistrationRejected},
		})
		require.NoError(t, err)
		require.Len(t, regs, 1)
		require.Equal(t, "bob", regs[0].UserID)
		return nil
	}))
}

func bidIDs(bids []model.Bid) []string {
	ids := make([]string, 0, len(bids))
	for _, bid := range bids {
		ids = append(ids, bid.BidID)
	}
	return ids
}

func testConcurrentInserts(t *testing.T, factory Factory) {
	ledger := seeded(t, factory)

	const writers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := ledger.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				pending, err := tx.ListBids(ctx, repository.BidFilter{
					AuctionID: "auction1",
					LotID:     "lot1",
					Statuses:  []model.BidStatus{model.BidPending},
				})
				if err != nil {
					return err
				}
				if len(pending) > 0 {
					return biddingerrors.ErrBidInFlight
				}
				return tx.InsertBid(ctx, Bid(fmt.Sprintf("b%d", i), fmt.Sprintf("user%d", i), "1100", time.Duration(i)*time.Millisecond))
			})
			if err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
				return
			}
			// serializable ledgers may abort a loser with a retryable conflict instead
			if !errors.Is(err, biddingerrors.ErrBidInFlight) && !errors.Is(err, biddingerrors.ErrStorageUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, inserted)
}
