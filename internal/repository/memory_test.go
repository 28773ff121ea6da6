package repository_test

import (
	"context"
	"testing"

	"auction-engine/internal/repository"
	"auction-engine/internal/repository/ledgertest"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepo_Ledger(t *testing.T) {
	t.Parallel() // Allow running in parallel with other test functions

	ledgertest.Run(t, func(*testing.T) repository.Ledger {
		return repository.NewMemoryRepo()
	})
}

func TestMemoryRepo_ViewIsReadOnly(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.AddAuction(ledgertest.Auction("auction1")))

	err := repo.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBid(ctx, ledgertest.Bid("b1", "alice", "1100", 0))
	})
	require.Error(t, err)

	err = repo.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		bids, err := tx.ListBids(ctx, repository.BidFilter{AuctionID: "auction1"})
		require.Empty(t, bids)
		return err
	})
	require.NoError(t, err)
}

func TestMemoryRepo_CancelledContext(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := repo.WithinTx(ctx, func(context.Context, repository.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
