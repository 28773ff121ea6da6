package bidding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc      *BiddingService
	repo     *repository.MemoryRepo
	clock    *fakeClock
	recorder *notify.Recorder
}

// newFixture builds a service over the memory ledger with auction "auction1"
// holding lot "lot1" (initial 1000, increment 100) and lot "lot2" (initial 50, increment 5).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repository.NewMemoryRepo(),
		clock:    newFakeClock(),
		recorder: &notify.Recorder{},
	}
	f.svc = NewBiddingService(f.repo, WithClock(f.clock.Now), WithNotifier(f.recorder))

	_, err := f.svc.CreateAuction(context.Background(), model.Auction{
		AuctionID: "auction1",
		Title:     "Spring sale",
		IsLive:    true,
		Lots: []model.Lot{
			{LotID: "lot1", Title: "Clock", InitialBidValue: dec("1000"), BidIncrement: dec("100")},
			{LotID: "lot2", Title: "Vase", InitialBidValue: dec("50"), BidIncrement: dec("5")},
		},
	})
	require.NoError(t, err)
	return f
}

// approvedBidder registers and approves a user for auction1
func (f *fixture) approvedBidder(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	reg, err := f.svc.RequestRegistration(ctx, userID, "auction1")
	require.NoError(t, err)
	_, err = f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeApproved, model.Notes{}, 0)
	require.NoError(t, err)
}

// approvedBid submits and approves a bid on auction1
func (f *fixture) approvedBid(t *testing.T, userID, lotID, amount string) model.Bid {
	t.Helper()
	ctx := context.Background()
	bid, err := f.svc.SubmitBid(ctx, userID, "auction1", lotID, dec(amount))
	require.NoError(t, err)
	bid, err = f.svc.DecideBid(ctx, bid.BidID, model.OutcomeApproved, model.Notes{})
	require.NoError(t, err)
	return bid
}

// Tests CreateAuction validation
func TestBiddingService_CreateAuction(t *testing.T) {
	svc := NewBiddingService(repository.NewMemoryRepo())
	ctx := context.Background()

	tests := []struct {
		name          string
		auction       model.Auction
		expectedError error
	}{
		{
			name: "valid_auction_defaults",
			auction: model.Auction{Lots: []model.Lot{
				{LotID: "l1", InitialBidValue: dec("10.005"), BidIncrement: dec("1")},
			}},
		},
		{
			name:          "no_lots",
			auction:       model.Auction{AuctionID: "a1"},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "unknown_status",
			auction: model.Auction{AuctionID: "a2", Status: "paused", Lots: []model.Lot{
				{LotID: "l1", BidIncrement: dec("1")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "zero_increment",
			auction: model.Auction{AuctionID: "a3", Lots: []model.Lot{
				{LotID: "l1", InitialBidValue: dec("10")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "negative_initial_value",
			auction: model.Auction{AuctionID: "a4", Lots: []model.Lot{
				{LotID: "l1", InitialBidValue: dec("-1"), BidIncrement: dec("1")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "initial_value_out_of_range",
			auction: model.Auction{AuctionID: "a6", Lots: []model.Lot{
				{LotID: "l1", InitialBidValue: dec("1e20000000"), BidIncrement: dec("1")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "increment_out_of_range",
			auction: model.Auction{AuctionID: "a7", Lots: []model.Lot{
				{LotID: "l1", InitialBidValue: dec("10"), BidIncrement: dec("1e-20000000")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
		{
			name: "duplicate_lot",
			auction: model.Auction{AuctionID: "a5", Lots: []model.Lot{
				{LotID: "l1", BidIncrement: dec("1")},
				{LotID: "l1", BidIncrement: dec("1")},
			}},
			expectedError: biddingerrors.ErrInvalidAuction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created, err := svc.CreateAuction(ctx, tc.auction)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, created.AuctionID)
			require.Equal(t, model.AuctionActive, created.Status)
			require.True(t, created.Lots[0].CurrentBidValue.Equal(dec("10.01")))

			stored, err := svc.GetAuction(ctx, created.AuctionID)
			require.NoError(t, err)
			require.Len(t, stored.Lots, 1)
			require.Equal(t, created.AuctionID, stored.Lots[0].AuctionID)
		})
	}
}

func TestBiddingService_GetAuctionNotFound(t *testing.T) {
	svc := NewBiddingService(repository.NewMemoryRepo())

	_, err := svc.GetAuction(context.Background(), "missing")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)

	_, err = svc.GetAuction(context.Background(), "")
	require.ErrorIs(t, err, biddingerrors.ErrInvalidAuction)
}

// Ledger faults surface as ErrStorageUnavailable and announce nothing
func TestBiddingService_StorageUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := repository.NewMockLedger(ctrl)
	recorder := &notify.Recorder{}
	svc := NewBiddingService(mockLedger, WithNotifier(recorder))
	fault := biddingerrors.Unavailable("begin transaction", errors.New("connection refused"))

	mockLedger.EXPECT().WithinTx(gomock.Any(), gomock.Any()).Return(fault).Times(4)
	mockLedger.EXPECT().View(gomock.Any(), gomock.Any()).Return(fault).Times(1)

	ctx := context.Background()
	_, err := svc.SubmitBid(ctx, "user1", "auction1", "lot1", dec("1100"))
	require.ErrorIs(t, err, biddingerrors.ErrStorageUnavailable)

	_, err = svc.DecideBid(ctx, "bid1", model.OutcomeApproved, model.Notes{})
	require.ErrorIs(t, err, biddingerrors.ErrStorageUnavailable)

	_, err = svc.RequestRegistration(ctx, "user1", "auction1")
	require.ErrorIs(t, err, biddingerrors.ErrStorageUnavailable)

	_, err = svc.DeclareWinner(ctx, "bid1")
	require.ErrorIs(t, err, biddingerrors.ErrStorageUnavailable)

	_, err = svc.IsEligibleToBid(ctx, "user1", "auction1")
	require.ErrorIs(t, err, biddingerrors.ErrStorageUnavailable)

	require.Empty(t, recorder.Events())
}

// A racing insert rejected by the ledger's uniqueness guard is reported as BidInFlight
func TestBiddingService_SubmitBidLedgerGuard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := repository.NewMockLedger(ctrl)
	mockTx := repository.NewMockTx(ctrl)
	recorder := &notify.Recorder{}
	svc := NewBiddingService(mockLedger, WithNotifier(recorder))

	mockLedger.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
			return fn(ctx, mockTx)
		})

	lot := model.Lot{AuctionID: "auction1", LotID: "lot1", InitialBidValue: dec("1000"), CurrentBidValue: dec("1000"), BidIncrement: dec("100")}
	mockTx.EXPECT().GetAuction(gomock.Any(), "auction1").Return(model.Auction{AuctionID: "auction1", Status: model.AuctionActive}, nil)
	mockTx.EXPECT().GetLot(gomock.Any(), "auction1", "lot1").Return(lot, nil)
	mockTx.EXPECT().ListRegistrations(gomock.Any(), repository.RegistrationFilter{
		AuctionID: "auction1",
		UserID:    "user1",
		Statuses:  []model.RegistrationStatus{model.RegistrationApproved},
	}).Return([]model.Registration{{RegistrationID: "r1", Status: model.RegistrationApproved}}, nil)
	mockTx.EXPECT().ListBids(gomock.Any(), repository.BidFilter{
		AuctionID: "auction1",
		UserID:    "user1",
		Statuses:  []model.BidStatus{model.BidPending},
	}).Return(nil, nil)
	mockTx.EXPECT().ListBids(gomock.Any(), repository.BidFilter{
		AuctionID: "auction1",
		LotID:     "lot1",
		Statuses:  []model.BidStatus{model.BidPending},
	}).Return(nil, nil)
	mockTx.EXPECT().ListBids(gomock.Any(), repository.BidFilter{
		AuctionID: "auction1",
		LotID:     "lot1",
		Statuses:  []model.BidStatus{model.BidApproved},
	}).Return(nil, nil)
	mockTx.EXPECT().InsertBid(gomock.Any(), gomock.Any()).Return(biddingerrors.ErrBidInFlight)

	_, err := svc.SubmitBid(context.Background(), "user1", "auction1", "lot1", dec("1100"))
	require.ErrorIs(t, err, biddingerrors.ErrBidInFlight)
	require.Empty(t, recorder.Events())
}

// An approval below a bid accepted after submission is refused inside the transaction and writes nothing
func TestBiddingService_DecideBidTooLowAtDecisionTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := repository.NewMockLedger(ctrl)
	mockTx := repository.NewMockTx(ctrl)
	recorder := &notify.Recorder{}
	svc := NewBiddingService(mockLedger, WithNotifier(recorder))

	mockLedger.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
			return fn(ctx, mockTx)
		})

	pending := model.Bid{
		BidID:     "bid1",
		AuctionID: "auction1",
		LotID:     "lot1",
		UserID:    "user1",
		BidValue:  dec("1100"),
		Status:    model.BidPending,
	}
	lot := model.Lot{AuctionID: "auction1", LotID: "lot1", InitialBidValue: dec("1000"), CurrentBidValue: dec("1000"), BidIncrement: dec("100")}
	gomock.InOrder(
		mockTx.EXPECT().GetBid(gomock.Any(), "bid1").Return(pending, nil),
		mockTx.EXPECT().GetLot(gomock.Any(), "auction1", "lot1").Return(lot, nil),
		mockTx.EXPECT().ListBids(gomock.Any(), repository.BidFilter{
			AuctionID: "auction1",
			LotID:     "lot1",
			Statuses:  []model.BidStatus{model.BidApproved},
		}).Return([]model.Bid{{
			BidID:     "bid2",
			AuctionID: "auction1",
			LotID:     "lot1",
			UserID:    "user2",
			BidValue:  dec("1200"),
			Status:    model.BidApproved,
		}}, nil),
	)
	mockTx.EXPECT().UpdateBid(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	mockTx.EXPECT().SetLotCurrentBid(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.DecideBid(context.Background(), "bid1", model.OutcomeApproved, model.Notes{})
	require.ErrorIs(t, err, biddingerrors.ErrBidTooLow)
	require.Empty(t, recorder.Events())
}

// A caller cancelling right after commit still gets its transition announced
func TestBiddingService_AnnounceIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository.NewMemoryRepo()
	seed := NewBiddingService(repo)
	_, err := seed.CreateAuction(context.Background(), model.Auction{AuctionID: "a1", Lots: []model.Lot{
		{LotID: "l1", InitialBidValue: dec("10"), BidIncrement: dec("1")},
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mockLedger := repository.NewMockLedger(ctrl)
	mockLedger.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
			err := repo.WithinTx(ctx, fn)
			cancel()
			return err
		})

	var dispatchErr error
	var delivered []model.Event
	dispatcher := notify.DispatcherFunc(func(ctx context.Context, event model.Event) error {
		dispatchErr = ctx.Err()
		delivered = append(delivered, event)
		return nil
	})
	svc := NewBiddingService(mockLedger, WithNotifier(dispatcher))

	reg, err := svc.RequestRegistration(ctx, "user1", "a1")
	require.NoError(t, err)
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.NoError(t, dispatchErr)
	require.Len(t, delivered, 1)
	require.Equal(t, model.EventRegistrationCreated, delivered[0].Type)
	require.Equal(t, reg.RegistrationID, delivered[0].Registration.RegistrationID)
}

// A failing dispatcher does not undo or fail a committed transition
func TestBiddingService_DispatcherFailureIsNotReturned(t *testing.T) {
	repo := repository.NewMemoryRepo()
	failing := notify.DispatcherFunc(func(context.Context, model.Event) error {
		return errors.New("broker down")
	})
	svc := NewBiddingService(repo, WithNotifier(failing))
	ctx := context.Background()

	_, err := svc.CreateAuction(ctx, model.Auction{AuctionID: "a1", Lots: []model.Lot{
		{LotID: "l1", InitialBidValue: dec("10"), BidIncrement: dec("1")},
	}})
	require.NoError(t, err)

	reg, err := svc.RequestRegistration(ctx, "user1", "a1")
	require.NoError(t, err)

	pending, err := svc.PendingRegistrations(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, reg.RegistrationID, pending[0].RegistrationID)
}

// Every successful transition is announced once, in order
func TestBiddingService_AnnouncesTransitions(t *testing.T) {
	f := newFixture(t)
	f.approvedBidder(t, "alice")
	bid := f.approvedBid(t, "alice", "lot1", "1100")

	_, err := f.svc.DeclareWinner(context.Background(), bid.BidID)
	require.NoError(t, err)

	require.Equal(t, []model.EventType{
		model.EventRegistrationCreated,
		model.EventRegistrationDecided,
		model.EventBidCreated,
		model.EventBidDecided,
		model.EventWinnerDeclared,
	}, f.recorder.Types())

	events := f.recorder.Events()
	require.Equal(t, "lot1", events[4].LotID)
	require.Equal(t, bid.BidID, events[4].Bid.BidID)
	require.True(t, events[4].Bid.IsWinner)
}
