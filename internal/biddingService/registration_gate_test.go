package bidding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/stretchr/testify/require"
)

// Tests RequestRegistration
func TestRegistrationGate_RequestRegistration(t *testing.T) {
	tests := []struct {
		name          string
		userID        string
		auctionID     string
		setup         func(t *testing.T, f *fixture)
		expectedError error
	}{
		{
			name:      "first_request",
			userID:    "alice",
			auctionID: "auction1",
			setup:     func(*testing.T, *fixture) {},
		},
		{
			name:          "empty_userID",
			auctionID:     "auction1",
			setup:         func(*testing.T, *fixture) {},
			expectedError: biddingerrors.ErrInvalidRequest,
		},
		{
			name:          "unknown_auction",
			userID:        "alice",
			auctionID:     "nope",
			setup:         func(*testing.T, *fixture) {},
			expectedError: biddingerrors.ErrAuctionNotFound,
		},
		{
			name:      "pending_exists",
			userID:    "alice",
			auctionID: "auction1",
			setup: func(t *testing.T, f *fixture) {
				_, err := f.svc.RequestRegistration(context.Background(), "alice", "auction1")
				require.NoError(t, err)
			},
			expectedError: biddingerrors.ErrAlreadyRegistered,
		},
		{
			name:      "approved_exists",
			userID:    "alice",
			auctionID: "auction1",
			setup: func(t *testing.T, f *fixture) {
				f.approvedBidder(t, "alice")
			},
			expectedError: biddingerrors.ErrAlreadyRegistered,
		},
		{
			name:      "rejected_without_cooldown",
			userID:    "alice",
			auctionID: "auction1",
			setup: func(t *testing.T, f *fixture) {
				reg, err := f.svc.RequestRegistration(context.Background(), "alice", "auction1")
				require.NoError(t, err)
				_, err = f.svc.DecideRegistration(context.Background(), reg.RegistrationID, model.OutcomeRejected, model.Notes{}, 0)
				require.NoError(t, err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(t, f)

			reg, err := f.svc.RequestRegistration(context.Background(), tc.userID, tc.auctionID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, reg.RegistrationID)
			require.Equal(t, model.RegistrationPending, reg.Status)
			require.Equal(t, f.clock.Now(), reg.CreatedAt)
		})
	}
}

// Tests DecideRegistration
func TestRegistrationGate_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
		require.NoError(t, err)

		notes := model.Notes{Internal: "kyc ok", Client: "welcome"}
		decided, err := f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeApproved, notes, time.Hour)
		require.NoError(t, err)
		require.Equal(t, model.RegistrationApproved, decided.Status)
		require.Equal(t, "kyc ok", decided.InternalNotes)
		require.Equal(t, "welcome", decided.ClientNotes)
		require.NotNil(t, decided.DecidedAt)
		require.Nil(t, decided.NextRegistrationAllowedAt)
	})

	t.Run("reject_sets_cooldown", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
		require.NoError(t, err)

		decided, err := f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeRejected, model.Notes{}, 30*time.Minute)
		require.NoError(t, err)
		require.Equal(t, model.RegistrationRejected, decided.Status)
		require.NotNil(t, decided.NextRegistrationAllowedAt)
		require.Equal(t, f.clock.Now().Add(30*time.Minute), *decided.NextRegistrationAllowedAt)
	})

	t.Run("second_decision_is_invalid_state", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
		require.NoError(t, err)
		_, err = f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeApproved, model.Notes{}, 0)
		require.NoError(t, err)

		_, err = f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeRejected, model.Notes{}, 0)
		require.ErrorIs(t, err, biddingerrors.ErrInvalidState)
	})

	t.Run("invalid_inputs", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DecideRegistration(ctx, "", model.OutcomeApproved, model.Notes{}, 0)
		require.ErrorIs(t, err, biddingerrors.ErrInvalidRequest)

		_, err = f.svc.DecideRegistration(ctx, "r1", "maybe", model.Notes{}, 0)
		require.ErrorIs(t, err, biddingerrors.ErrInvalidDecision)

		_, err = f.svc.DecideRegistration(ctx, "r1", model.OutcomeRejected, model.Notes{}, -time.Minute)
		require.ErrorIs(t, err, biddingerrors.ErrInvalidDecision)

		_, err = f.svc.DecideRegistration(ctx, "r1", model.OutcomeRejected, model.Notes{}, maxRegistrationCooldown+time.Nanosecond)
		require.ErrorIs(t, err, biddingerrors.ErrInvalidDecision)

		_, err = f.svc.DecideRegistration(ctx, "r1", model.OutcomeRejected, model.Notes{}, time.Duration(math.MaxInt64))
		require.ErrorIs(t, err, biddingerrors.ErrInvalidDecision)

		_, err = f.svc.DecideRegistration(ctx, "missing", model.OutcomeApproved, model.Notes{}, 0)
		require.ErrorIs(t, err, biddingerrors.ErrRegistrationNotFound)
	})
}

// A rejection with a 60 minute cooldown blocks re-requests until the cooldown elapses
func TestRegistrationGate_CooldownEnforcement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
	require.NoError(t, err)
	_, err = f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeRejected, model.Notes{Client: "documents missing"}, 60*time.Minute)
	require.NoError(t, err)

	_, err = f.svc.RequestRegistration(ctx, "alice", "auction1")
	require.ErrorIs(t, err, biddingerrors.ErrCooldownActive)
	var cooldown *biddingerrors.CooldownActiveError
	require.True(t, errors.As(err, &cooldown))
	require.Equal(t, 60*time.Minute, cooldown.Remaining)

	f.clock.Advance(59 * time.Minute)
	_, err = f.svc.RequestRegistration(ctx, "alice", "auction1")
	require.True(t, errors.As(err, &cooldown))
	require.Equal(t, time.Minute, cooldown.Remaining)

	f.clock.Advance(time.Minute)
	again, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.Equal(t, model.RegistrationPending, again.Status)

	history, err := f.svc.RegistrationsForUser(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, model.RegistrationRejected, history[0].Status)
	require.Equal(t, again.RegistrationID, history[1].RegistrationID)
}

// Tests IsEligibleToBid
func TestRegistrationGate_IsEligibleToBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.svc.IsEligibleToBid(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.False(t, ok, "no registration")

	reg, err := f.svc.RequestRegistration(ctx, "alice", "auction1")
	require.NoError(t, err)
	ok, err = f.svc.IsEligibleToBid(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.False(t, ok, "pending registration")

	_, err = f.svc.DecideRegistration(ctx, reg.RegistrationID, model.OutcomeApproved, model.Notes{}, 0)
	require.NoError(t, err)
	ok, err = f.svc.IsEligibleToBid(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.True(t, ok, "approved registration")

	bid, err := f.svc.SubmitBid(ctx, "alice", "auction1", "lot1", dec("1100"))
	require.NoError(t, err)
	ok, err = f.svc.IsEligibleToBid(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.False(t, ok, "own bid pending")

	_, err = f.svc.DecideBid(ctx, bid.BidID, model.OutcomeRejected, model.Notes{})
	require.NoError(t, err)
	ok, err = f.svc.IsEligibleToBid(ctx, "alice", "auction1")
	require.NoError(t, err)
	require.True(t, ok, "bid decided")

	_, err = f.svc.IsEligibleToBid(ctx, "", "auction1")
	require.ErrorIs(t, err, biddingerrors.ErrInvalidRequest)
}
