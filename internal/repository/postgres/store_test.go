package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/repository"
	"auction-engine/internal/repository/ledgertest"
	"auction-engine/internal/repository/migrations"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		err      error
		expected error
	}{
		{
			name:     "pending_bid_index",
			err:      &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraintOnePendingBid},
			expected: biddingerrors.ErrBidInFlight,
		},
		{
			name:     "winner_index",
			err:      &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraintOneWinner},
			expected: biddingerrors.ErrLotClosed,
		},
		{
			name:     "active_registration_index",
			err:      &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraintOneActiveRegistration},
			expected: biddingerrors.ErrAlreadyRegistered,
		},
		{
			name:     "duplicate_auction",
			err:      &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "auctions_pkey"},
			expected: biddingerrors.ErrInvalidAuction,
		},
		{
			name:     "bid_without_lot",
			err:      &pgconn.PgError{Code: codeForeignKeyViolation, TableName: "bids"},
			expected: biddingerrors.ErrLotNotFound,
		},
		{
			name:     "registration_without_auction",
			err:      &pgconn.PgError{Code: codeForeignKeyViolation, TableName: "registrations"},
			expected: biddingerrors.ErrAuctionNotFound,
		},
		{
			name:     "serialization_failure",
			err:      &pgconn.PgError{Code: codeSerializationFailure},
			expected: biddingerrors.ErrStorageUnavailable,
		},
		{
			name:     "deadlock",
			err:      &pgconn.PgError{Code: codeDeadlockDetected},
			expected: biddingerrors.ErrStorageUnavailable,
		},
		{
			name:     "bid_amount_out_of_range",
			op:       "insert bid for lot auction1/lot1",
			err:      &pgconn.PgError{Code: "22003", Message: "numeric field overflow"},
			expected: biddingerrors.ErrInvalidBid,
		},
		{
			name:     "current_bid_out_of_range",
			op:       "set lot current bid",
			err:      &pgconn.PgError{Code: "22003"},
			expected: biddingerrors.ErrInvalidBid,
		},
		{
			name:     "lot_value_out_of_range",
			op:       "insert lot lot1",
			err:      &pgconn.PgError{Code: "22003"},
			expected: biddingerrors.ErrInvalidAuction,
		},
		{
			name:     "registration_data_exception",
			op:       "insert registration for user alice",
			err:      &pgconn.PgError{Code: "22001"},
			expected: biddingerrors.ErrInvalidRequest,
		},
		{
			name:     "connection_lost",
			err:      errors.New("unexpected EOF"),
			expected: biddingerrors.ErrStorageUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := tc.op
			if op == "" {
				op = "op"
			}
			err := classify(op, tc.err)
			require.ErrorIs(t, err, tc.expected)
			if !errors.Is(tc.expected, biddingerrors.ErrStorageUnavailable) {
				require.NotErrorIs(t, err, biddingerrors.ErrStorageUnavailable)
			}
		})
	}
}

// TestPostgresLedger_Ledger runs against a disposable database named by AUCTION_ENGINE_TEST_POSTGRES.
// The schema is dropped and recreated for every case.
func TestPostgresLedger_Ledger(t *testing.T) {
	conn := os.Getenv("AUCTION_ENGINE_TEST_POSTGRES")
	if conn == "" {
		t.Skip("AUCTION_ENGINE_TEST_POSTGRES not set")
	}

	ledgertest.Run(t, func(t *testing.T) repository.Ledger {
		require.NoError(t, migrations.DownPostgres(conn))
		require.NoError(t, migrations.UpPostgres(conn))

		ledger, err := Connect(context.Background(), conn)
		require.NoError(t, err)
		return ledger
	})
}

func TestConnect_RequiresConnString(t *testing.T) {
	_, err := Connect(context.Background(), "")
	require.Error(t, err)
}
