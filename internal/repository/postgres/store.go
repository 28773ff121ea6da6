// Package postgres provides a PostgreSQL-backed Ledger built on pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres error codes the ledger reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	// Class 22 covers data exceptions such as 22003 numeric_value_out_of_range.
	classDataException = "22"
)

// Constraint names from the embedded migrations.
const (
	constraintOnePendingBid         = "bids_one_pending_per_lot"
	constraintOneWinner             = "bids_one_winner_per_lot"
	constraintOneActiveRegistration = "registrations_one_active"
)

// PostgresLedger implements repository.Ledger with SERIALIZABLE transactions.
type PostgresLedger struct {
	DB *pgxpool.Pool
}

// NewPostgresLedger wraps an existing pool.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{DB: db}
}

// Connect opens a pool for connString and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*PostgresLedger, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres connection string is required")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresLedger(pool), nil
}

// Close releases the pool.
func (l *PostgresLedger) Close() error {
	l.DB.Close()
	return nil
}

// WithinTx runs fn in a SERIALIZABLE transaction. Serialization failures surface as ErrStorageUnavailable.
func (l *PostgresLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return l.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, false, fn)
}

// View runs fn in a read-only REPEATABLE READ transaction.
func (l *PostgresLedger) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return l.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, true, fn)
}

func (l *PostgresLedger) run(ctx context.Context, opts pgx.TxOptions, readOnly bool, fn func(ctx context.Context, tx repository.Tx) error) error {
	pgTx, err := l.DB.BeginTx(ctx, opts)
	if err != nil {
		return biddingerrors.Unavailable("begin transaction", err)
	}
	if err := fn(ctx, &postgresTx{tx: pgTx, readOnly: readOnly}); err != nil {
		_ = pgTx.Rollback(ctx)
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return biddingerrors.Unavailable("commit transaction", err)
	}
	return nil
}

type postgresTx struct {
	tx       pgx.Tx
	readOnly bool
}

// classify maps constraint violations and data exceptions to domain errors and everything else to ErrStorageUnavailable.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintOnePendingBid:
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrBidInFlight)
			case constraintOneWinner:
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrLotClosed)
			case constraintOneActiveRegistration:
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrAlreadyRegistered)
			case "auctions_pkey", "lots_pkey":
				return fmt.Errorf("%s: %w - duplicate id", op, biddingerrors.ErrInvalidAuction)
			}
		case codeForeignKeyViolation:
			if strings.HasPrefix(pgErr.TableName, "bids") {
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrLotNotFound)
			}
			return fmt.Errorf("%s: %w", op, biddingerrors.ErrAuctionNotFound)
		case codeSerializationFailure, codeDeadlockDetected:
			return biddingerrors.Unavailable(op+": transaction conflict", err)
		}
		if strings.HasPrefix(pgErr.Code, classDataException) {
			switch {
			case strings.HasPrefix(op, "insert auction"), strings.HasPrefix(op, "insert lot"):
				return fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrInvalidAuction, pgErr.Message)
			case strings.Contains(op, "registration"):
				return fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrInvalidRequest, pgErr.Message)
			case strings.Contains(op, "bid"):
				return fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrInvalidBid, pgErr.Message)
			}
		}
	}
	return biddingerrors.Unavailable(op, err)
}

func (t *postgresTx) InsertAuction(ctx context.Context, auction model.Auction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO auctions (auction_id, title, status, is_live, created_at) VALUES ($1, $2, $3, $4, $5)`,
		auction.AuctionID, auction.Title, string(auction.Status), auction.IsLive, auction.CreatedAt)
	if err != nil {
		return classify("insert auction "+auction.AuctionID, err)
	}
	for i, lot := range auction.Lots {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO lots (auction_id, lot_id, position, title, initial_bid_value, current_bid_value, bid_increment)
			 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric)`,
			auction.AuctionID, lot.LotID, i, lot.Title,
			lot.InitialBidValue.String(), lot.CurrentBidValue.String(), lot.BidIncrement.String())
		if err != nil {
			return classify("insert lot "+lot.LotID, err)
		}
	}
	return nil
}

func (t *postgresTx) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var (
		auction model.Auction
		status  string
	)
	err := t.tx.QueryRow(ctx,
		`SELECT auction_id, title, status, is_live, created_at FROM auctions WHERE auction_id = $1`, auctionID,
	).Scan(&auction.AuctionID, &auction.Title, &status, &auction.IsLive, &auction.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, classify("get auction", err)
	}
	auction.Status = model.AuctionStatus(status)
	auction.CreatedAt = auction.CreatedAt.UTC()

	rows, err := t.tx.Query(ctx, lotSelect+` WHERE auction_id = $1 ORDER BY position`, auctionID)
	if err != nil {
		return model.Auction{}, classify("list lots", err)
	}
	defer rows.Close()
	auction.Lots = []model.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return model.Auction{}, classify("scan lot", err)
		}
		auction.Lots = append(auction.Lots, lot)
	}
	if err := rows.Err(); err != nil {
		return model.Auction{}, classify("list lots", err)
	}
	return auction, nil
}

const lotSelect = `SELECT auction_id, lot_id, title, initial_bid_value::text, current_bid_value::text, bid_increment::text,
	COALESCE(winner_bid_id, '') FROM lots`

func scanLot(row pgx.Row) (model.Lot, error) {
	var lot model.Lot
	var initial, current, increment string
	if err := row.Scan(&lot.AuctionID, &lot.LotID, &lot.Title, &initial, &current, &increment, &lot.WinnerBidID); err != nil {
		return model.Lot{}, err
	}
	var err error
	if lot.InitialBidValue, err = decimal.NewFromString(initial); err != nil {
		return model.Lot{}, fmt.Errorf("parse initial_bid_value: %w", err)
	}
	if lot.CurrentBidValue, err = decimal.NewFromString(current); err != nil {
		return model.Lot{}, fmt.Errorf("parse current_bid_value: %w", err)
	}
	if lot.BidIncrement, err = decimal.NewFromString(increment); err != nil {
		return model.Lot{}, fmt.Errorf("parse bid_increment: %w", err)
	}
	return lot, nil
}

// GetLot takes a row lock on the lot inside write transactions, serializing every decision on it.
func (t *postgresTx) GetLot(ctx context.Context, auctionID, lotID string) (model.Lot, error) {
	stmt := lotSelect + ` WHERE auction_id = $1 AND lot_id = $2`
	if !t.readOnly {
		stmt += ` FOR UPDATE`
	}
	lot, err := scanLot(t.tx.QueryRow(ctx, stmt, auctionID, lotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Lot{}, fmt.Errorf("get lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	if err != nil {
		return model.Lot{}, classify("get lot", err)
	}
	return lot, nil
}

func (t *postgresTx) SetLotCurrentBid(ctx context.Context, auctionID, lotID string, value decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE lots SET current_bid_value = $1::numeric WHERE auction_id = $2 AND lot_id = $3`,
		value.String(), auctionID, lotID)
	if err != nil {
		return classify("set lot current bid", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set current bid for lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	return nil
}

func (t *postgresTx) CloseLot(ctx context.Context, auctionID, lotID, winnerBidID string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE lots SET winner_bid_id = $1 WHERE auction_id = $2 AND lot_id = $3 AND winner_bid_id IS NULL`,
		winnerBidID, auctionID, lotID)
	if err != nil {
		return classify("close lot", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := t.GetLot(ctx, auctionID, lotID); err != nil {
		return err
	}
	return fmt.Errorf("close lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotClosed)
}

const registrationSelect = `SELECT registration_id, user_id, auction_id, status, next_registration_allowed_at,
	internal_notes, client_notes, created_at, decided_at FROM registrations`

func scanRegistration(row pgx.Row) (model.Registration, error) {
	var reg model.Registration
	var status string
	if err := row.Scan(&reg.RegistrationID, &reg.UserID, &reg.AuctionID, &status, &reg.NextRegistrationAllowedAt,
		&reg.InternalNotes, &reg.ClientNotes, &reg.CreatedAt, &reg.DecidedAt); err != nil {
		return model.Registration{}, err
	}
	reg.Status = model.RegistrationStatus(status)
	reg.CreatedAt = reg.CreatedAt.UTC()
	reg.NextRegistrationAllowedAt = utc(reg.NextRegistrationAllowedAt)
	reg.DecidedAt = utc(reg.DecidedAt)
	return reg, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func (t *postgresTx) InsertRegistration(ctx context.Context, reg model.Registration) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO registrations (registration_id, user_id, auction_id, status, next_registration_allowed_at,
		   internal_notes, client_notes, created_at, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reg.RegistrationID, reg.UserID, reg.AuctionID, string(reg.Status), reg.NextRegistrationAllowedAt,
		reg.InternalNotes, reg.ClientNotes, reg.CreatedAt, reg.DecidedAt)
	if err != nil {
		return classify("insert registration for user "+reg.UserID, err)
	}
	return nil
}

func (t *postgresTx) GetRegistration(ctx context.Context, registrationID string) (model.Registration, error) {
	reg, err := scanRegistration(t.tx.QueryRow(ctx, registrationSelect+` WHERE registration_id = $1`, registrationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Registration{}, fmt.Errorf("get registration %s: %w", registrationID, biddingerrors.ErrRegistrationNotFound)
	}
	if err != nil {
		return model.Registration{}, classify("get registration", err)
	}
	return reg, nil
}

func (t *postgresTx) ListRegistrations(ctx context.Context, filter repository.RegistrationFilter) ([]model.Registration, error) {
	q := newQuery()
	q.eq("auction_id", filter.AuctionID)
	q.eq("user_id", filter.UserID)
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	q.in("status", statuses)

	rows, err := t.tx.Query(ctx, registrationSelect+q.where()+` ORDER BY created_at, seq`, q.args...)
	if err != nil {
		return nil, classify("list registrations", err)
	}
	defer rows.Close()

	var out []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, classify("scan registration", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list registrations", err)
	}
	return out, nil
}

func (t *postgresTx) UpdateRegistration(ctx context.Context, reg model.Registration, expected model.RegistrationStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE registrations
		    SET status = $1, next_registration_allowed_at = $2, internal_notes = $3, client_notes = $4, decided_at = $5
		  WHERE registration_id = $6 AND status = $7`,
		string(reg.Status), reg.NextRegistrationAllowedAt, reg.InternalNotes, reg.ClientNotes, reg.DecidedAt,
		reg.RegistrationID, string(expected))
	if err != nil {
		return classify("update registration "+reg.RegistrationID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	current, err := t.GetRegistration(ctx, reg.RegistrationID)
	if err != nil {
		return err
	}
	return fmt.Errorf("update registration %s: %w - status is %s, expected %s",
		reg.RegistrationID, biddingerrors.ErrInvalidState, current.Status, expected)
}

const bidSelect = `SELECT bid_id, auction_id, lot_id, user_id, bid_value::text, status, is_winner,
	internal_notes, client_notes, created_at, decided_at FROM bids`

func scanBid(row pgx.Row) (model.Bid, error) {
	var bid model.Bid
	var value, status string
	if err := row.Scan(&bid.BidID, &bid.AuctionID, &bid.LotID, &bid.UserID, &value, &status, &bid.IsWinner,
		&bid.InternalNotes, &bid.ClientNotes, &bid.CreatedAt, &bid.DecidedAt); err != nil {
		return model.Bid{}, err
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return model.Bid{}, fmt.Errorf("parse bid_value: %w", err)
	}
	bid.BidValue = amount
	bid.Status = model.BidStatus(status)
	bid.CreatedAt = bid.CreatedAt.UTC()
	bid.DecidedAt = utc(bid.DecidedAt)
	return bid, nil
}

func (t *postgresTx) InsertBid(ctx context.Context, bid model.Bid) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO bids (bid_id, auction_id, lot_id, user_id, bid_value, status, is_winner,
		   internal_notes, client_notes, created_at, decided_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11)`,
		bid.BidID, bid.AuctionID, bid.LotID, bid.UserID, bid.BidValue.String(), string(bid.Status), bid.IsWinner,
		bid.InternalNotes, bid.ClientNotes, bid.CreatedAt, bid.DecidedAt)
	if err != nil {
		return classify(fmt.Sprintf("insert bid for lot %s/%s", bid.AuctionID, bid.LotID), err)
	}
	return nil
}

func (t *postgresTx) GetBid(ctx context.Context, bidID string) (model.Bid, error) {
	bid, err := scanBid(t.tx.QueryRow(ctx, bidSelect+` WHERE bid_id = $1`, bidID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biddingerrors.ErrBidNotFound)
	}
	if err != nil {
		return model.Bid{}, classify("get bid", err)
	}
	return bid, nil
}

func (t *postgresTx) ListBids(ctx context.Context, filter repository.BidFilter) ([]model.Bid, error) {
	q := newQuery()
	q.eq("auction_id", filter.AuctionID)
	q.eq("lot_id", filter.LotID)
	q.eq("user_id", filter.UserID)
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	q.in("status", statuses)

	rows, err := t.tx.Query(ctx, bidSelect+q.where()+` ORDER BY created_at, seq`, q.args...)
	if err != nil {
		return nil, classify("list bids", err)
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, classify("scan bid", err)
		}
		out = append(out, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list bids", err)
	}
	return out, nil
}

func (t *postgresTx) UpdateBid(ctx context.Context, bid model.Bid, expected model.BidStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE bids SET status = $1, is_winner = $2, internal_notes = $3, client_notes = $4, decided_at = $5
		  WHERE bid_id = $6 AND status = $7`,
		string(bid.Status), bid.IsWinner, bid.InternalNotes, bid.ClientNotes, bid.DecidedAt,
		bid.BidID, string(expected))
	if err != nil {
		return classify("update bid "+bid.BidID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	current, err := t.GetBid(ctx, bid.BidID)
	if err != nil {
		return err
	}
	return fmt.Errorf("update bid %s: %w - status is %s, expected %s",
		bid.BidID, biddingerrors.ErrInvalidState, current.Status, expected)
}

var _ repository.Ledger = (*PostgresLedger)(nil)
