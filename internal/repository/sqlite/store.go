// Package sqlite provides a SQLite-backed Ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/repository/migrations"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists ledger state in SQLite.
// It holds a single connection, so transactions from one process never interleave;
// the partial unique indexes guard the invariants against other processes sharing the file.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens a SQLite ledger and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrations.UpSQLite(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// WithinTx runs fn inside an immediate write transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.run(ctx, nil, fn)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, opts)
	if err != nil {
		return biddingerrors.Unavailable("begin transaction", err)
	}
	if err := fn(ctx, &sqliteTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return biddingerrors.Unavailable("commit transaction", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func constraintCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

func (t *sqliteTx) InsertAuction(ctx context.Context, auction model.Auction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO auctions (auction_id, title, status, is_live, created_at) VALUES (?, ?, ?, ?, ?)`,
		auction.AuctionID, auction.Title, string(auction.Status), auction.IsLive, toMillis(auction.CreatedAt))
	if err != nil {
		switch constraintCode(err) {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("insert auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
		}
		return biddingerrors.Unavailable("insert auction", err)
	}
	for i, lot := range auction.Lots {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO lots (auction_id, lot_id, position, title, initial_bid_value, current_bid_value, bid_increment)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			auction.AuctionID, lot.LotID, i, lot.Title,
			lot.InitialBidValue.String(), lot.CurrentBidValue.String(), lot.BidIncrement.String())
		if err != nil {
			switch constraintCode(err) {
			case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
				return fmt.Errorf("insert lot %s: %w - duplicate lot id", lot.LotID, biddingerrors.ErrInvalidAuction)
			}
			return biddingerrors.Unavailable("insert lot", err)
		}
	}
	return nil
}

func (t *sqliteTx) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var (
		auction   model.Auction
		status    string
		createdAt int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT auction_id, title, status, is_live, created_at FROM auctions WHERE auction_id = ?`, auctionID,
	).Scan(&auction.AuctionID, &auction.Title, &status, &auction.IsLive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, biddingerrors.Unavailable("get auction", err)
	}
	auction.Status = model.AuctionStatus(status)
	auction.CreatedAt = fromMillis(createdAt)

	rows, err := t.tx.QueryContext(ctx, lotSelect+` WHERE auction_id = ? ORDER BY position`, auctionID)
	if err != nil {
		return model.Auction{}, biddingerrors.Unavailable("list lots", err)
	}
	defer rows.Close()
	auction.Lots = []model.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return model.Auction{}, err
		}
		auction.Lots = append(auction.Lots, lot)
	}
	if err := rows.Err(); err != nil {
		return model.Auction{}, biddingerrors.Unavailable("list lots", err)
	}
	return auction, nil
}

const lotSelect = `SELECT auction_id, lot_id, title, initial_bid_value, current_bid_value, bid_increment, COALESCE(winner_bid_id, '') FROM lots`

type scanner interface {
	Scan(dest ...any) error
}

func scanLot(row scanner) (model.Lot, error) {
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

func (t *sqliteTx) GetLot(ctx context.Context, auctionID, lotID string) (model.Lot, error) {
	lot, err := scanLot(t.tx.QueryRowContext(ctx, lotSelect+` WHERE auction_id = ? AND lot_id = ?`, auctionID, lotID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lot{}, fmt.Errorf("get lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	if err != nil {
		return model.Lot{}, biddingerrors.Unavailable("get lot", err)
	}
	return lot, nil
}

func (t *sqliteTx) SetLotCurrentBid(ctx context.Context, auctionID, lotID string, value decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE lots SET current_bid_value = ? WHERE auction_id = ? AND lot_id = ?`, value.String(), auctionID, lotID)
	if err != nil {
		return biddingerrors.Unavailable("set lot current bid", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set current bid for lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotNotFound)
	}
	return nil
}

func (t *sqliteTx) CloseLot(ctx context.Context, auctionID, lotID, winnerBidID string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE lots SET winner_bid_id = ? WHERE auction_id = ? AND lot_id = ? AND winner_bid_id IS NULL`,
		winnerBidID, auctionID, lotID)
	if err != nil {
		return biddingerrors.Unavailable("close lot", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := t.GetLot(ctx, auctionID, lotID); err != nil {
		return err
	}
	return fmt.Errorf("close lot %s/%s: %w", auctionID, lotID, biddingerrors.ErrLotClosed)
}

const registrationSelect = `SELECT registration_id, user_id, auction_id, status, next_registration_allowed_at,
	internal_notes, client_notes, created_at, decided_at FROM registrations`

func scanRegistration(row scanner) (model.Registration, error) {
	var (
		reg         model.Registration
		status      string
		nextAllowed sql.NullInt64
		decided     sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(&reg.RegistrationID, &reg.UserID, &reg.AuctionID, &status, &nextAllowed,
		&reg.InternalNotes, &reg.ClientNotes, &createdAt, &decided); err != nil {
		return model.Registration{}, err
	}
	reg.Status = model.RegistrationStatus(status)
	reg.NextRegistrationAllowedAt = timePtr(nextAllowed)
	reg.CreatedAt = fromMillis(createdAt)
	reg.DecidedAt = timePtr(decided)
	return reg, nil
}

func (t *sqliteTx) InsertRegistration(ctx context.Context, reg model.Registration) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO registrations (registration_id, user_id, auction_id, status, next_registration_allowed_at,
		   internal_notes, client_notes, created_at, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.RegistrationID, reg.UserID, reg.AuctionID, string(reg.Status), nullMillis(reg.NextRegistrationAllowedAt),
		reg.InternalNotes, reg.ClientNotes, toMillis(reg.CreatedAt), nullMillis(reg.DecidedAt))
	if err != nil {
		switch constraintCode(err) {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("insert registration for user %s: %w", reg.UserID, biddingerrors.ErrAlreadyRegistered)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("insert registration: %w", biddingerrors.ErrAuctionNotFound)
		}
		return biddingerrors.Unavailable("insert registration", err)
	}
	return nil
}

func (t *sqliteTx) GetRegistration(ctx context.Context, registrationID string) (model.Registration, error) {
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx, registrationSelect+` WHERE registration_id = ?`, registrationID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Registration{}, fmt.Errorf("get registration %s: %w", registrationID, biddingerrors.ErrRegistrationNotFound)
	}
	if err != nil {
		return model.Registration{}, biddingerrors.Unavailable("get registration", err)
	}
	return reg, nil
}

func (t *sqliteTx) ListRegistrations(ctx context.Context, filter repository.RegistrationFilter) ([]model.Registration, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuctionID != "" {
		where = append(where, "auction_id = ?")
		args = append(args, filter.AuctionID)
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}

	rows, err := t.tx.QueryContext(ctx, registrationSelect+whereClause(where)+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, biddingerrors.Unavailable("list registrations", err)
	}
	defer rows.Close()

	var out []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, biddingerrors.Unavailable("scan registration", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, biddingerrors.Unavailable("list registrations", err)
	}
	return out, nil
}

func (t *sqliteTx) UpdateRegistration(ctx context.Context, reg model.Registration, expected model.RegistrationStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE registrations
		    SET status = ?, next_registration_allowed_at = ?, internal_notes = ?, client_notes = ?, decided_at = ?
		  WHERE registration_id = ? AND status = ?`,
		string(reg.Status), nullMillis(reg.NextRegistrationAllowedAt), reg.InternalNotes, reg.ClientNotes,
		nullMillis(reg.DecidedAt), reg.RegistrationID, string(expected))
	if err != nil {
		if constraintCode(err) == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("update registration %s: %w", reg.RegistrationID, biddingerrors.ErrAlreadyRegistered)
		}
		return biddingerrors.Unavailable("update registration", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	current, err := t.GetRegistration(ctx, reg.RegistrationID)
	if err != nil {
		return err
	}
	return fmt.Errorf("update registration %s: %w - status is %s, expected %s",
		reg.RegistrationID, biddingerrors.ErrInvalidState, current.Status, expected)
}

const bidSelect = `SELECT bid_id, auction_id, lot_id, user_id, bid_value, status, is_winner,
	internal_notes, client_notes, created_at, decided_at FROM bids`

func scanBid(row scanner) (model.Bid, error) {
	var (
		bid       model.Bid
		value     string
		status    string
		createdAt int64
		decided   sql.NullInt64
	)
	if err := row.Scan(&bid.BidID, &bid.AuctionID, &bid.LotID, &bid.UserID, &value, &status, &bid.IsWinner,
		&bid.InternalNotes, &bid.ClientNotes, &createdAt, &decided); err != nil {
		return model.Bid{}, err
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return model.Bid{}, fmt.Errorf("parse bid_value: %w", err)
	}
	bid.BidValue = amount
	bid.Status = model.BidStatus(status)
	bid.CreatedAt = fromMillis(createdAt)
	bid.DecidedAt = timePtr(decided)
	return bid, nil
}

func (t *sqliteTx) InsertBid(ctx context.Context, bid model.Bid) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO bids (bid_id, auction_id, lot_id, user_id, bid_value, status, is_winner,
		   internal_notes, client_notes, created_at, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bid.BidID, bid.AuctionID, bid.LotID, bid.UserID, bid.BidValue.String(), string(bid.Status), bid.IsWinner,
		bid.InternalNotes, bid.ClientNotes, toMillis(bid.CreatedAt), nullMillis(bid.DecidedAt))
	if err != nil {
		switch constraintCode(err) {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("insert bid for lot %s/%s: %w", bid.AuctionID, bid.LotID, biddingerrors.ErrBidInFlight)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("insert bid for lot %s/%s: %w", bid.AuctionID, bid.LotID, biddingerrors.ErrLotNotFound)
		}
		return biddingerrors.Unavailable("insert bid", err)
	}
	return nil
}

func (t *sqliteTx) GetBid(ctx context.Context, bidID string) (model.Bid, error) {
	bid, err := scanBid(t.tx.QueryRowContext(ctx, bidSelect+` WHERE bid_id = ?`, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biddingerrors.ErrBidNotFound)
	}
	if err != nil {
		return model.Bid{}, biddingerrors.Unavailable("get bid", err)
	}
	return bid, nil
}

func (t *sqliteTx) ListBids(ctx context.Context, filter repository.BidFilter) ([]model.Bid, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuctionID != "" {
		where = append(where, "auction_id = ?")
		args = append(args, filter.AuctionID)
	}
	if filter.LotID != "" {
		where = append(where, "lot_id = ?")
		args = append(args, filter.LotID)
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}

	rows, err := t.tx.QueryContext(ctx, bidSelect+whereClause(where)+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, biddingerrors.Unavailable("list bids", err)
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, biddingerrors.Unavailable("scan bid", err)
		}
		out = append(out, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, biddingerrors.Unavailable("list bids", err)
	}
	return out, nil
}

func (t *sqliteTx) UpdateBid(ctx context.Context, bid model.Bid, expected model.BidStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bids SET status = ?, is_winner = ?, internal_notes = ?, client_notes = ?, decided_at = ?
		  WHERE bid_id = ? AND status = ?`,
		string(bid.Status), bid.IsWinner, bid.InternalNotes, bid.ClientNotes, nullMillis(bid.DecidedAt),
		bid.BidID, string(expected))
	if err != nil {
		if constraintCode(err) == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			if bid.IsWinner {
				return fmt.Errorf("update bid %s: %w", bid.BidID, biddingerrors.ErrLotClosed)
			}
			return fmt.Errorf("update bid %s: %w", bid.BidID, biddingerrors.ErrBidInFlight)
		}
		return biddingerrors.Unavailable("update bid", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	current, err := t.GetBid(ctx, bid.BidID)
	if err != nil {
		return err
	}
	return fmt.Errorf("update bid %s: %w - status is %s, expected %s",
		bid.BidID, biddingerrors.ErrInvalidState, current.Status, expected)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

var _ repository.Ledger = (*Store)(nil)
