package biddingerrors

import (
	"errors"
	"fmt"
	"time"
)

// Repository-level errors
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrLotNotFound          = errors.New("lot not found")
	ErrBidNotFound          = errors.New("bid not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNoBids               = errors.New("no accepted bids found for lot")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// business logic errors
var (
	ErrInvalidBid        = errors.New("invalid bid")
	ErrInvalidDecision   = errors.New("invalid decision")
	ErrInvalidRequest    = errors.New("invalid registration request")
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrNotEligible       = errors.New("user is not eligible to bid")
	ErrCooldownActive    = errors.New("registration cooldown active")
	ErrAlreadyRegistered = errors.New("active registration already exists")
	ErrBidInFlight       = errors.New("another bid is pending for this lot")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrLotClosed         = errors.New("lot already has a winner")
	ErrAuctionInactive   = errors.New("auction is not active")
	ErrInvalidState      = errors.New("entity is not in the required state")
)

// CooldownActiveError reports how long a rejected bidder must wait before re-requesting registration.
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrCooldownActive, e.Remaining.Round(time.Second))
}

// Is lets errors.Is match the sentinel ErrCooldownActive.
func (e *CooldownActiveError) Is(target error) bool {
	return target == ErrCooldownActive
}

// Unavailable wraps a driver fault so callers can match ErrStorageUnavailable and retry.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
