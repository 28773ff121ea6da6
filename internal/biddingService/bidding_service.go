package bidding

import (
	"context"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// core is the state shared by the gate, arbiter and resolver.
type core struct {
	repo     repository.Ledger
	notifier notify.Dispatcher
	now      func() time.Time
}

// announce hands a committed transition to the dispatcher before the caller gets its result.
// The transition is already durable, so a dispatcher failure is logged and not returned.
// Dispatch is detached from the caller's cancellation so a committed transition is always announced.
func (c *core) announce(ctx context.Context, event model.Event) {
	if err := c.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		utils.Warn("notification dispatch failed", map[string]any{
			"event":      string(event.Type),
			"auction_id": event.AuctionID,
			"error":      err.Error(),
		})
	}
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}

// Option configures a BiddingService
type Option func(*core)

// WithNotifier sets the dispatcher that receives every committed transition
func WithNotifier(d notify.Dispatcher) Option {
	return func(c *core) {
		c.notifier = d
	}
}

// WithClock replaces time.Now, used for cooldown arithmetic and timestamps
func WithClock(now func() time.Time) Option {
	return func(c *core) {
		c.now = now
	}
}

// BiddingService composes the registration gate, bid arbiter and winner resolver over one Ledger
type BiddingService struct {
	*core
	Gate     *RegistrationGate
	Arbiter  *BidArbiter
	Resolver *WinnerResolver
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.Ledger, opts ...Option) *BiddingService {
	c := &core{
		repo:     repo,
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return &BiddingService{
		core:     c,
		Gate:     &RegistrationGate{core: c},
		Arbiter:  &BidArbiter{core: c},
		Resolver: &WinnerResolver{core: c},
	}
}

// RequestRegistration asks for eligibility to bid in an auction
func (s *BiddingService) RequestRegistration(ctx context.Context, userID, auctionID string) (model.Registration, error) {
	return s.Gate.RequestRegistration(ctx, userID, auctionID)
}

// DecideRegistration approves or rejects a pending registration
func (s *BiddingService) DecideRegistration(ctx context.Context, registrationID string, outcome model.Outcome, notes model.Notes, cooldown time.Duration) (model.Registration, error) {
	return s.Gate.Decide(ctx, registrationID, outcome, notes, cooldown)
}

// IsEligibleToBid reports whether the user may submit a bid in the auction right now
func (s *BiddingService) IsEligibleToBid(ctx context.Context, userID, auctionID string) (bool, error) {
	return s.Gate.IsEligibleToBid(ctx, userID, auctionID)
}

// SubmitBid admits a bid as pending
func (s *BiddingService) SubmitBid(ctx context.Context, userID, auctionID, lotID string, amount decimal.Decimal) (model.Bid, error) {
	return s.Arbiter.SubmitBid(ctx, userID, auctionID, lotID, amount)
}

// DecideBid approves or rejects a pending bid
func (s *BiddingService) DecideBid(ctx context.Context, bidID string, outcome model.Outcome, notes model.Notes) (model.Bid, error) {
	return s.Arbiter.Decide(ctx, bidID, outcome, notes)
}

// DeclareWinner finalizes an approved bid as the lot's winner
func (s *BiddingService) DeclareWinner(ctx context.Context, bidID string) (model.Bid, error) {
	return s.Resolver.DeclareWinner(ctx, bidID)
}
