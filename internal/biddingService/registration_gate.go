package bidding

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// maxRegistrationCooldown keeps rejection cooldowns well inside time.Time arithmetic.
const maxRegistrationCooldown = 365 * 24 * time.Hour

// RegistrationGate decides who may bid in an auction
type RegistrationGate struct {
	*core
}

// RequestRegistration creates a pending registration for the user.
// It fails if an active registration exists or the latest rejection is still cooling down.
func (g *RegistrationGate) RequestRegistration(ctx context.Context, userID, auctionID string) (model.Registration, error) {
	if userID == "" || auctionID == "" {
		return model.Registration{}, fmt.Errorf("service: %w - missing userID or auctionID", biddingerrors.ErrInvalidRequest)
	}

	now := g.clock()
	reg := model.Registration{
		RegistrationID: utils.GenerateID(),
		UserID:         userID,
		AuctionID:      auctionID,
		Status:         model.RegistrationPending,
		CreatedAt:      now,
	}

	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetAuction(ctx, auctionID); err != nil {
			return err
		}

		history, err := tx.ListRegistrations(ctx, repository.RegistrationFilter{AuctionID: auctionID, UserID: userID})
		if err != nil {
			return err
		}
		for _, existing := range history {
			if existing.Status.Active() {
				return fmt.Errorf("%w - registration %s is %s", biddingerrors.ErrAlreadyRegistered, existing.RegistrationID, existing.Status)
			}
		}
		if len(history) > 0 {
			if remaining := cooldownRemaining(history[len(history)-1], now); remaining > 0 {
				return &biddingerrors.CooldownActiveError{Remaining: remaining}
			}
		}

		return tx.InsertRegistration(ctx, reg)
	})
	if err != nil {
		return model.Registration{}, fmt.Errorf("service: failed to request registration for user %s in auction %s: %w", userID, auctionID, err)
	}

	g.announce(ctx, model.Event{
		Type:         model.EventRegistrationCreated,
		AuctionID:    auctionID,
		Registration: &reg,
		OccurredAt:   now,
	})
	return reg, nil
}

// cooldownRemaining returns how long a rejected registration still blocks a new request
func cooldownRemaining(reg model.Registration, now time.Time) time.Duration {
	if reg.Status != model.RegistrationRejected || reg.NextRegistrationAllowedAt == nil {
		return 0
	}
	return reg.NextRegistrationAllowedAt.Sub(now)
}

// Decide approves or rejects a pending registration.
// A positive cooldown on rejection blocks re-requests until it elapses.
func (g *RegistrationGate) Decide(ctx context.Context, registrationID string, outcome model.Outcome, notes model.Notes, cooldown time.Duration) (model.Registration, error) {
	if registrationID == "" {
		return model.Registration{}, fmt.Errorf("service: %w - empty registration ID", biddingerrors.ErrInvalidRequest)
	}
	if !outcome.Valid() {
		return model.Registration{}, fmt.Errorf("service: %w - unknown outcome %q", biddingerrors.ErrInvalidDecision, outcome)
	}
	if cooldown < 0 {
		return model.Registration{}, fmt.Errorf("service: %w - negative cooldown", biddingerrors.ErrInvalidDecision)
	}
	if cooldown > maxRegistrationCooldown {
		return model.Registration{}, fmt.Errorf("service: %w - cooldown exceeds %s", biddingerrors.ErrInvalidDecision, maxRegistrationCooldown)
	}

	now := g.clock()
	var decided model.Registration
	err := g.repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.Status != model.RegistrationPending {
			return fmt.Errorf("%w - registration %s is %s", biddingerrors.ErrInvalidState, registrationID, reg.Status)
		}

		reg.Status = model.RegistrationStatus(outcome)
		reg.InternalNotes = notes.Internal
		reg.ClientNotes = notes.Client
		reg.DecidedAt = &now
		if outcome == model.OutcomeRejected && cooldown > 0 {
			next := now.Add(cooldown)
			reg.NextRegistrationAllowedAt = &next
		}

		if err := tx.UpdateRegistration(ctx, reg, model.RegistrationPending); err != nil {
			return err
		}
		decided = reg
		return nil
	})
	if err != nil {
		return model.Registration{}, fmt.Errorf("service: failed to decide registration %s: %w", registrationID, err)
	}

	g.announce(ctx, model.Event{
		Type:         model.EventRegistrationDecided,
		AuctionID:    decided.AuctionID,
		Registration: &decided,
		OccurredAt:   now,
	})
	return decided, nil
}

// IsEligibleToBid is true iff the user holds an approved registration and has no pending bid in the auction
func (g *RegistrationGate) IsEligibleToBid(ctx context.Context, userID, auctionID string) (bool, error) {
	if userID == "" || auctionID == "" {
		return false, fmt.Errorf("service: %w - missing userID or auctionID", biddingerrors.ErrInvalidRequest)
	}

	var ok bool
	err := g.repo.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ok, err = eligible(ctx, tx, userID, auctionID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("service: failed to check eligibility of user %s in auction %s: %w", userID, auctionID, err)
	}
	return ok, nil
}

// eligible evaluates eligibility inside an open transaction so SubmitBid can check it atomically
func eligible(ctx context.Context, tx repository.Tx, userID, auctionID string) (bool, error) {
	approved, err := tx.ListRegistrations(ctx, repository.RegistrationFilter{
		AuctionID: auctionID,
		UserID:    userID,
		Statuses:  []model.RegistrationStatus{model.RegistrationApproved},
	})
	if err != nil || len(approved) == 0 {
		return false, err
	}

	pending, err := tx.ListBids(ctx, repository.BidFilter{
		AuctionID: auctionID,
		UserID:    userID,
		Statuses:  []model.BidStatus{model.BidPending},
	})
	if err != nil {
		return false, err
	}
	return len(pending) == 0, nil
}
