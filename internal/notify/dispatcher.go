// Package notify announces committed engine state transitions to external observers.
package notify

import (
	"context"
	"errors"
	"sync"

	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// Dispatcher receives every committed state transition.
// Delivery guarantees beyond a single synchronous call are the implementation's concern.
type Dispatcher interface {
	Notify(ctx context.Context, event model.Event) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, event model.Event) error

// Notify calls f.
func (f DispatcherFunc) Notify(ctx context.Context, event model.Event) error {
	return f(ctx, event)
}

// Nop discards events.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, model.Event) error { return nil }

// Fanout delivers each event to every dispatcher in order, even when an earlier one fails.
type Fanout []Dispatcher

// Notify returns the joined errors of all failing dispatchers.
func (f Fanout) Notify(ctx context.Context, event model.Event) error {
	var errs []error
	for _, d := range f {
		if err := d.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogDispatcher writes each event to the structured log.
type LogDispatcher struct{}

// Notify logs the event at info level.
func (LogDispatcher) Notify(_ context.Context, event model.Event) error {
	fields := map[string]any{
		"event":      string(event.Type),
		"auction_id": event.AuctionID,
	}
	if event.LotID != "" {
		fields["lot_id"] = event.LotID
	}
	if event.Registration != nil {
		fields["registration_id"] = event.Registration.RegistrationID
		fields["user_id"] = event.Registration.UserID
		fields["status"] = string(event.Registration.Status)
	}
	if event.Bid != nil {
		fields["bid_id"] = event.Bid.BidID
		fields["user_id"] = event.Bid.UserID
		fields["status"] = string(event.Bid.Status)
		fields["bid_value"] = event.Bid.BidValue.String()
	}
	if len(event.Superseded) > 0 {
		fields["superseded"] = len(event.Superseded)
	}
	utils.Info("engine event", fields)
	return nil
}

// Recorder keeps every event in memory. Used by tests and local tooling.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

// Notify appends the event.
func (r *Recorder) Notify(_ context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
