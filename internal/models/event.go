package models

import "time"

// EventType names a state transition announced to observers
type EventType string

const (
	EventRegistrationCreated EventType = "registration_created"
	EventRegistrationDecided EventType = "registration_decided"
	EventBidCreated          EventType = "bid_created"
	EventBidDecided          EventType = "bid_decided"
	EventWinnerDeclared      EventType = "winner_declared"
)

// Event is the payload handed to a notification dispatcher after a committed transition.
// Exactly one of Registration or Bid is set.
type Event struct {
	Type         EventType     `json:"type"`
	AuctionID    string        `json:"auction_id"`
	LotID        string        `json:"lot_id,omitempty"`
	Registration *Registration `json:"registration,omitempty"`
	Bid          *Bid          `json:"bid,omitempty"`
	Superseded   []string      `json:"superseded_bid_ids,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
