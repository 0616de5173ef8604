package model

import "time"

// Message types pushed to subscribers.
const (
	TypeInit   = "init"
	TypeUpdate = "mazaneh_update"
)

// PricePoint is one accepted price observation. Immutable once stored.
type PricePoint struct {
	ID             int64     // Ledger id, strictly increasing
	Price          int64     // Sell price (toman)
	CreatedAt      time.Time // Acceptance time (UTC)
	CreatedAtLocal string    // Acceptance time on the Shamsi calendar
}

// InitEvent is sent once to a subscriber when it connects.
type InitEvent struct {
	Type      string  `json:"type"`
	Price     *int64  `json:"price"`
	Timestamp *string `json:"timestamp"`
}

// UpdateEvent is broadcast for every accepted price change.
type UpdateEvent struct {
	Type          string `json:"type"`
	Price         int64  `json:"price"`
	Timestamp     string `json:"timestamp"`
	PreviousPrice *int64 `json:"previous_price"`
}

// NewInitEvent builds the init payload from the latest point; ok=false yields nulls.
func NewInitEvent(latest PricePoint, ok bool) InitEvent {
	ev := InitEvent{Type: TypeInit}
	if ok {
		price := latest.Price
		ts := latest.CreatedAtLocal
		ev.Price = &price
		ev.Timestamp = &ts
	}
	return ev
}

// NewUpdateEvent builds the broadcast payload for a freshly stored point.
func NewUpdateEvent(p PricePoint, previous *int64) UpdateEvent {
	return UpdateEvent{
		Type:          TypeUpdate,
		Price:         p.Price,
		Timestamp:     p.CreatedAtLocal,
		PreviousPrice: previous,
	}
}
