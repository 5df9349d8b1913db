package model

import "time"

// Event is an append-only audit record for a gift or list.
// GiftID 0 means the event concerns the list as a whole.
type Event struct {
	ID        int64     `json:"id"`
	GiftID    int64     `json:"gift_id"`
	ListID    int64     `json:"list_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Type      string    `json:"event_type"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event types.
const (
	EventCreated    = "created"
	EventUpdated    = "updated"
	EventReserved   = "reserved"
	EventUnreserved = "unreserved"
	EventViewed     = "viewed"
)
