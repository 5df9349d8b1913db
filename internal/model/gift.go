package model

import "time"

// Gift represents a single claimable item on a list. A gift is either
// available or reserved; it is never a stock count.
type Gift struct {
	ID          int64     `json:"id"`
	ListID      int64     `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	URL         string    `json:"url,omitempty"`
	ImageMime   string    `json:"image_mime,omitempty"`
	Category    string    `json:"category,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined active reservation fields (populated on list views, nil when
	// the gift is available).
	Reservation *Reservation `json:"reservation,omitempty"`
}

// Gift statuses. status == reserved iff exactly one active reservation
// exists for the gift.
const (
	GiftStatusAvailable = "available"
	GiftStatusReserved  = "reserved"
)

// Gift priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)
