package model

import "time"

// AnonymousName is stored instead of the reserver's name when a reservation
// is made anonymously. The supplied name is never persisted in that case.
const AnonymousName = "Anonymous"

// Reservation pairs a (possibly anonymous, possibly guest) reserver with
// exactly one gift. Cancelled reservations are kept as history, never deleted.
type Reservation struct {
	ID        int64  `json:"id"`
	GiftID    int64  `json:"gift_id"`
	ListID    int64  `json:"list_id"`
	UserID    *int64 `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Message   string `json:"message,omitempty"`
	Anonymous bool   `json:"is_anonymous"`
	Status    string `json:"status"`

	ReservedAt         time.Time  `json:"reserved_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
}

// Reservation statuses.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
)
