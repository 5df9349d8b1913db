package model

import "time"

// Notification is a message for a list owner, written in the same transaction
// as the state change it describes and delivered when the owner reads it.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      string    `json:"data,omitempty"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	NotifyGiftReserved   = "gift_reserved"
	NotifyGiftUnreserved = "gift_unreserved"
)
