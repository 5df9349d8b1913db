package model

import "time"

// List represents a gift list owned by a user. The slug is the stable public
// identifier used in share links.
type List struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	Privacy      string     `json:"privacy"`
	PasswordHash string     `json:"-"`
	Status       string     `json:"status"`
	Slug         string     `json:"slug"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// List privacy modes.
const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyPassword = "password"
)

// List statuses.
const (
	ListStatusActive   = "active"
	ListStatusArchived = "archived"
)
