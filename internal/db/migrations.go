package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS gift_lists (
    id            INTEGER PRIMARY KEY,
    user_id       INTEGER NOT NULL REFERENCES users(id),
    title         TEXT NOT NULL,
    description   TEXT,
    event_date    DATETIME,
    privacy       TEXT NOT NULL DEFAULT 'private' CHECK (privacy IN ('public', 'private', 'password')),
    password_hash TEXT,
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
    slug          TEXT NOT NULL UNIQUE,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS gifts (
    id          INTEGER PRIMARY KEY,
    list_id     INTEGER NOT NULL REFERENCES gift_lists(id),
    title       TEXT NOT NULL,
    description TEXT,
    price       REAL,
    url         TEXT,
    image       BLOB,
    image_mime  TEXT,
    category    TEXT,
    priority    TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    status      TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'reserved')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_gifts_list ON gifts(list_id);

CREATE TABLE IF NOT EXISTS gift_reservations (
    id                  INTEGER PRIMARY KEY,
    gift_id             INTEGER NOT NULL REFERENCES gifts(id),
    list_id             INTEGER NOT NULL REFERENCES gift_lists(id),
    user_id             INTEGER REFERENCES users(id),
    name                TEXT NOT NULL,
    email               TEXT,
    message             TEXT,
    is_anonymous        INTEGER NOT NULL DEFAULT 0,
    status              TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'cancelled')),
    reserved_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    cancellation_reason TEXT,
    cancelled_at        DATETIME,
    cancelled_by        INTEGER REFERENCES users(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_one_active
    ON gift_reservations(gift_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS gift_events (
    id         INTEGER PRIMARY KEY,
    gift_id    INTEGER NOT NULL DEFAULT 0,
    list_id    INTEGER NOT NULL REFERENCES gift_lists(id),
    user_id    INTEGER REFERENCES users(id),
    event_type TEXT NOT NULL,
    details    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_list ON gift_events(list_id);

CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    type       TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    data       TEXT,
    is_read    INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: partial unique index enforcing at most one active
	// reservation per gift, added after the column-level CHECKs.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_one_active
	     ON gift_reservations(gift_id) WHERE status = 'active'`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
