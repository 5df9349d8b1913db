package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/darila/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so audit events can be
// recorded inside a state-changing transaction or best-effort outside one.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RecordEvent appends an audit event. Events documenting a state transition
// (reserved, unreserved, created, updated) must be recorded on the transaction
// performing that transition; informational events (viewed) may be recorded on
// the bare DB and their failure must not fail the calling path.
func RecordEvent(ctx context.Context, q Querier, giftID, listID int64, userID *int64, eventType string, details any) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding event details: %w", err)
		}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO gift_events (gift_id, list_id, user_id, event_type, details)
		 VALUES (?, ?, ?, ?, ?)`,
		giftID, listID, userID, eventType, string(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", eventType, err)
	}
	return nil
}

// ListEvents returns audit events for a list, newest first.
func ListEvents(ctx context.Context, db *sql.DB, listID int64) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, gift_id, list_id, user_id, event_type, details, created_at
		 FROM gift_events WHERE list_id = ? ORDER BY created_at DESC, id DESC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.GiftID, &e.ListID, &e.UserID, &e.Type, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Details = details.String
		events = append(events, e)
	}
	return events, rows.Err()
}
