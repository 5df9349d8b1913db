package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/darila/internal/model"
)

// insertNotification writes a notification row for a list owner. It runs on
// the transaction of the state change it describes, so a rollback undoes it.
func insertNotification(ctx context.Context, q Querier, userID int64, notifType, title, message string, data any) error {
	var dataJSON []byte
	if data != nil {
		var err error
		dataJSON, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encoding notification data: %w", err)
		}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, notifType, title, message, string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first, optionally
// only unread ones.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64, onlyUnread bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, data, is_read, created_at
	          FROM notifications WHERE user_id = ?`
	args := []any{userID}

	if onlyUnread {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var data sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Data = data.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read.
func MarkNotificationRead(ctx context.Context, db *sql.DB, userID, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: notification %d", ErrNotFound, id)
	}
	return nil
}
