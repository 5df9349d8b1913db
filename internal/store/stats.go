package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReservationStats summarizes reservation activity across an owner's lists.
type ReservationStats struct {
	TotalGifts            int     `json:"total_gifts"`
	ReservedGifts         int     `json:"reserved_gifts"`
	AvailableGifts        int     `json:"available_gifts"`
	TotalReservations     int     `json:"total_reservations"`
	ActiveReservations    int     `json:"active_reservations"`
	CancelledReservations int     `json:"cancelled_reservations"`
	AnonymousReservations int     `json:"anonymous_reservations"`
	ReservedValue         float64 `json:"reserved_value"`
}

// PopularGift is a gift ranked by how often it has been reserved.
type PopularGift struct {
	GiftID           int64  `json:"gift_id"`
	Title            string `json:"title"`
	ListID           int64  `json:"list_id"`
	ReservationCount int    `json:"reservation_count"`
}

// GetReservationStats aggregates gift and reservation counts for an owner,
// optionally limited to a single list. The caller must already have verified
// list ownership.
func GetReservationStats(ctx context.Context, db *sql.DB, userID int64, listID int64) (*ReservationStats, error) {
	stats := &ReservationStats{}

	giftQuery := `SELECT COUNT(*),
	                     COALESCE(SUM(CASE WHEN g.status = 'reserved' THEN 1 ELSE 0 END), 0),
	                     COALESCE(SUM(CASE WHEN g.status = 'available' THEN 1 ELSE 0 END), 0),
	                     COALESCE(SUM(CASE WHEN g.status = 'reserved' THEN g.price ELSE 0 END), 0)
	              FROM gifts g
	              JOIN gift_lists l ON l.id = g.list_id
	              WHERE l.user_id = ? AND l.deleted_at IS NULL`
	args := []any{userID}
	if listID > 0 {
		giftQuery += ` AND l.id = ?`
		args = append(args, listID)
	}

	err := db.QueryRowContext(ctx, giftQuery, args...).Scan(
		&stats.TotalGifts, &stats.ReservedGifts, &stats.AvailableGifts, &stats.ReservedValue)
	if err != nil {
		return nil, fmt.Errorf("aggregating gift stats: %w", err)
	}

	resQuery := `SELECT COUNT(*),
	                    COALESCE(SUM(CASE WHEN r.status = 'active' THEN 1 ELSE 0 END), 0),
	                    COALESCE(SUM(CASE WHEN r.status = 'cancelled' THEN 1 ELSE 0 END), 0),
	                    COALESCE(SUM(CASE WHEN r.is_anonymous = 1 THEN 1 ELSE 0 END), 0)
	             FROM gift_reservations r
	             JOIN gift_lists l ON l.id = r.list_id
	             WHERE l.user_id = ? AND l.deleted_at IS NULL`
	if listID > 0 {
		resQuery += ` AND l.id = ?`
	}

	err = db.QueryRowContext(ctx, resQuery, args...).Scan(
		&stats.TotalReservations, &stats.ActiveReservations,
		&stats.CancelledReservations, &stats.AnonymousReservations)
	if err != nil {
		return nil, fmt.Errorf("aggregating reservation stats: %w", err)
	}

	return stats, nil
}

// GetPopularGifts returns the owner's most-reserved gifts, counting both
// active and cancelled reservations.
func GetPopularGifts(ctx context.Context, db *sql.DB, userID int64, limit int) ([]PopularGift, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.QueryContext(ctx,
		`SELECT g.id, g.title, g.list_id, COUNT(r.id) AS reservation_count
		 FROM gifts g
		 JOIN gift_lists l ON l.id = g.list_id
		 LEFT JOIN gift_reservations r ON r.gift_id = g.id
		 WHERE l.user_id = ? AND l.deleted_at IS NULL
		 GROUP BY g.id
		 HAVING reservation_count > 0
		 ORDER BY reservation_count DESC, g.id
		 LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing popular gifts: %w", err)
	}
	defer rows.Close()

	var gifts []PopularGift
	for rows.Next() {
		var g PopularGift
		if err := rows.Scan(&g.GiftID, &g.Title, &g.ListID, &g.ReservationCount); err != nil {
			return nil, fmt.Errorf("scanning popular gift: %w", err)
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}
