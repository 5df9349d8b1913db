package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/darila/internal/model"
)

// Explore sort orders.
const (
	ExploreSortNewest   = "newest"
	ExploreSortPopular  = "popular"
	ExploreSortUpcoming = "upcoming"
)

// ExploreList is a public list enriched with the counters shown on the
// discovery surface.
type ExploreList struct {
	model.List
	Owner            string `json:"owner"`
	GiftCount        int    `json:"gift_count"`
	ReservationCount int    `json:"reservation_count"`
	ViewCount        int    `json:"view_count"`
}

// ExploreLists returns active public lists for browsing, optionally filtered
// by a title/description substring, plus the total match count for
// pagination. Lists of deleted accounts are excluded.
func ExploreLists(ctx context.Context, db *sql.DB, query, sort string, limit, offset int) ([]ExploreList, int, error) {
	// Every order ends on id so pagination stays stable across ties.
	var order string
	switch sort {
	case "", ExploreSortNewest:
		order = `l.created_at DESC, l.id DESC`
	case ExploreSortPopular:
		order = `reservation_count DESC, view_count DESC, l.created_at DESC, l.id DESC`
	case ExploreSortUpcoming:
		order = `l.event_date IS NULL, l.event_date, l.created_at DESC, l.id DESC`
	default:
		return nil, 0, fmt.Errorf("%w: unknown sort %q", ErrInvalid, sort)
	}

	where := ` WHERE l.privacy = 'public' AND l.status = 'active' AND l.deleted_at IS NULL
	           AND u.deleted_at IS NULL`
	var args []any
	if query != "" {
		where += ` AND (l.title LIKE ? OR l.description LIKE ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gift_lists l JOIN users u ON u.id = l.user_id`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting public lists: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT l.id, l.user_id, l.title, l.description, l.event_date, l.privacy,
		        l.status, l.slug, l.created_at, l.updated_at,
		        u.name,
		        COUNT(DISTINCT g.id) AS gift_count,
		        COUNT(DISTINCT r.id) AS reservation_count,
		        COUNT(DISTINCT e.id) AS view_count
		 FROM gift_lists l
		 JOIN users u ON u.id = l.user_id
		 LEFT JOIN gifts g ON g.list_id = l.id
		 LEFT JOIN gift_reservations r ON r.gift_id = g.id AND r.status = 'active'
		 LEFT JOIN gift_events e ON e.list_id = l.id AND e.event_type = 'viewed'`+
			where+` GROUP BY l.id ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("exploring lists: %w", err)
	}
	defer rows.Close()

	var lists []ExploreList
	for rows.Next() {
		var el ExploreList
		var description sql.NullString
		if err := rows.Scan(&el.ID, &el.UserID, &el.Title, &description, &el.EventDate,
			&el.Privacy, &el.Status, &el.Slug, &el.CreatedAt, &el.UpdatedAt,
			&el.Owner, &el.GiftCount, &el.ReservationCount, &el.ViewCount); err != nil {
			return nil, 0, fmt.Errorf("scanning public list: %w", err)
		}
		el.Description = description.String
		lists = append(lists, el)
	}
	return lists, total, rows.Err()
}
