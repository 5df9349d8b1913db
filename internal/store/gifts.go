package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/darila/internal/model"
)

// GiftParams carries the editable fields of a gift.
type GiftParams struct {
	Title       string
	Description string
	Price       *float64
	URL         string
	Category    string
	Priority    string
}

func validateGiftParams(p *GiftParams) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	switch p.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, p.Priority)
	}
	return nil
}

// CreateGift adds a gift to a list. New gifts start available. The gift row
// and its created event commit together.
func CreateGift(ctx context.Context, db *sql.DB, listID int64, userID *int64, p GiftParams) (*model.Gift, error) {
	if err := validateGiftParams(&p); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO gifts (list_id, title, description, price, url, category, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		listID, p.Title, p.Description, p.Price, p.URL, p.Category, p.Priority,
	)
	if err != nil {
		return nil, fmt.Errorf("creating gift: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting gift id: %w", err)
	}

	if err := RecordEvent(ctx, tx, id, listID, userID, model.EventCreated, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing gift: %w", err)
	}

	return GetGift(ctx, db, id)
}

// GetGift returns a gift by ID.
func GetGift(ctx context.Context, db *sql.DB, id int64) (*model.Gift, error) {
	g := &model.Gift{}
	var description, url, imageMime, category sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, list_id, title, description, price, url, image_mime, category,
		        priority, status, created_at, updated_at
		 FROM gifts WHERE id = ?`, id,
	).Scan(&g.ID, &g.ListID, &g.Title, &description, &g.Price, &url, &imageMime,
		&category, &g.Priority, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting gift: %w", err)
	}
	g.Description = description.String
	g.URL = url.String
	g.ImageMime = imageMime.String
	g.Category = category.String
	return g, nil
}

// ListGifts returns a list's gifts ordered by priority then recency, each
// joined with its active reservation (if any).
func ListGifts(ctx context.Context, db *sql.DB, listID int64) ([]model.Gift, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT g.id, g.list_id, g.title, g.description, g.price, g.url, g.image_mime,
		        g.category, g.priority, g.status, g.created_at, g.updated_at,
		        r.id, r.user_id, r.name, r.is_anonymous, r.reserved_at
		 FROM gifts g
		 LEFT JOIN gift_reservations r ON r.gift_id = g.id AND r.status = 'active'
		 WHERE g.list_id = ?
		 ORDER BY CASE g.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
		          g.created_at DESC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	defer rows.Close()

	var gifts []model.Gift
	for rows.Next() {
		var g model.Gift
		var description, url, imageMime, category sql.NullString
		var resID sql.NullInt64
		var resUserID sql.NullInt64
		var resName sql.NullString
		var resAnonymous sql.NullBool
		var resReservedAt sql.NullTime
		if err := rows.Scan(&g.ID, &g.ListID, &g.Title, &description, &g.Price, &url, &imageMime,
			&category, &g.Priority, &g.Status, &g.CreatedAt, &g.UpdatedAt,
			&resID, &resUserID, &resName, &resAnonymous, &resReservedAt); err != nil {
			return nil, fmt.Errorf("scanning gift: %w", err)
		}
		g.Description = description.String
		g.URL = url.String
		g.ImageMime = imageMime.String
		g.Category = category.String
		if resID.Valid {
			g.Reservation = &model.Reservation{
				ID:         resID.Int64,
				GiftID:     g.ID,
				ListID:     g.ListID,
				Name:       resName.String,
				Anonymous:  resAnonymous.Bool,
				Status:     model.ReservationActive,
				ReservedAt: resReservedAt.Time,
			}
			if resUserID.Valid {
				uid := resUserID.Int64
				g.Reservation.UserID = &uid
			}
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

// UpdateGift updates a gift's metadata. Status is owned by the reservation
// state machine and cannot be set here. The update and its updated event
// commit together.
func UpdateGift(ctx context.Context, db *sql.DB, id int64, userID *int64, p GiftParams) error {
	if err := validateGiftParams(&p); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE gifts SET title = ?, description = ?, price = ?, url = ?, category = ?,
		        priority = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Title, p.Description, p.Price, p.URL, p.Category, p.Priority, id,
	)
	if err != nil {
		return fmt.Errorf("updating gift: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: gift %d", ErrNotFound, id)
	}

	var listID int64
	if err := tx.QueryRowContext(ctx, `SELECT list_id FROM gifts WHERE id = ?`, id).Scan(&listID); err != nil {
		return fmt.Errorf("loading gift: %w", err)
	}

	if err := RecordEvent(ctx, tx, id, listID, userID, model.EventUpdated, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing gift update: %w", err)
	}
	return nil
}

// DeleteGift removes a gift and its reservation history.
func DeleteGift(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gift_reservations WHERE gift_id = ?`, id); err != nil {
		return fmt.Errorf("deleting reservations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM gifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting gift: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: gift %d", ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing gift delete: %w", err)
	}
	return nil
}

// SetGiftImage sets a gift's image data.
func SetGiftImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE gifts SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting gift image: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: gift %d", ErrNotFound, id)
	}
	return nil
}

// GetGiftImage returns a gift's image data and MIME type.
func GetGiftImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM gifts WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting gift image: %w", err)
	}
	return image, mime.String, nil
}
