package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/darila/internal/model"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a list title into a URL-safe slug base.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "list"
	}
	return slug
}

// CreateList creates a gift list with a unique slug derived from its title.
// The list row and its created event commit together.
func CreateList(ctx context.Context, db *sql.DB, userID int64, title, description string, eventDate *time.Time, privacy, passwordHash string) (*model.List, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	switch privacy {
	case model.PrivacyPublic, model.PrivacyPrivate, model.PrivacyPassword:
	default:
		return nil, fmt.Errorf("%w: unknown privacy mode %q", ErrInvalid, privacy)
	}
	if privacy == model.PrivacyPassword && passwordHash == "" {
		return nil, fmt.Errorf("%w: password-protected lists need a password", ErrInvalid)
	}

	slug, err := uniqueSlug(ctx, db, Slugify(title))
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO gift_lists (user_id, title, description, event_date, privacy, password_hash, slug)
		 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
		userID, title, description, eventDate, privacy, passwordHash, slug,
	)
	if err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting list id: %w", err)
	}

	if err := RecordEvent(ctx, tx, 0, id, &userID, model.EventCreated, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing list: %w", err)
	}

	return GetList(ctx, db, id)
}

// uniqueSlug appends a short random suffix until the slug is free. The first
// attempt uses the bare base so typical lists get clean URLs.
func uniqueSlug(ctx context.Context, db *sql.DB, base string) (string, error) {
	slug := base
	for {
		var count int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM gift_lists WHERE slug = ?`, slug,
		).Scan(&count)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = base + "-" + uuid.NewString()[:8]
	}
}

// GetList returns a list by ID.
func GetList(ctx context.Context, db *sql.DB, id int64) (*model.List, error) {
	return scanList(db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, event_date, privacy, password_hash,
		        status, slug, created_at, updated_at, deleted_at
		 FROM gift_lists WHERE id = ?`, id,
	))
}

// GetListBySlug returns a non-deleted list by its public slug.
func GetListBySlug(ctx context.Context, db *sql.DB, slug string) (*model.List, error) {
	return scanList(db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, event_date, privacy, password_hash,
		        status, slug, created_at, updated_at, deleted_at
		 FROM gift_lists WHERE slug = ? AND deleted_at IS NULL`, slug,
	))
}

// ListsByOwner returns all non-deleted lists owned by a user.
func ListsByOwner(ctx context.Context, db *sql.DB, userID int64) ([]model.List, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, title, description, event_date, privacy, password_hash,
		        status, slug, created_at, updated_at, deleted_at
		 FROM gift_lists WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		l, err := scanListRow(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// UpdateList updates a list's metadata and privacy settings. An empty
// passwordHash keeps the existing verifier.
func UpdateList(ctx context.Context, db *sql.DB, id int64, title, description string, eventDate *time.Time, privacy, passwordHash string) error {
	switch privacy {
	case model.PrivacyPublic, model.PrivacyPrivate, model.PrivacyPassword:
	default:
		return fmt.Errorf("%w: unknown privacy mode %q", ErrInvalid, privacy)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE gift_lists
		 SET title = ?, description = ?, event_date = ?, privacy = ?,
		     password_hash = CASE WHEN ? != '' THEN ? ELSE password_hash END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		title, description, eventDate, privacy, passwordHash, passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating list: %w", err)
	}
	return nil
}

// SetListStatus archives or reactivates a list.
func SetListStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	if status != model.ListStatusActive && status != model.ListStatusArchived {
		return fmt.Errorf("%w: unknown list status %q", ErrInvalid, status)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE gift_lists SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("setting list status: %w", err)
	}
	return nil
}

// DeleteList soft-deletes a list.
func DeleteList(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE gift_lists SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting list: %w", err)
	}
	return nil
}

func scanList(row *sql.Row) (*model.List, error) {
	l := &model.List{}
	var description, passwordHash sql.NullString
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &description, &l.EventDate, &l.Privacy,
		&passwordHash, &l.Status, &l.Slug, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting list: %w", err)
	}
	l.Description = description.String
	l.PasswordHash = passwordHash.String
	return l, nil
}

func scanListRow(rows *sql.Rows) (*model.List, error) {
	l := &model.List{}
	var description, passwordHash sql.NullString
	err := rows.Scan(&l.ID, &l.UserID, &l.Title, &description, &l.EventDate, &l.Privacy,
		&passwordHash, &l.Status, &l.Slug, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning list: %w", err)
	}
	l.Description = description.String
	l.PasswordHash = passwordHash.String
	return l, nil
}
