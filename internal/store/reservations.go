package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/darila/internal/model"
)

// ReserveParams carries the input for reserving a gift.
type ReserveParams struct {
	GiftID    int64
	UserID    *int64 // nil for guest reservers
	Name      string
	Email     string
	Message   string
	Anonymous bool
}

// Reserve claims an available gift in a single transaction: it transitions
// the gift to reserved, creates an active reservation, appends a reserved
// audit event, and (for non-anonymous reservers) writes a notification for
// the list owner. Either all of these commit or none do.
//
// The availability check is a guarded UPDATE inside the transaction, so the
// decision is always made against the current row state: of two concurrent
// callers exactly one wins and the other gets ErrConflict.
func Reserve(ctx context.Context, db *sql.DB, p ReserveParams) (*model.Reservation, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.UserID == nil && p.Name == "" {
		return nil, fmt.Errorf("%w: reserver name is required for guests", ErrInvalid)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Atomic status re-check + transition. Zero rows affected means the gift
	// is missing or no longer available.
	result, err := tx.ExecContext(ctx,
		`UPDATE gifts SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.GiftStatusReserved, p.GiftID, model.GiftStatusAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("updating gift status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking gift update: %w", err)
	}
	if affected == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM gifts WHERE id = ?`, p.GiftID).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: gift %d", ErrNotFound, p.GiftID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking gift: %w", err)
		}
		return nil, fmt.Errorf("%w: gift %d is already reserved", ErrConflict, p.GiftID)
	}

	var listID int64
	var giftTitle string
	err = tx.QueryRowContext(ctx,
		`SELECT list_id, title FROM gifts WHERE id = ?`, p.GiftID,
	).Scan(&listID, &giftTitle)
	if err != nil {
		return nil, fmt.Errorf("loading gift: %w", err)
	}

	var listOwner int64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM gift_lists WHERE id = ? AND deleted_at IS NULL`, listID,
	).Scan(&listOwner)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: list %d", ErrNotFound, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading list: %w", err)
	}

	// The supplied name is never stored for anonymous reservations.
	storedName := p.Name
	if p.Anonymous {
		storedName = model.AnonymousName
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO gift_reservations (gift_id, list_id, user_id, name, email, message, is_anonymous)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.GiftID, listID, p.UserID, storedName, p.Email, p.Message, p.Anonymous,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}
	reservationID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reservation id: %w", err)
	}

	err = RecordEvent(ctx, tx, p.GiftID, listID, p.UserID, model.EventReserved, map[string]any{
		"reservation_id": reservationID,
		"is_anonymous":   p.Anonymous,
	})
	if err != nil {
		return nil, err
	}

	if !p.Anonymous {
		err = insertNotification(ctx, tx, listOwner, model.NotifyGiftReserved,
			"Gift reserved",
			fmt.Sprintf("%s reserved the gift %q", storedName, giftTitle),
			map[string]any{"gift_id": p.GiftID, "list_id": listID, "reservation_id": reservationID},
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	return GetReservation(ctx, db, reservationID)
}

// CanCancel reports whether the caller may cancel an active reservation:
// the list owner always can, the original authenticated reserver can, and
// nobody else — a guest or anonymous reservation with no stored user identity
// can only be released by the owner.
func CanCancel(reservation *model.Reservation, callerID *int64, listOwner int64) bool {
	if callerID == nil {
		return false
	}
	if *callerID == listOwner {
		return true
	}
	return reservation.UserID != nil && *reservation.UserID == *callerID
}

// Unreserve releases a reserved gift in a single transaction: it cancels the
// active reservation (after an authorization check), transitions the gift
// back to available, appends an unreserved audit event, and notifies the list
// owner when the reserver released the gift themselves.
//
// If the gift is marked reserved but has no active reservation, the
// inconsistency is logged and the gift is released anyway so it does not stay
// stuck.
func Unreserve(ctx context.Context, db *sql.DB, giftID int64, callerID *int64, reason string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Atomic status re-check + transition, mirroring Reserve.
	result, err := tx.ExecContext(ctx,
		`UPDATE gifts SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.GiftStatusAvailable, giftID, model.GiftStatusReserved,
	)
	if err != nil {
		return fmt.Errorf("updating gift status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking gift update: %w", err)
	}
	if affected == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM gifts WHERE id = ?`, giftID).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: gift %d", ErrNotFound, giftID)
		}
		if err != nil {
			return fmt.Errorf("checking gift: %w", err)
		}
		return fmt.Errorf("%w: gift %d is not reserved", ErrConflict, giftID)
	}

	var listID int64
	var giftTitle string
	err = tx.QueryRowContext(ctx,
		`SELECT list_id, title FROM gifts WHERE id = ?`, giftID,
	).Scan(&listID, &giftTitle)
	if err != nil {
		return fmt.Errorf("loading gift: %w", err)
	}

	var listOwner int64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM gift_lists WHERE id = ? AND deleted_at IS NULL`, listID,
	).Scan(&listOwner)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: list %d", ErrNotFound, listID)
	}
	if err != nil {
		return fmt.Errorf("loading list: %w", err)
	}

	reservation, err := getActiveReservation(ctx, tx, giftID)
	if err != nil {
		return err
	}

	byReserver := false
	if reservation == nil {
		// Gift was marked reserved without an active reservation. Release it
		// anyway to restore the invariant.
		slog.Warn("inconsistency: reserved gift has no active reservation",
			"gift_id", giftID, "list_id", listID)
	} else {
		if !CanCancel(reservation, callerID, listOwner) {
			return fmt.Errorf("%w: not allowed to release this gift", ErrForbidden)
		}
		byReserver = reservation.UserID != nil && callerID != nil && *reservation.UserID == *callerID && *callerID != listOwner

		_, err = tx.ExecContext(ctx,
			`UPDATE gift_reservations
			 SET status = ?, cancellation_reason = ?, cancelled_at = CURRENT_TIMESTAMP, cancelled_by = ?
			 WHERE id = ?`,
			model.ReservationCancelled, reason, callerID, reservation.ID,
		)
		if err != nil {
			return fmt.Errorf("cancelling reservation: %w", err)
		}
	}

	details := map[string]any{"reason": reason}
	if reservation != nil {
		details["reservation_id"] = reservation.ID
		details["by_list_owner"] = callerID != nil && *callerID == listOwner
	}
	if err := RecordEvent(ctx, tx, giftID, listID, callerID, model.EventUnreserved, details); err != nil {
		return err
	}

	if byReserver {
		// The stored name is already "Anonymous" when anonymity was requested.
		err = insertNotification(ctx, tx, listOwner, model.NotifyGiftUnreserved,
			"Gift released",
			fmt.Sprintf("%s released the gift %q", reservation.Name, giftTitle),
			map[string]any{"gift_id": giftID, "list_id": listID, "reason": reason},
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing release: %w", err)
	}
	return nil
}

// GetReservation returns a reservation by ID.
func GetReservation(ctx context.Context, db *sql.DB, id int64) (*model.Reservation, error) {
	return scanReservation(db.QueryRowContext(ctx,
		`SELECT id, gift_id, list_id, user_id, name, email, message, is_anonymous,
		        status, reserved_at, cancellation_reason, cancelled_at, cancelled_by
		 FROM gift_reservations WHERE id = ?`, id,
	))
}

// GetActiveReservation returns the active reservation for a gift, or nil.
func GetActiveReservation(ctx context.Context, db *sql.DB, giftID int64) (*model.Reservation, error) {
	return getActiveReservation(ctx, db, giftID)
}

func getActiveReservation(ctx context.Context, q Querier, giftID int64) (*model.Reservation, error) {
	r, err := scanReservation(q.QueryRowContext(ctx,
		`SELECT id, gift_id, list_id, user_id, name, email, message, is_anonymous,
		        status, reserved_at, cancellation_reason, cancelled_at, cancelled_by
		 FROM gift_reservations WHERE gift_id = ? AND status = ?`,
		giftID, model.ReservationActive,
	))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReservations returns all reservations for a gift, newest first,
// including cancelled ones (history is preserved, never overwritten).
func ListReservations(ctx context.Context, db *sql.DB, giftID int64) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, gift_id, list_id, user_id, name, email, message, is_anonymous,
		        status, reserved_at, cancellation_reason, cancelled_at, cancelled_by
		 FROM gift_reservations WHERE gift_id = ? ORDER BY reserved_at DESC, id DESC`, giftID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		var email, message, reason sql.NullString
		if err := rows.Scan(&r.ID, &r.GiftID, &r.ListID, &r.UserID, &r.Name, &email, &message,
			&r.Anonymous, &r.Status, &r.ReservedAt, &reason, &r.CancelledAt, &r.CancelledBy); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		r.Email = email.String
		r.Message = message.String
		r.CancellationReason = reason.String
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	r := &model.Reservation{}
	var email, message, reason sql.NullString
	err := row.Scan(&r.ID, &r.GiftID, &r.ListID, &r.UserID, &r.Name, &email, &message,
		&r.Anonymous, &r.Status, &r.ReservedAt, &reason, &r.CancelledAt, &r.CancelledBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	r.Email = email.String
	r.Message = message.String
	r.CancellationReason = reason.String
	return r, nil
}
