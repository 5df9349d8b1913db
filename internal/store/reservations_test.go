package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/darila/internal/db"
	"github.com/erazemk/darila/internal/model"
)

// seedGift creates an owner, a public list and one available gift, returning
// their IDs.
func seedGift(t *testing.T, database *sql.DB) (ownerID, listID, giftID int64) {
	t.Helper()
	ctx := context.Background()

	owner, err := CreateUser(ctx, database, "Maja", "maja@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	list, err := CreateList(ctx, database, owner.ID, "Birthday", "", nil, model.PrivacyPublic, "")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	gift, err := CreateGift(ctx, database, list.ID, &owner.ID, GiftParams{Title: "Headphones"})
	if err != nil {
		t.Fatalf("CreateGift: %v", err)
	}
	return owner.ID, list.ID, gift.ID
}

func TestReserveBasic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, listID, giftID := seedGift(t, database)

	reservation, err := Reserve(ctx, database, ReserveParams{
		GiftID: giftID,
		Name:   "Ana",
		Email:  "ana@example.com",
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reservation.Status != model.ReservationActive {
		t.Errorf("expected status 'active', got %q", reservation.Status)
	}
	if reservation.Name != "Ana" {
		t.Errorf("expected name 'Ana', got %q", reservation.Name)
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift.Status != model.GiftStatusReserved {
		t.Errorf("expected gift status 'reserved', got %q", gift.Status)
	}

	// The reservation and its audit event commit together.
	events, _ := ListEvents(ctx, database, listID)
	found := false
	for _, e := range events {
		if e.Type == model.EventReserved && e.GiftID == giftID {
			found = true
		}
	}
	if !found {
		t.Error("expected a reserved event for the gift")
	}

	// A non-anonymous reservation notifies the list owner.
	notifications, _ := ListNotifications(ctx, database, ownerID, false)
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if !strings.Contains(notifications[0].Message, "Ana") {
		t.Errorf("expected notification to name the reserver, got %q", notifications[0].Message)
	}
}

func TestReserveAnonymousHidesName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	reservation, err := Reserve(ctx, database, ReserveParams{
		GiftID:    giftID,
		Name:      "Bojan",
		Anonymous: true,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	// The supplied name is replaced before it is persisted, so no read path
	// can ever leak it.
	if reservation.Name != model.AnonymousName {
		t.Errorf("expected stored name %q, got %q", model.AnonymousName, reservation.Name)
	}
	var raw string
	database.QueryRow(`SELECT name FROM gift_reservations WHERE id = ?`, reservation.ID).Scan(&raw)
	if raw != model.AnonymousName {
		t.Errorf("expected %q in database, got %q", model.AnonymousName, raw)
	}

	// Anonymous reservations do not notify the owner.
	notifications, _ := ListNotifications(ctx, database, ownerID, false)
	if len(notifications) != 0 {
		t.Errorf("expected no notifications for anonymous reservation, got %d", len(notifications))
	}
}

func TestReserveConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Ana"}); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}

	_, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Bojan"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// The loser must leave no trace: exactly one reservation exists.
	reservations, _ := ListReservations(ctx, database, giftID)
	if len(reservations) != 1 {
		t.Errorf("expected 1 reservation, got %d", len(reservations))
	}
}

func TestReserveGuestNameRequired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	_, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "   "})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for blank guest name, got %v", err)
	}

	// The gift must still be available after the rejected attempt.
	gift, _ := GetGift(ctx, database, giftID)
	if gift.Status != model.GiftStatusAvailable {
		t.Errorf("expected gift to stay available, got %q", gift.Status)
	}
}

func TestReserveGiftNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seedGift(t, database)

	_, err := Reserve(ctx, database, ReserveParams{GiftID: 9999, Name: "Ana"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUnreserveByReserverNotifiesOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	reserver, _ := CreateUser(ctx, database, "Ana", "ana@example.com", "hash")
	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, UserID: &reserver.ID, Name: "Ana"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := Unreserve(ctx, database, giftID, &reserver.ID, "changed my mind"); err != nil {
		t.Fatalf("Unreserve: %v", err)
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift.Status != model.GiftStatusAvailable {
		t.Errorf("expected gift status 'available', got %q", gift.Status)
	}

	reservation, _ := GetActiveReservation(ctx, database, giftID)
	if reservation != nil {
		t.Error("expected no active reservation after release")
	}

	// One notification for the reserve, one for the release.
	notifications, _ := ListNotifications(ctx, database, ownerID, false)
	if len(notifications) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(notifications))
	}
}

func TestUnreserveByOwnerSkipsNotification(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Guest", Anonymous: true}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := Unreserve(ctx, database, giftID, &ownerID, "duplicate"); err != nil {
		t.Fatalf("Unreserve: %v", err)
	}

	// The owner released it themselves, so no release notification is written.
	notifications, _ := ListNotifications(ctx, database, ownerID, false)
	if len(notifications) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifications))
	}
}

func TestUnreserveForbiddenLeavesStateUnchanged(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	reserver, _ := CreateUser(ctx, database, "Ana", "ana@example.com", "hash")
	stranger, _ := CreateUser(ctx, database, "Cene", "cene@example.com", "hash")
	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, UserID: &reserver.ID, Name: "Ana"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	// Neither a different user nor a guest may release it.
	if err := Unreserve(ctx, database, giftID, &stranger.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for stranger, got %v", err)
	}
	if err := Unreserve(ctx, database, giftID, nil, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for guest, got %v", err)
	}

	// The failed attempts must roll back completely.
	gift, _ := GetGift(ctx, database, giftID)
	if gift.Status != model.GiftStatusReserved {
		t.Errorf("expected gift to stay reserved, got %q", gift.Status)
	}
	reservation, _ := GetActiveReservation(ctx, database, giftID)
	if reservation == nil || reservation.Status != model.ReservationActive {
		t.Error("expected reservation to stay active")
	}
}

func TestUnreserveNotReserved(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	if err := Unreserve(ctx, database, giftID, &ownerID, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for available gift, got %v", err)
	}
	if err := Unreserve(ctx, database, 9999, &ownerID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing gift, got %v", err)
	}
}

func TestUnreserveSelfHealing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	// Simulate a stuck gift: marked reserved with no active reservation.
	if _, err := database.Exec(`UPDATE gifts SET status = 'reserved' WHERE id = ?`, giftID); err != nil {
		t.Fatalf("corrupting gift: %v", err)
	}

	if err := Unreserve(ctx, database, giftID, &ownerID, ""); err != nil {
		t.Fatalf("Unreserve: %v", err)
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift.Status != model.GiftStatusAvailable {
		t.Errorf("expected gift released despite missing reservation, got %q", gift.Status)
	}
}

func TestReserveAgainAfterRelease(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	first, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Ana"})
	if err != nil {
		t.Fatalf("first Reserve: %v", err)
	}
	if err := Unreserve(ctx, database, giftID, &ownerID, "owner reset"); err != nil {
		t.Fatalf("Unreserve: %v", err)
	}
	second, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Bojan"})
	if err != nil {
		t.Fatalf("second Reserve: %v", err)
	}

	// History is preserved: the first reservation stays as a cancelled record.
	reservations, _ := ListReservations(ctx, database, giftID)
	if len(reservations) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(reservations))
	}

	cancelled, _ := GetReservation(ctx, database, first.ID)
	if cancelled.Status != model.ReservationCancelled {
		t.Errorf("expected first reservation cancelled, got %q", cancelled.Status)
	}
	if cancelled.CancellationReason != "owner reset" {
		t.Errorf("expected cancellation reason recorded, got %q", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt == nil {
		t.Error("expected cancelled_at to be set")
	}

	active, _ := GetActiveReservation(ctx, database, giftID)
	if active == nil || active.ID != second.ID {
		t.Error("expected the second reservation to be the active one")
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	// A file-backed database so concurrent goroutines get real separate
	// connections, as in production.
	database, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Racer"})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else if !errors.Is(err, ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}

	reservations, _ := ListReservations(ctx, database, giftID)
	if len(reservations) != 1 {
		t.Errorf("expected 1 reservation, got %d", len(reservations))
	}
}

func TestCanCancel(t *testing.T) {
	ownerID := int64(1)
	reserverID := int64(2)
	strangerID := int64(3)

	withUser := &model.Reservation{UserID: &reserverID}
	guest := &model.Reservation{}

	cases := []struct {
		name        string
		reservation *model.Reservation
		caller      *int64
		want        bool
	}{
		{"owner can always cancel", withUser, &ownerID, true},
		{"reserver can cancel own", withUser, &reserverID, true},
		{"stranger cannot cancel", withUser, &strangerID, false},
		{"guest caller cannot cancel", withUser, nil, false},
		{"only owner can cancel guest reservation", guest, &strangerID, false},
		{"owner can cancel guest reservation", guest, &ownerID, true},
	}

	for _, tc := range cases {
		if got := CanCancel(tc.reservation, tc.caller, ownerID); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
