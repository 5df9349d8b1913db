package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/darila/internal/db"
	"github.com/erazemk/darila/internal/model"
)

func TestCreateAndGetGift(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, listID, _ := seedGift(t, database)

	price := 49.99
	gift, err := CreateGift(ctx, database, listID, &ownerID, GiftParams{
		Title:       "Board game",
		Description: "Cooperative one",
		Price:       &price,
		URL:         "https://example.com/game",
		Category:    "games",
		Priority:    model.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateGift: %v", err)
	}
	if gift.Status != model.GiftStatusAvailable {
		t.Errorf("expected status 'available', got %q", gift.Status)
	}
	if gift.Priority != model.PriorityHigh {
		t.Errorf("expected priority 'high', got %q", gift.Priority)
	}
	if gift.Price == nil || *gift.Price != 49.99 {
		t.Errorf("expected price 49.99, got %v", gift.Price)
	}
}

func TestCreateGiftValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, listID, _ := seedGift(t, database)

	if _, err := CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: " "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for blank title, got %v", err)
	}
	if _, err := CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: "X", Priority: "urgent"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown priority, got %v", err)
	}

	// Priority defaults to medium.
	gift, err := CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: "Socks"})
	if err != nil {
		t.Fatalf("CreateGift: %v", err)
	}
	if gift.Priority != model.PriorityMedium {
		t.Errorf("expected default priority 'medium', got %q", gift.Priority)
	}
}

func TestCreateGiftRollsBackWhenEventFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, listID, _ := seedGift(t, database)

	// Break the audit table so recording the created event fails.
	if _, err := database.Exec(`DROP TABLE gift_events`); err != nil {
		t.Fatalf("dropping gift_events: %v", err)
	}

	if _, err := CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: "Camera"}); err == nil {
		t.Fatal("expected CreateGift to fail without its event")
	}

	var count int
	database.QueryRow(`SELECT COUNT(*) FROM gifts WHERE title = 'Camera'`).Scan(&count)
	if count != 0 {
		t.Errorf("expected no gift row without its created event, got %d", count)
	}
}

func TestUpdateGiftRollsBackWhenEventFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	if _, err := database.Exec(`DROP TABLE gift_events`); err != nil {
		t.Fatalf("dropping gift_events: %v", err)
	}

	if err := UpdateGift(ctx, database, giftID, &ownerID, GiftParams{Title: "Renamed"}); err == nil {
		t.Fatal("expected UpdateGift to fail without its event")
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift.Title != "Headphones" {
		t.Errorf("expected title unchanged without its updated event, got %q", gift.Title)
	}
}

func TestListGiftsOrderAndReservation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, listID, giftID := seedGift(t, database)

	high, _ := CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: "Camera", Priority: model.PriorityHigh})
	CreateGift(ctx, database, listID, &ownerID, GiftParams{Title: "Socks", Priority: model.PriorityLow})

	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Ana"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	gifts, err := ListGifts(ctx, database, listID)
	if err != nil {
		t.Fatalf("ListGifts: %v", err)
	}
	if len(gifts) != 3 {
		t.Fatalf("expected 3 gifts, got %d", len(gifts))
	}
	if gifts[0].ID != high.ID {
		t.Errorf("expected high-priority gift first, got %q", gifts[0].Title)
	}

	var reserved *model.Gift
	for i := range gifts {
		if gifts[i].ID == giftID {
			reserved = &gifts[i]
		}
	}
	if reserved == nil || reserved.Reservation == nil {
		t.Fatal("expected reserved gift joined with its active reservation")
	}
	if reserved.Reservation.Name != "Ana" {
		t.Errorf("expected reserver 'Ana', got %q", reserved.Reservation.Name)
	}
}

func TestUpdateGiftDoesNotTouchStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ownerID, _, giftID := seedGift(t, database)

	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Ana"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := UpdateGift(ctx, database, giftID, &ownerID, GiftParams{Title: "Better headphones"}); err != nil {
		t.Fatalf("UpdateGift: %v", err)
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift.Title != "Better headphones" {
		t.Errorf("expected updated title, got %q", gift.Title)
	}
	if gift.Status != model.GiftStatusReserved {
		t.Errorf("expected status untouched by update, got %q", gift.Status)
	}

	if err := UpdateGift(ctx, database, 9999, &ownerID, GiftParams{Title: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteGiftRemovesHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	if _, err := Reserve(ctx, database, ReserveParams{GiftID: giftID, Name: "Ana"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := DeleteGift(ctx, database, giftID); err != nil {
		t.Fatalf("DeleteGift: %v", err)
	}

	gift, _ := GetGift(ctx, database, giftID)
	if gift != nil {
		t.Error("expected gift to be gone")
	}
	reservations, _ := ListReservations(ctx, database, giftID)
	if len(reservations) != 0 {
		t.Errorf("expected reservations removed with the gift, got %d", len(reservations))
	}
}

func TestGiftImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	_, _, giftID := seedGift(t, database)

	imageData := []byte("fake image data")
	if err := SetGiftImage(ctx, database, giftID, imageData, "image/jpeg"); err != nil {
		t.Fatalf("SetGiftImage: %v", err)
	}

	data, mime, err := GetGiftImage(ctx, database, giftID)
	if err != nil {
		t.Fatalf("GetGiftImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}
}
