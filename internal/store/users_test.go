package store

import (
	"context"
	"testing"

	"github.com/erazemk/darila/internal/db"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Maja", "maja@example.com", "hash123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Name != "Maja" {
		t.Errorf("expected name 'Maja', got %q", user.Name)
	}
	if user.Email != "maja@example.com" {
		t.Errorf("expected email 'maja@example.com', got %q", user.Email)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Maja" {
		t.Errorf("expected name 'Maja', got %q", got.Name)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "Maja", "maja@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "Other", "maja@example.com", "hash"); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "Ana", "ana@example.com", "hash")

	user, err := GetUserByEmail(ctx, database, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Name != "Ana" {
		t.Errorf("expected 'Ana', got %q", user.Name)
	}

	missing, err := GetUserByEmail(ctx, database, "bojan@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Ana", "ana@example.com", "oldhash")
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}

func TestDeleteUserIsSoft(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "Ana", "ana@example.com", "hash")
	DeleteUser(ctx, database, user.ID)

	// Still fetchable so reservation history keeps its author.
	got, _ := GetUser(ctx, database, user.ID)
	if got == nil {
		t.Fatal("expected soft-deleted user to still be fetchable")
	}
	if got.DeletedAt == nil {
		t.Error("expected deleted_at to be set")
	}
}
