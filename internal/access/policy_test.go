package access

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/darila/internal/model"
)

func passwordList(t *testing.T, ownerID int64, password string) *model.List {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return &model.List{ID: 1, UserID: ownerID, Privacy: model.PrivacyPassword, PasswordHash: string(hash)}
}

func TestCanViewPublic(t *testing.T) {
	list := &model.List{ID: 1, UserID: 1, Privacy: model.PrivacyPublic}

	if got := CanView(list, nil, nil, "", ""); got != Allow {
		t.Errorf("expected Allow for anonymous viewer, got %v", got)
	}
}

func TestCanViewPrivate(t *testing.T) {
	ownerID := int64(1)
	strangerID := int64(2)
	list := &model.List{ID: 1, UserID: ownerID, Privacy: model.PrivacyPrivate}

	if got := CanView(list, &ownerID, nil, "", ""); got != Allow {
		t.Errorf("expected Allow for owner, got %v", got)
	}
	if got := CanView(list, &strangerID, nil, "", ""); got != Deny {
		t.Errorf("expected Deny for other user, got %v", got)
	}
	if got := CanView(list, nil, nil, "", ""); got != Deny {
		t.Errorf("expected Deny for anonymous viewer, got %v", got)
	}
}

func TestCanViewPasswordFlow(t *testing.T) {
	list := passwordList(t, 1, "sesame")
	grants := NewGrants(time.Hour)

	// No password and no grant: the caller must prompt.
	if got := CanView(list, nil, grants, "sess", ""); got != RequirePassword {
		t.Errorf("expected RequirePassword, got %v", got)
	}

	// Wrong password: denied, and no grant is created.
	if got := CanView(list, nil, grants, "sess", "wrong"); got != Deny {
		t.Errorf("expected Deny for wrong password, got %v", got)
	}
	if grants.Has("sess", list.ID) {
		t.Error("expected no grant after a wrong password")
	}

	// Correct password: allowed, and the grant persists for the session.
	if got := CanView(list, nil, grants, "sess", "sesame"); got != Allow {
		t.Errorf("expected Allow for correct password, got %v", got)
	}
	if !grants.Has("sess", list.ID) {
		t.Error("expected a grant after the correct password")
	}

	// Subsequent visits need no password.
	if got := CanView(list, nil, grants, "sess", ""); got != Allow {
		t.Errorf("expected Allow via grant, got %v", got)
	}

	// The grant is session-scoped.
	if got := CanView(list, nil, grants, "other-sess", ""); got != RequirePassword {
		t.Errorf("expected RequirePassword for a different session, got %v", got)
	}
}

func TestCanViewOwnerBypassesPassword(t *testing.T) {
	ownerID := int64(1)
	list := passwordList(t, ownerID, "sesame")

	if got := CanView(list, &ownerID, nil, "", ""); got != Allow {
		t.Errorf("expected Allow for owner without password, got %v", got)
	}
}

func TestDecisionString(t *testing.T) {
	if Allow.String() != "allow" || RequirePassword.String() != "password_required" || Deny.String() != "deny" {
		t.Error("unexpected decision strings")
	}
}
