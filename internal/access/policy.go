// Package access decides whether a viewer may see a gift list and tracks
// session-scoped grants for password-protected lists.
package access

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/darila/internal/model"
)

// Decision is the outcome of an access check.
type Decision int

const (
	// Deny means the viewer may not see the list. The caller must not reveal
	// whether the list exists beyond what the privacy mode already implies.
	Deny Decision = iota

	// Allow means the viewer may read the list and its gifts.
	Allow

	// RequirePassword means the caller must present the password-entry
	// affordance before the list can be shown.
	RequirePassword
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequirePassword:
		return "password_required"
	default:
		return "deny"
	}
}

// CanView evaluates the list's privacy mode against the viewer's identity,
// session grants, and an optionally supplied password, in this order:
// owners always see their own lists; public lists are open; password lists
// need a live grant or a correct password (which creates a grant); private
// lists are owner-only.
//
// CanView has no side effects on Deny or RequirePassword. A wrong password
// and a missing password both come back as Deny with no grant created, so
// the response does not distinguish them beyond the privacy mode itself.
func CanView(list *model.List, viewerID *int64, grants *Grants, sessionID, password string) Decision {
	if viewerID != nil && *viewerID == list.UserID {
		return Allow
	}

	switch list.Privacy {
	case model.PrivacyPublic:
		return Allow

	case model.PrivacyPassword:
		if grants != nil && sessionID != "" && grants.Has(sessionID, list.ID) {
			return Allow
		}
		if password != "" {
			// bcrypt compare is constant-time over the salted hash.
			if bcrypt.CompareHashAndPassword([]byte(list.PasswordHash), []byte(password)) == nil {
				if grants != nil && sessionID != "" {
					grants.Add(sessionID, list.ID)
				}
				return Allow
			}
			return Deny
		}
		return RequirePassword

	default:
		return Deny
	}
}
