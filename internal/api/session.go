package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	sessionCookie = "viewer_session"
	csrfCookie    = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

const sessionKey contextKey = "session"

// SessionMiddleware gives every visitor a stable session ID and a CSRF token,
// both as cookies. The session ID keys password-list access grants; the CSRF
// token must be echoed in a header on state-changing guest endpoints
// (double-submit check).
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			sessionID = cookie.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   86400, // 24 hours, matches the grant TTL
			})
		}

		if _, err := r.Cookie(csrfCookie); err != nil {
			// Readable by scripts so clients can echo it in the header.
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookie,
				Value:    uuid.NewString(),
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
				MaxAge:   86400,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID retrieves the viewer session ID from the context.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// CSRFMiddleware enforces the double-submit token on state-changing
// endpoints: the X-CSRF-Token header must match the csrf_token cookie.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrfCookie)
		if err != nil || cookie.Value == "" {
			jsonError(w, http.StatusForbidden, "missing CSRF token")
			return
		}
		header := r.Header.Get(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			jsonError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
