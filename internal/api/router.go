package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/darila/internal/access"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, grants *access.Grants) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Grants: grants}
	listsHandler := &ListsHandler{DB: db, Grants: grants}
	giftsHandler := &GiftsHandler{DB: db}
	reservationsHandler := &ReservationsHandler{DB: db}
	notificationsHandler := &NotificationsHandler{DB: db}
	statsHandler := &StatsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuthMiddleware(jwtSecret, db)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("DELETE /api/auth/account", authMW(http.HandlerFunc(authHandler.DeleteAccount)))

	// Lists (owner).
	mux.Handle("GET /api/lists", authMW(http.HandlerFunc(listsHandler.List)))
	mux.Handle("POST /api/lists", authMW(http.HandlerFunc(listsHandler.Create)))
	mux.Handle("GET /api/lists/{id}", authMW(http.HandlerFunc(listsHandler.Get)))
	mux.Handle("PUT /api/lists/{id}", authMW(http.HandlerFunc(listsHandler.Update)))
	mux.Handle("DELETE /api/lists/{id}", authMW(http.HandlerFunc(listsHandler.Delete)))
	mux.Handle("POST /api/lists/{id}/archive", authMW(http.HandlerFunc(listsHandler.Archive)))
	mux.Handle("GET /api/lists/{id}/events", authMW(http.HandlerFunc(listsHandler.Events)))
	mux.Handle("POST /api/lists/{id}/gifts", authMW(http.HandlerFunc(giftsHandler.Create)))

	// Public list discovery.
	mux.HandleFunc("GET /api/explore", listsHandler.Explore)

	// Public list view by slug, gated by the access policy. POST carries the
	// password for protected lists.
	mux.Handle("GET /api/l/{slug}", optionalAuth(http.HandlerFunc(listsHandler.View)))
	mux.Handle("POST /api/l/{slug}", optionalAuth(http.HandlerFunc(listsHandler.View)))

	// Gifts (owner).
	mux.Handle("PUT /api/gifts/{id}", authMW(http.HandlerFunc(giftsHandler.Update)))
	mux.Handle("DELETE /api/gifts/{id}", authMW(http.HandlerFunc(giftsHandler.Delete)))
	mux.Handle("PUT /api/gifts/{id}/image", authMW(http.HandlerFunc(giftsHandler.UploadImage)))
	mux.HandleFunc("GET /api/gifts/{id}/image", giftsHandler.GetImage)

	// Reservations: open to guests, CSRF-guarded.
	mux.Handle("POST /api/gifts/{id}/reserve",
		optionalAuth(CSRFMiddleware(http.HandlerFunc(reservationsHandler.Reserve))))
	mux.Handle("POST /api/gifts/{id}/unreserve",
		optionalAuth(CSRFMiddleware(http.HandlerFunc(reservationsHandler.Unreserve))))

	// Notifications (owner inbox).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("PUT /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))

	// Analytics.
	mux.Handle("GET /api/stats/reservations", authMW(http.HandlerFunc(statsHandler.Reservations)))
	mux.Handle("GET /api/stats/popular", authMW(http.HandlerFunc(statsHandler.Popular)))

	return SessionMiddleware(mux)
}
