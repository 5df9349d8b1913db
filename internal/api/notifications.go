package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/darila/internal/store"
)

// NotificationsHandler handles the list owner's notification inbox.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications. ?unread=true filters to unread ones.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	onlyUnread := r.URL.Query().Get("unread") == "true"
	notifications, err := store.ListNotifications(r.Context(), h.DB, claims.UserID, onlyUnread)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// MarkRead handles PUT /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := store.MarkNotificationRead(r.Context(), h.DB, claims.UserID, id); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "marked read"})
}
