package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/darila/internal/store"
)

// StatsHandler serves reservation analytics to list owners, read from the
// audit/reservation tables.
type StatsHandler struct {
	DB *sql.DB
}

// Reservations handles GET /api/stats/reservations. An optional list_id
// limits the aggregate to one of the caller's lists.
func (h *StatsHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var listID int64
	if raw := r.URL.Query().Get("list_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid list_id")
			return
		}

		list, err := store.GetList(r.Context(), h.DB, id)
		if err != nil {
			storeError(w, err)
			return
		}
		if list == nil || list.UserID != claims.UserID {
			jsonError(w, http.StatusForbidden, "not your list")
			return
		}
		listID = id
	}

	stats, err := store.GetReservationStats(r.Context(), h.DB, claims.UserID, listID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Popular handles GET /api/stats/popular.
func (h *StatsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	gifts, err := store.GetPopularGifts(r.Context(), h.DB, claims.UserID, limit)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, gifts)
}
