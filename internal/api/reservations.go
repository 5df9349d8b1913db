package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/store"
)

// ReservationsHandler handles the reserve/unreserve endpoints. Both accept
// guests, so authentication is optional and CSRF is enforced by middleware.
type ReservationsHandler struct {
	DB *sql.DB
}

type reserveRequest struct {
	ReserverName  string `json:"reserver_name"`
	ReserverEmail string `json:"reserver_email"`
	Message       string `json:"message"`
	Anonymous     bool   `json:"anonymous"`
}

type unreserveRequest struct {
	Reason string `json:"reason"`
}

// Reserve handles POST /api/gifts/{id}/reserve.
func (h *ReservationsHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	giftID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gift id")
		return
	}

	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := store.ReserveParams{
		GiftID:    giftID,
		Name:      strings.TrimSpace(req.ReserverName),
		Email:     strings.TrimSpace(req.ReserverEmail),
		Message:   req.Message,
		Anonymous: req.Anonymous,
	}

	// Authenticated callers fall back to their account name and email.
	if claims := GetClaims(r.Context()); claims != nil {
		id := claims.UserID
		params.UserID = &id
		if params.Name == "" {
			params.Name = claims.Name
		}
		if params.Email == "" {
			params.Email = claims.Email
		}
	}

	reservation, err := store.Reserve(r.Context(), h.DB, params)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success":        true,
		"reservation_id": reservation.ID,
		"gift_id":        giftID,
		"status":         model.GiftStatusReserved,
	})
}

// Unreserve handles POST /api/gifts/{id}/unreserve.
func (h *ReservationsHandler) Unreserve(w http.ResponseWriter, r *http.Request) {
	giftID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gift id")
		return
	}

	var req unreserveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.Unreserve(r.Context(), h.DB, giftID, callerID(r.Context()), req.Reason); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"gift_id": giftID,
		"status":  model.GiftStatusAvailable,
	})
}
