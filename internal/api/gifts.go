package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/darila/internal/imaging"
	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/store"
)

// maxImageUpload limits gift image uploads to 10 MiB before processing.
const maxImageUpload = 10 << 20

// GiftsHandler handles gift CRUD endpoints (owner only).
type GiftsHandler struct {
	DB *sql.DB
}

type giftRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	URL         string   `json:"url"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
}

func (req *giftRequest) params() store.GiftParams {
	return store.GiftParams{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		URL:         req.URL,
		Category:    req.Category,
		Priority:    req.Priority,
	}
}

// Create handles POST /api/lists/{id}/gifts.
func (h *GiftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	listID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := store.GetList(r.Context(), h.DB, listID)
	if err != nil {
		storeError(w, err)
		return
	}
	if list == nil || list.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "list not found")
		return
	}
	if list.UserID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your list")
		return
	}

	var req giftRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := claims.UserID
	gift, err := store.CreateGift(r.Context(), h.DB, listID, &userID, req.params())
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, gift)
}

// Update handles PUT /api/gifts/{id}.
func (h *GiftsHandler) Update(w http.ResponseWriter, r *http.Request) {
	gift, ok := h.ownedGift(w, r)
	if !ok {
		return
	}

	var req giftRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := GetClaims(r.Context()).UserID
	if err := store.UpdateGift(r.Context(), h.DB, gift.ID, &userID, req.params()); err != nil {
		storeError(w, err)
		return
	}

	updated, err := store.GetGift(r.Context(), h.DB, gift.ID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/gifts/{id}.
func (h *GiftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gift, ok := h.ownedGift(w, r)
	if !ok {
		return
	}

	if err := store.DeleteGift(r.Context(), h.DB, gift.ID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

// UploadImage handles PUT /api/gifts/{id}/image.
func (h *GiftsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	gift, ok := h.ownedGift(w, r)
	if !ok {
		return
	}

	result, err := imaging.Process(http.MaxBytesReader(w, r.Body, maxImageUpload))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetGiftImage(r.Context(), h.DB, gift.ID, result.Data, result.MIME); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
}

// GetImage handles GET /api/gifts/{id}/image (public, images are only
// reachable through a viewable list anyway).
func (h *GiftsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gift id")
		return
	}

	data, mime, err := store.GetGiftImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// ownedGift loads the gift from the {id} path value and verifies the caller
// owns its list. Writes the error response itself when it returns ok == false.
func (h *GiftsHandler) ownedGift(w http.ResponseWriter, r *http.Request) (*model.Gift, bool) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gift id")
		return nil, false
	}

	gift, err := store.GetGift(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return nil, false
	}
	if gift == nil {
		jsonError(w, http.StatusNotFound, "gift not found")
		return nil, false
	}

	list, err := store.GetList(r.Context(), h.DB, gift.ListID)
	if err != nil {
		storeError(w, err)
		return nil, false
	}
	if list == nil || list.UserID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your gift")
		return nil, false
	}
	return gift, true
}
