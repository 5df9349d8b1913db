package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/darila/internal/access"
	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/store"
)

// ListsHandler handles gift list endpoints.
type ListsHandler struct {
	DB     *sql.DB
	Grants *access.Grants
}

type listRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"` // RFC 3339, optional
	Privacy     string `json:"privacy"`
	Password    string `json:"password"` // required when privacy is "password"
}

type viewListRequest struct {
	Password string `json:"password"`
}

type listView struct {
	List          *model.List  `json:"list"`
	Owner         string       `json:"owner"`
	Gifts         []model.Gift `json:"gifts"`
	TotalGifts    int          `json:"total_gifts"`
	ReservedGifts int          `json:"reserved_gifts"`
}

func (req *listRequest) parse() (eventDate *time.Time, privacy string, err error) {
	privacy = req.Privacy
	if privacy == "" {
		privacy = model.PrivacyPrivate
	}
	if req.EventDate != "" {
		t, perr := time.Parse(time.RFC3339, req.EventDate)
		if perr != nil {
			return nil, "", perr
		}
		eventDate = &t
	}
	return eventDate, privacy, nil
}

// Create handles POST /api/lists.
func (h *ListsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eventDate, privacy, err := req.parse()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "event_date must be RFC 3339 format")
		return
	}

	passwordHash := ""
	if privacy == model.PrivacyPassword {
		if req.Password == "" {
			jsonError(w, http.StatusBadRequest, "password-protected lists need a password")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		passwordHash = string(hash)
	}

	list, err := store.CreateList(r.Context(), h.DB, claims.UserID, req.Title, req.Description, eventDate, privacy, passwordHash)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, list)
}

// List handles GET /api/lists (the caller's own lists).
func (h *ListsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	lists, err := store.ListsByOwner(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, lists)
}

// Get handles GET /api/lists/{id} (owner only).
func (h *ListsHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	gifts, err := store.ListGifts(r.Context(), h.DB, list.ID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"list": list, "gifts": gifts})
}

// Update handles PUT /api/lists/{id}.
func (h *ListsHandler) Update(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eventDate, privacy, err := req.parse()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "event_date must be RFC 3339 format")
		return
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		passwordHash = string(hash)
	}
	if privacy == model.PrivacyPassword && req.Password == "" && list.PasswordHash == "" {
		jsonError(w, http.StatusBadRequest, "password-protected lists need a password")
		return
	}

	if err := store.UpdateList(r.Context(), h.DB, list.ID, req.Title, req.Description, eventDate, privacy, passwordHash); err != nil {
		storeError(w, err)
		return
	}

	updated, err := store.GetList(r.Context(), h.DB, list.ID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Archive handles POST /api/lists/{id}/archive.
func (h *ListsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	status := model.ListStatusArchived
	if list.Status == model.ListStatusArchived {
		status = model.ListStatusActive
	}

	if err := store.SetListStatus(r.Context(), h.DB, list.ID, status); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": status})
}

// Events handles GET /api/lists/{id}/events: the list's audit trail,
// newest first (owner only).
func (h *ListsHandler) Events(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	events, err := store.ListEvents(r.Context(), h.DB, list.ID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// Explore handles GET /api/explore: browse and search public lists.
// Accepts q (substring search), sort (newest, popular, upcoming) and page.
func (h *ListsHandler) Explore(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	page := 1
	if raw := params.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	const perPage = 12
	lists, total, err := store.ExploreLists(r.Context(), h.DB, params.Get("q"), params.Get("sort"), perPage, (page-1)*perPage)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"lists":       lists,
		"total_lists": total,
		"page":        page,
		"total_pages": (total + perPage - 1) / perPage,
	})
}

// Delete handles DELETE /api/lists/{id}.
func (h *ListsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	if err := store.DeleteList(r.Context(), h.DB, list.ID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

// View handles GET and POST /api/l/{slug}: the public list view gated by the
// access policy. POST carries an optional password for protected lists.
func (h *ListsHandler) View(w http.ResponseWriter, r *http.Request) {
	list, err := store.GetListBySlug(r.Context(), h.DB, r.PathValue("slug"))
	if err != nil {
		storeError(w, err)
		return
	}
	if list == nil {
		jsonError(w, http.StatusNotFound, "list not found")
		return
	}

	password := ""
	if r.Method == http.MethodPost {
		var req viewListRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		password = req.Password
	}

	viewerID := callerID(r.Context())
	sessionID := GetSessionID(r.Context())

	switch access.CanView(list, viewerID, h.Grants, sessionID, password) {
	case access.Allow:
	case access.RequirePassword:
		jsonError(w, http.StatusUnauthorized, "password_required")
		return
	default:
		// Naming a wrong password reveals nothing: the password prompt
		// already told the viewer the list is protected. Private lists
		// stay a generic denial.
		if list.Privacy == model.PrivacyPassword && password != "" {
			jsonError(w, http.StatusForbidden, "incorrect password")
			return
		}
		jsonError(w, http.StatusForbidden, "access denied")
		return
	}

	owner, err := store.GetUser(r.Context(), h.DB, list.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	gifts, err := store.ListGifts(r.Context(), h.DB, list.ID)
	if err != nil {
		storeError(w, err)
		return
	}

	reserved := 0
	for _, g := range gifts {
		if g.Status == model.GiftStatusReserved {
			reserved++
		}
	}

	isOwner := viewerID != nil && *viewerID == list.UserID
	if !isOwner {
		// Best-effort audit of the view; never fails the read path.
		if err := store.RecordEvent(r.Context(), h.DB, 0, list.ID, viewerID, model.EventViewed, nil); err != nil {
			slog.Warn("failed to record view event", "list_id", list.ID, "error", err)
		}
	}

	view := listView{
		List:          list,
		Gifts:         gifts,
		TotalGifts:    len(gifts),
		ReservedGifts: reserved,
	}
	if owner != nil {
		view.Owner = owner.Name
	}
	jsonResponse(w, http.StatusOK, view)
}

// ownedList loads the list from the {id} path value and verifies the caller
// owns it. Writes the error response itself when it returns ok == false.
func (h *ListsHandler) ownedList(w http.ResponseWriter, r *http.Request) (*model.List, bool) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid list id")
		return nil, false
	}

	list, err := store.GetList(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return nil, false
	}
	if list == nil || list.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	if list.UserID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your list")
		return nil, false
	}
	return list, true
}
