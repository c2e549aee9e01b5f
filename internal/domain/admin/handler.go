package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/domain/user"
	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/errorhandler"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
	"github.com/sharespace/sharespace-api/internal/pkg/validator"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler handles admin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --- Listings ---

// ListListings handles GET /admin/listings?status=pending
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	status := listing.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = listing.StatusPending
	}
	if err := validator.ValidateVar(string(status), "listing_status"); err != nil {
		response.BadRequest(w, "Invalid listing status")
		return
	}
	page, limit := pagination(r)

	items, total, err := h.service.listings.ListByStatus(r.Context(), status, limit, response.Offset(page, limit))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*listing.ListingResponse, len(items))
	for i, l := range items {
		out[i] = listing.ResponseFromEntity(l, true)
	}
	response.WithMeta(w, out, response.NewMeta(total, page, limit))
}

// ApproveListing handles POST /admin/listings/{id}/approve
func (h *Handler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	l, err := h.service.ApproveListing(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, listing.ResponseFromEntity(l, true))
}

// RejectListing handles POST /admin/listings/{id}/reject
func (h *Handler) RejectListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	var req RejectListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	l, err := h.service.RejectListing(r.Context(), middleware.GetUserID(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, listing.ResponseFromEntity(l, true))
}

// HideListing handles POST /admin/listings/{id}/hide
func (h *Handler) HideListing(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, true)
}

// UnhideListing handles POST /admin/listings/{id}/unhide
func (h *Handler) UnhideListing(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, false)
}

func (h *Handler) setHidden(w http.ResponseWriter, r *http.Request, hidden bool) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	if err := h.service.SetListingHidden(r.Context(), middleware.GetUserID(r.Context()), id, hidden); err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"id": id, "is_hidden": hidden})
}

// --- Users ---

// BanUser handles POST /admin/users/{id}/ban
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// UnbanUser handles POST /admin/users/{id}/unban
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.SetUserBanned(r.Context(), middleware.GetUserID(r.Context()), userID, banned); err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"id": userID, "is_banned": banned})
}

// --- helpers ---

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, listing.ErrListingNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, listing.ErrInvalidTransition):
		response.Conflict(w, "Only pending listings can be moderated")
	case errors.Is(err, user.ErrUserNotFound), errors.Is(err, coin.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrCannotBanSelf), errors.Is(err, ErrCannotBanAdmin):
		response.Forbidden(w, err.Error())
	case errors.Is(err, coin.ErrTierNotFound):
		response.NotFound(w, "Pricing tier not found")
	case errors.Is(err, coin.ErrInvalidAmount):
		response.ValidationError(w, map[string]string{"amount": "Value must not be zero"})
	case errors.Is(err, coin.ErrInsufficientCoins):
		response.Conflict(w, "Adjustment would make the balance negative")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

func listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := listing.ParseID(r)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid listing ID")
		return 0, false
	}
	return id, true
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request) (page, limit int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page, limit
}
