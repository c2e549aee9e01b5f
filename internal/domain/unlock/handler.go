package unlock

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sharespace/sharespace-api/internal/domain/coin"
	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/errorhandler"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler handles unlock HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates unlock handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UnlockedListingResponse is one entry of GET /unlocks
type UnlockedListingResponse struct {
	UnlockedAt time.Time                `json:"unlocked_at"`
	CoinsSpent int64                    `json:"coins_spent"`
	Listing    *listing.ListingResponse `json:"listing"`
}

// Unlock handles POST /listings/{id}/unlock
// @Summary Unlock listing contacts
// @Tags Unlock
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400,404,409,500 {object} response.Response
// @Router /listings/{id}/unlock [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	id, err := listing.ParseID(r)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	result, err := h.service.Unlock(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrListingNotFound):
			response.NotFound(w, "Listing not found")
		case errors.Is(err, coin.ErrInsufficientCoins):
			response.Error(w, http.StatusConflict, "INSUFFICIENT_COINS",
				"Not enough coins, "+strconv.FormatInt(h.service.Cost(), 10)+" required")
		case errors.Is(err, coin.ErrUserNotFound):
			response.Unauthorized(w, "User not found")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		}
		return
	}
	response.OK(w, result)
}

// ListMine handles GET /unlocks
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	items, total, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()), limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load unlocks", err)
		return
	}

	out := make([]UnlockedListingResponse, len(items))
	for i, item := range items {
		out[i] = UnlockedListingResponse{
			UnlockedAt: item.Unlock.CreatedAt,
			CoinsSpent: item.Unlock.CoinsSpent,
			Listing:    listing.ResponseFromEntity(item.Listing, true),
		}
	}
	response.WithMeta(w, out, response.NewMeta(total, page, limit))
}

// Routes returns the /unlocks router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.ListMine)
	return r
}
