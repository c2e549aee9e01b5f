package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sharespace/sharespace-api/internal/middleware"
	"github.com/sharespace/sharespace-api/internal/pkg/errorhandler"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
	"github.com/sharespace/sharespace-api/internal/pkg/storage"
	"github.com/sharespace/sharespace-api/internal/pkg/validator"
)

// maxUploadMemory bounds multipart parsing
const maxUploadMemory = 12 << 20

// Handler handles listing HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates listing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /listings
// @Summary Create listing
// @Tags Listing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateListingRequest true "Listing"
// @Success 201 {object} response.Response{data=ListingResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /listings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	l, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, ResponseFromEntity(l, true))
}

// GetByID handles GET /listings/{id}
// @Summary Listing details
// @Tags Listing
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} response.Response{data=ListingResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /listings/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var viewer *Viewer
	if userID := middleware.GetUserID(r.Context()); userID != uuid.Nil {
		viewer = &Viewer{UserID: userID, IsAdmin: middleware.IsAdmin(r.Context())}
	}

	resp, err := h.service.GetByID(r.Context(), id, viewer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, resp)
}

// Update handles PUT /listings/{id}
// @Summary Update listing
// @Tags Listing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body UpdateListingRequest true "Changes"
// @Success 200 {object} response.Response{data=ListingResponse}
// @Failure 400,403,404,422,500 {object} response.Response
// @Router /listings/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	l, err := h.service.Update(r.Context(), id, middleware.GetUserID(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, ResponseFromEntity(l, true))
}

// Submit handles POST /listings/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Submit(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, ResponseFromEntity(l, true))
}

// Delete handles DELETE /listings/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// ListMy handles GET /listings/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]*ListingResponse, len(items))
	for i, l := range items {
		out[i] = ResponseFromEntity(l, true)
	}
	response.OK(w, out)
}

// UploadImage handles POST /listings/{id}/images (multipart field "file")
// @Summary Upload listing photo
// @Tags Listing
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param file formData file true "Image"
// @Success 201 {object} response.Response
// @Failure 400,403,404,409,503 {object} response.Response
// @Router /listings/{id}/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file")
		return
	}
	defer file.Close()

	url, err := h.service.UploadImage(r.Context(), id, middleware.GetUserID(r.Context()), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, map[string]string{"url": url})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrListingNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, ErrNotListingOwner):
		response.Forbidden(w, "You can only modify your own listings")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "Listing status does not allow this action")
	case errors.Is(err, ErrInvalidPriceRange):
		response.ValidationError(w, map[string]string{"price_min": "Must not exceed price_max"})
	case errors.Is(err, ErrTooManyImages):
		response.Conflict(w, "Listing already has the maximum number of images")
	case errors.Is(err, ErrStorageUnavailable):
		response.ServiceUnavailable(w, "File uploads are disabled")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.BadRequest(w, "File is too large")
	case errors.Is(err, storage.ErrInvalidMimeType), errors.Is(err, storage.ErrEmptyFile):
		response.BadRequest(w, "Unsupported image")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

// ParseID reads the {id} URL parameter
func ParseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := ParseID(r)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid listing ID")
		return 0, false
	}
	return id, true
}
