package search

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/pkg/errorhandler"
	"github.com/sharespace/sharespace-api/internal/pkg/response"
)

// Handler serves the listing search endpoint
type Handler struct {
	service *Service
}

// NewHandler creates search handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SearchResponse is the payload of a search
type SearchResponse struct {
	Listings []*listing.ListingResponse `json:"listings"`
	Total    int                        `json:"total"`
}

// Search handles GET /listings/search
// @Summary Search listings
// @Tags Search
// @Produce json
// @Param geoSystem query string false "old (default) or new"
// @Param province query string true "Province"
// @Param districts query string false "Comma separated districts"
// @Param wards query string false "Comma separated wards (required for new)"
// @Param q query string false "Free text"
// @Param priceMin query int false "Lower price bound"
// @Param priceMax query int false "Upper price bound"
// @Param sessions query string false "Comma separated session labels"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param allResults query bool false "Disable pagination"
// @Success 200 {object} response.Response{data=SearchResponse}
// @Failure 400,500 {object} response.Response
// @Router /listings/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.Search(r.Context(), spec)
	if err != nil {
		switch {
		case errors.Is(err, ErrProvinceRequired),
			errors.Is(err, ErrWardRequired),
			errors.Is(err, ErrInvalidGeoSystem),
			errors.Is(err, ErrInvalidPriceRange):
			response.BadRequest(w, err.Error())
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SEARCH_FAILED", "Search is temporarily unavailable", err)
		}
		return
	}

	cards := make([]*listing.ListingResponse, len(result.Listings))
	for i, l := range result.Listings {
		cards[i] = listing.CardFromEntity(l)
	}

	page, size := spec.window()
	if spec.AllResults {
		page, size = 1, max(result.Total, 1)
	}
	response.WithMeta(w, SearchResponse{Listings: cards, Total: result.Total}, response.NewMeta(result.Total, page, size))
}

// ParseFilterSpec reads a FilterSpec from query parameters. Multi-valued
// filters are comma separated; an empty geoSystem means old.
func ParseFilterSpec(q url.Values) (FilterSpec, error) {
	spec := FilterSpec{
		GeoSystem:      GeoSystem(strings.TrimSpace(q.Get("geoSystem"))),
		Province:       strings.TrimSpace(q.Get("province")),
		Districts:      splitList(q.Get("districts")),
		Wards:          splitList(q.Get("wards")),
		Query:          q.Get("q"),
		SpaceTypes:     splitList(q.Get("spaceTypes")),
		LocationTypes:  splitList(q.Get("locationTypes")),
		SuitableFor:    splitList(q.Get("suitableFor")),
		NotSuitableFor: splitList(q.Get("notSuitableFor")),
		Amenities:      splitList(q.Get("amenities")),
		NearbyFeatures: splitList(q.Get("nearbyFeatures")),
		Sessions:       splitList(q.Get("sessions")),
	}
	if spec.GeoSystem == "" {
		spec.GeoSystem = GeoSystemOld
	}

	var err error
	if spec.PriceMin, err = parseOptionalInt(q, "priceMin"); err != nil {
		return spec, err
	}
	if spec.PriceMax, err = parseOptionalInt(q, "priceMax"); err != nil {
		return spec, err
	}
	if spec.Page, err = parseInt(q, "page"); err != nil {
		return spec, err
	}
	if spec.PageSize, err = parseInt(q, "pageSize"); err != nil {
		return spec, err
	}
	if v := q.Get("allResults"); v != "" {
		if spec.AllResults, err = strconv.ParseBool(v); err != nil {
			return spec, errors.New("allResults must be true or false")
		}
	}
	return spec, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOptionalInt(q url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &n, nil
}

func parseInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}
