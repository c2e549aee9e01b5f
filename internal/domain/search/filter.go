package search

import (
	"errors"
	"strings"
)

// GeoSystem selects which administrative division scheme a filter uses
type GeoSystem string

const (
	// GeoSystemOld is province + district
	GeoSystemOld GeoSystem = "old"
	// GeoSystemNew is province + ward
	GeoSystemNew GeoSystem = "new"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

var (
	ErrProvinceRequired  = errors.New("province is required")
	ErrWardRequired      = errors.New("at least one ward is required for the new geo system")
	ErrInvalidGeoSystem  = errors.New("geo system must be old or new")
	ErrInvalidPriceRange = errors.New("price bounds must be non-negative and min must not exceed max")
	ErrStoreUnavailable  = errors.New("listing store unavailable")
)

// FilterSpec describes a search request
type FilterSpec struct {
	GeoSystem GeoSystem
	Province  string
	Districts []string
	Wards     []string

	Query string

	SpaceTypes     []string
	LocationTypes  []string
	SuitableFor    []string
	NotSuitableFor []string
	Amenities      []string
	NearbyFeatures []string

	PriceMin *int64
	PriceMax *int64

	// Sessions holds user-facing labels such as "Buổi sáng"
	Sessions []string

	Page       int
	PageSize   int
	AllResults bool
}

// Validate rejects specs with missing mandatory geography or bad bounds
func (f *FilterSpec) Validate() error {
	if f.GeoSystem != GeoSystemOld && f.GeoSystem != GeoSystemNew {
		return ErrInvalidGeoSystem
	}
	if strings.TrimSpace(f.Province) == "" {
		return ErrProvinceRequired
	}
	if f.GeoSystem == GeoSystemNew && len(f.Wards) == 0 {
		return ErrWardRequired
	}
	if f.PriceMin != nil && *f.PriceMin < 0 || f.PriceMax != nil && *f.PriceMax < 0 {
		return ErrInvalidPriceRange
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return ErrInvalidPriceRange
	}
	return nil
}

// window returns the normalized page and page size
func (f *FilterSpec) window() (page, size int) {
	page, size = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
