package search

import (
	"context"
	"fmt"

	"github.com/sharespace/sharespace-api/internal/domain/listing"
)

// CandidateSource loads province-scoped candidates from the store
type CandidateSource interface {
	SearchCandidates(ctx context.Context, q listing.CandidateQuery) ([]*listing.Listing, error)
}

// Service runs validated searches against the store
type Service struct {
	source CandidateSource
	engine *Engine
}

// NewService creates search service
func NewService(source CandidateSource, engine *Engine) *Service {
	return &Service{source: source, engine: engine}
}

// Search validates spec, loads candidates and runs the engine
func (s *Service) Search(ctx context.Context, spec FilterSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	candidates, err := s.source.SearchCandidates(ctx, candidateQuery(spec))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.engine.Search(candidates, spec), nil
}

// candidateQuery keeps only the conditions the store evaluates exactly
func candidateQuery(spec FilterSpec) listing.CandidateQuery {
	return listing.CandidateQuery{
		GeoSystem:      string(spec.GeoSystem),
		Province:       spec.Province,
		Districts:      spec.Districts,
		Wards:          spec.Wards,
		SpaceTypes:     spec.SpaceTypes,
		LocationTypes:  spec.LocationTypes,
		NotSuitableFor: spec.NotSuitableFor,
		Amenities:      spec.Amenities,
		NearbyFeatures: spec.NearbyFeatures,
		PriceMin:       spec.PriceMin,
		PriceMax:       spec.PriceMax,
	}
}
