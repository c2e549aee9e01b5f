package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sharespace/sharespace-api/internal/domain/listing"
	"github.com/sharespace/sharespace-api/internal/pkg/textnorm"
)

// sessionLabels maps user-facing labels to the session tokens stored in time slots
var sessionLabels = map[string]string{
	"Buổi sáng":  "Sáng",
	"Buổi trưa":  "Trưa",
	"Buổi chiều": "Chiều",
	"Buổi tối":   "Tối",
}

// Result is a page of matching listings
type Result struct {
	Listings []*listing.Listing
	// Total counts every match before pagination
	Total int
}

// Engine filters and ranks candidate listings in memory. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	// compacted label or token -> token
	sessions map[string]string
}

// NewEngine creates a search engine with the default session vocabulary
func NewEngine() *Engine {
	e := &Engine{sessions: make(map[string]string, len(sessionLabels)*2)}
	for label, token := range sessionLabels {
		e.sessions[textnorm.Compact(label)] = token
		e.sessions[textnorm.Compact(token)] = token
	}
	return e
}

type stringSet map[string]struct{}

func newSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) overlaps(values []string) bool {
	for _, v := range values {
		if _, ok := s[v]; ok {
			return true
		}
	}
	return false
}

// subsetOf reports whether every member of s appears in values
func (s stringSet) subsetOf(values []string) bool {
	if len(s) == 0 {
		return false
	}
	have := newSet(values)
	for v := range s {
		if _, ok := have[v]; !ok {
			return false
		}
	}
	return true
}

type compiledFilter struct {
	spec FilterSpec

	districts      stringSet
	wards          stringSet
	spaceTypes     stringSet
	locationTypes  stringSet
	suitableFor    stringSet
	notSuitableFor stringSet
	amenities      stringSet
	nearby         stringSet

	query string

	// sessionFilter is set when any session label was requested
	sessionFilter bool
	sessions      stringSet
}

func (e *Engine) compile(spec FilterSpec) *compiledFilter {
	c := &compiledFilter{
		spec:           spec,
		districts:      newSet(spec.Districts),
		wards:          newSet(spec.Wards),
		spaceTypes:     newSet(spec.SpaceTypes),
		locationTypes:  newSet(spec.LocationTypes),
		suitableFor:    newSet(spec.SuitableFor),
		notSuitableFor: newSet(spec.NotSuitableFor),
		amenities:      newSet(spec.Amenities),
		nearby:         newSet(spec.NearbyFeatures),
		query:          textnorm.Compact(spec.Query),
		sessionFilter:  len(spec.Sessions) > 0,
	}
	if c.sessionFilter {
		c.sessions = make(stringSet, len(spec.Sessions))
		for _, label := range spec.Sessions {
			if token, ok := e.sessions[textnorm.Compact(label)]; ok {
				c.sessions[textnorm.Compact(token)] = struct{}{}
			}
		}
	}
	return c
}

func (c *compiledFilter) matches(l *listing.Listing) bool {
	if l == nil || !l.IsPubliclyVisible() {
		return false
	}

	if c.spec.GeoSystem == GeoSystemNew {
		if l.NewProvince != c.spec.Province {
			return false
		}
		if _, ok := c.wards[l.NewWard]; !ok {
			return false
		}
	} else {
		if l.OldProvince != c.spec.Province {
			return false
		}
		if c.districts != nil {
			if _, ok := c.districts[l.OldDistrict]; !ok {
				return false
			}
		}
	}

	if c.notSuitableFor != nil && c.notSuitableFor.overlaps(l.NotSuitableFor) {
		return false
	}
	if c.suitableFor.subsetOf(l.NotSuitableFor) {
		return false
	}
	if c.spaceTypes != nil && !c.spaceTypes.overlaps(l.SpaceType) {
		return false
	}
	if c.locationTypes != nil {
		if _, ok := c.locationTypes[l.LocationType]; !ok {
			return false
		}
	}
	if c.amenities != nil && !c.amenities.overlaps(l.Amenities) {
		return false
	}
	if c.nearby != nil && !c.nearby.overlaps(l.NearbyFeatures) {
		return false
	}

	if c.spec.PriceMin != nil && l.PriceMax < *c.spec.PriceMin {
		return false
	}
	if c.spec.PriceMax != nil && l.PriceMin > *c.spec.PriceMax {
		return false
	}

	if c.query != "" && !c.matchesQuery(l) {
		return false
	}
	if c.sessionFilter && !c.matchesSession(l) {
		return false
	}
	return true
}

func (c *compiledFilter) matchesQuery(l *listing.Listing) bool {
	for _, field := range []string{l.Title, l.Description, l.Address} {
		if strings.Contains(textnorm.Compact(field), c.query) {
			return true
		}
	}
	return false
}

func (c *compiledFilter) matchesSession(l *listing.Listing) bool {
	for _, session := range l.Sessions() {
		if _, ok := c.sessions[textnorm.Compact(session)]; ok {
			return true
		}
	}
	return false
}

// Search filters candidates, orders them by ID descending with listings
// suited to the requested purposes first, and returns the requested page.
// candidates is never modified.
func (e *Engine) Search(candidates []*listing.Listing, spec FilterSpec) Result {
	c := e.compile(spec)

	matched := make([]*listing.Listing, 0, len(candidates))
	for _, l := range candidates {
		if c.matches(l) {
			matched = append(matched, l)
		}
	}

	slices.SortStableFunc(matched, func(a, b *listing.Listing) int {
		return cmp.Compare(b.ID, a.ID)
	})
	if c.suitableFor != nil {
		matched = boost(matched, func(l *listing.Listing) bool {
			return c.suitableFor.overlaps(l.SuitableFor)
		})
	}

	total := len(matched)
	if spec.AllResults {
		return Result{Listings: matched, Total: total}
	}

	page, size := spec.window()
	// compare page counts first so a huge page never overflows the offset
	if page-1 >= (total+size-1)/size {
		return Result{Listings: []*listing.Listing{}, Total: total}
	}
	start := (page - 1) * size
	end := min(start+size, total)
	return Result{Listings: matched[start:end], Total: total}
}

// boost is a stable partition: items satisfying pred keep their relative
// order and move ahead of the rest.
func boost(items []*listing.Listing, pred func(*listing.Listing) bool) []*listing.Listing {
	out := make([]*listing.Listing, 0, len(items))
	var rest []*listing.Listing
	for _, l := range items {
		if pred(l) {
			out = append(out, l)
		} else {
			rest = append(rest, l)
		}
	}
	return append(out, rest...)
}
