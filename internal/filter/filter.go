package filter

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/geo"
)

// predicate is one active criterion.
type predicate func(s *catalog.School) bool

// Apply returns the schools satisfying every active criterion, in catalog order.
// The input slice is never modified; returned schools are copies. When the
// criteria carry an origin, each copy's Distance is recomputed from it.
func Apply(schools []catalog.School, c Criteria) []catalog.School {
	preds := compile(c)
	out := make([]catalog.School, 0, len(schools))
	for _, school := range schools {
		s := school.Clone()
		if c.Origin != nil {
			s.Distance = geo.Round1(geo.DistanceKm(*c.Origin, geo.Point{Lat: s.Latitude, Lng: s.Longitude}))
		}
		if matchAll(preds, &s) {
			out = append(out, s)
		}
	}
	return out
}

func matchAll(preds []predicate, s *catalog.School) bool {
	for _, p := range preds {
		if !p(s) {
			return false
		}
	}
	return true
}

// compile turns the active criteria into predicates. Unknown fee buckets and
// class levels are treated as "All".
func compile(c Criteria) []predicate {
	var preds []predicate

	if !catalog.IsAll(c.Board) {
		board := c.Board
		preds = append(preds, func(s *catalog.School) bool { return s.Board == board })
	}
	if !catalog.IsAll(c.FeeRange) {
		if b, ok := catalog.FeeBucketByName(c.FeeRange); ok && b.ID != "all" {
			preds = append(preds, func(s *catalog.School) bool { return b.Contains(s.FeeMin) })
		}
	}
	if !catalog.IsAll(c.ClassLevel) {
		if l, ok := catalog.ClassLevelByName(c.ClassLevel); ok {
			preds = append(preds, func(s *catalog.School) bool { return s.Offers(l.Key) })
		}
	}
	if c.Hostel {
		preds = append(preds, func(s *catalog.School) bool { return s.Hostel })
	}
	if c.Transport {
		preds = append(preds, func(s *catalog.School) bool { return s.Transport })
	}
	if q := strings.TrimSpace(c.Query); q != "" {
		fold := cases.Fold()
		needle := fold.String(q)
		preds = append(preds, func(s *catalog.School) bool {
			for _, field := range searchable(s) {
				if strings.Contains(fold.String(field), needle) {
					return true
				}
			}
			return false
		})
	}
	if bound, ok := c.distanceBound(); ok {
		preds = append(preds, func(s *catalog.School) bool { return s.Distance <= bound })
	}
	for _, key := range c.Amenities {
		preds = append(preds, func(s *catalog.School) bool { return slices.Contains(s.Amenities, key) })
	}
	if c.MinRating > 0 {
		floor := c.MinRating
		preds = append(preds, func(s *catalog.School) bool { return s.Rating >= floor })
	}
	return preds
}

// searchable lists the text fields the free-text query matches against.
func searchable(s *catalog.School) []string {
	fields := []string{s.Name, s.Location, s.Board, s.Address.City, s.Address.Locality}
	for _, a := range s.Amenities {
		fields = append(fields, catalog.AmenityLabel(a))
	}
	return fields
}

// Sort orders schools in place by key. Ties, and the empty key, keep catalog order.
func Sort(schools []catalog.School, key string) {
	var less func(a, b *catalog.School) bool
	switch key {
	case SortRating:
		less = func(a, b *catalog.School) bool { return a.Rating > b.Rating }
	case SortDistance:
		less = func(a, b *catalog.School) bool { return a.Distance < b.Distance }
	case SortFeeAsc:
		less = func(a, b *catalog.School) bool { return a.FeeMin < b.FeeMin }
	case SortFeeDesc:
		less = func(a, b *catalog.School) bool { return a.FeeMin > b.FeeMin }
	case SortName:
		less = func(a, b *catalog.School) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return
	}
	sort.SliceStable(schools, func(i, j int) bool { return less(&schools[i], &schools[j]) })
}
