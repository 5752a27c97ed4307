package filter

import (
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/geo"
)

// MaxDistanceKm is the top of the distance slider. A bound at or above it
// applies no distance constraint.
const MaxDistanceKm = 50.0

const maxQueryRunes = 100

// Sort keys accepted by Sort.
const (
	SortCatalog  = ""
	SortRating   = "rating"
	SortDistance = "distance"
	SortFeeAsc   = "fee_asc"
	SortFeeDesc  = "fee_desc"
	SortName     = "name"
)

var sortKeys = []string{SortRating, SortDistance, SortFeeAsc, SortFeeDesc, SortName}

// Criteria is the combined set of user-selected filter values.
// The zero value of every field means "no constraint". MaxDistance is nil when
// unset; a set bound below zero is treated as zero.
type Criteria struct {
	Board       string     `json:"board"`
	FeeRange    string     `json:"feeRange"`
	ClassLevel  string     `json:"classLevel"`
	Hostel      bool       `json:"hostel"`
	Transport   bool       `json:"transport"`
	Query       string     `json:"query"`
	MaxDistance *float64   `json:"maxDistance"`
	Amenities   []string   `json:"amenities,omitempty"`
	MinRating   float64    `json:"minRating,omitempty"`
	Origin      *geo.Point `json:"origin,omitempty"`
	Sort        string     `json:"sort,omitempty"`
}

// Default returns the criteria the search page starts with.
func Default() Criteria {
	return Criteria{
		Board:       catalog.All,
		FeeRange:    catalog.All,
		ClassLevel:  catalog.All,
		MaxDistance: Km(MaxDistanceKm),
	}
}

// Km returns a distance bound for Criteria.MaxDistance.
func Km(v float64) *float64 { return &v }

// distanceBound returns the active distance bound, if any.
func (c Criteria) distanceBound() (float64, bool) {
	if c.MaxDistance == nil || *c.MaxDistance >= MaxDistanceKm {
		return 0, false
	}
	return max(*c.MaxDistance, 0), true
}

// Values encodes the criteria as query parameters, omitting defaults.
// ParseQuery(c.Values()) reproduces c after normalisation.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if !catalog.IsAll(c.Board) {
		v.Set("board", c.Board)
	}
	if !catalog.IsAll(c.FeeRange) {
		v.Set("fee", c.FeeRange)
	}
	if !catalog.IsAll(c.ClassLevel) {
		v.Set("class", c.ClassLevel)
	}
	if c.Hostel {
		v.Set("hostel", "true")
	}
	if c.Transport {
		v.Set("transport", "true")
	}
	if q := strings.TrimSpace(c.Query); q != "" {
		v.Set("q", q)
	}
	if d, ok := c.distanceBound(); ok {
		v.Set("maxDistance", strconv.FormatFloat(d, 'f', -1, 64))
	}
	if len(c.Amenities) > 0 {
		am := append([]string(nil), c.Amenities...)
		sort.Strings(am)
		v.Set("amenities", strings.Join(am, ","))
	}
	if c.MinRating > 0 {
		v.Set("minRating", strconv.FormatFloat(c.MinRating, 'f', -1, 64))
	}
	if c.Origin != nil {
		v.Set("lat", strconv.FormatFloat(c.Origin.Lat, 'f', 5, 64))
		v.Set("lng", strconv.FormatFloat(c.Origin.Lng, 'f', 5, 64))
	}
	if c.Sort != SortCatalog {
		v.Set("sort", c.Sort)
	}
	return v
}

// Key is a canonical representation suitable for cache keys.
func (c Criteria) Key() string {
	return c.Values().Encode()
}

// ParseQuery decodes search parameters. It never fails: malformed or unknown
// values fall back to "no constraint".
func ParseQuery(q url.Values) Criteria {
	c := Default()

	if b, ok := catalog.CanonicalBoard(q.Get("board")); ok {
		c.Board = b
	}
	if b, ok := catalog.FeeBucketByName(first(q, "fee", "feeRange")); ok && b.ID != "all" {
		c.FeeRange = b.ID
	}
	if l, ok := catalog.ClassLevelByName(first(q, "class", "classLevel")); ok {
		c.ClassLevel = l.Key
	}
	c.Hostel = parseBool(q.Get("hostel"))
	c.Transport = parseBool(q.Get("transport"))
	c.Query = truncateRunes(strings.TrimSpace(first(q, "q", "query")), maxQueryRunes)

	if d, ok := geo.ParseKm(first(q, "maxDistance", "distance")); ok && d >= 0 && d < MaxDistanceKm {
		c.MaxDistance = Km(d)
	}

	for _, raw := range q["amenities"] {
		for _, key := range strings.Split(raw, ",") {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" || !knownAmenity(key) || slices.Contains(c.Amenities, key) {
				continue
			}
			c.Amenities = append(c.Amenities, key)
		}
	}

	if r, err := strconv.ParseFloat(q.Get("minRating"), 64); err == nil && r > 0 {
		if r > 5 {
			r = 5
		}
		c.MinRating = r
	}

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat == nil && errLng == nil {
		if p := (geo.Point{Lat: lat, Lng: lng}); p.Valid() {
			c.Origin = &p
		}
	}

	if s := strings.ToLower(strings.TrimSpace(q.Get("sort"))); slices.Contains(sortKeys, s) {
		c.Sort = s
	}
	return c
}

func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func knownAmenity(key string) bool {
	return slices.ContainsFunc(catalog.Amenities, func(a catalog.Amenity) bool { return a.Key == key })
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
