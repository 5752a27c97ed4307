package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/geo"
)

func seed(t *testing.T) []catalog.School {
	t.Helper()
	schools, err := catalog.Seed()
	require.NoError(t, err)
	return schools
}

func slugs(schools []catalog.School) []string {
	out := make([]string, 0, len(schools))
	for _, s := range schools {
		out = append(out, s.Slug)
	}
	return out
}

func TestApply_DefaultsReturnWholeCatalogInOrder(t *testing.T) {
	schools := seed(t)

	for name, c := range map[string]Criteria{
		"default": Default(),
		"zero":    {},
	} {
		got := Apply(schools, c)
		if diff := cmp.Diff(schools, got); diff != "" {
			t.Fatalf("%s criteria changed the catalog (-want +got):\n%s", name, diff)
		}
	}
}

func TestApply_BoardIsExact(t *testing.T) {
	schools := seed(t)
	for _, board := range catalog.Boards[1:] {
		got := Apply(schools, Criteria{Board: board})
		for _, s := range got {
			assert.Equal(t, board, s.Board)
		}
		want := 0
		for _, s := range schools {
			if s.Board == board {
				want++
			}
		}
		assert.Len(t, got, want, "board %s", board)
	}
}

func TestApply_ThreeSchoolExample(t *testing.T) {
	schools := []catalog.School{
		{Slug: "a", Board: "CBSE"},
		{Slug: "b", Board: "ICSE"},
		{Slug: "c", Board: "CBSE"},
	}
	got := Apply(schools, Criteria{Board: "CBSE"})
	if diff := cmp.Diff([]string{"a", "c"}, slugs(got)); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestApply_DistanceIsMonotonic(t *testing.T) {
	schools := seed(t)
	prev := map[string]bool{}
	for _, d := range []float64{-4, 0, 0.5, 1, 3, 5, 8, 12, 20, 30, 49, 50, 80} {
		got := Apply(schools, Criteria{MaxDistance: Km(d)})
		cur := map[string]bool{}
		for _, s := range got {
			cur[s.Slug] = true
			if d < MaxDistanceKm {
				assert.LessOrEqual(t, s.Distance, max(d, 0))
			}
		}
		for slug := range prev {
			assert.True(t, cur[slug], "%s dropped when max distance grew to %v", slug, d)
		}
		prev = cur
	}
	assert.Len(t, prev, len(schools))
}

func TestApply_ZeroBoundIsAConstraint(t *testing.T) {
	schools := []catalog.School{
		{Slug: "here", Distance: 0},
		{Slug: "near", Distance: 0.4},
		{Slug: "far", Distance: 7},
	}
	assert.Len(t, Apply(schools, Criteria{}), 3, "unset bound")
	assert.Equal(t, []string{"here"}, slugs(Apply(schools, Criteria{MaxDistance: Km(0)})))
	assert.Equal(t, []string{"here"}, slugs(Apply(schools, Criteria{MaxDistance: Km(-2)})))
	assert.Equal(t, []string{"here", "near"}, slugs(Apply(schools, Criteria{MaxDistance: Km(0.5)})))
	assert.Len(t, Apply(schools, Criteria{MaxDistance: Km(MaxDistanceKm)}), 3)
}

func TestApply_IsIdempotentAndPure(t *testing.T) {
	schools := seed(t)
	before := make([]catalog.School, len(schools))
	for i, s := range schools {
		before[i] = s.Clone()
	}
	origin := geo.Point{Lat: 12.9716, Lng: 77.5946}
	c := Criteria{Query: "bangalore", Transport: true, MaxDistance: Km(20), Origin: &origin}

	first := Apply(schools, c)
	second := Apply(schools, c)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Apply is not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, schools); diff != "" {
		t.Fatalf("Apply mutated its input (-before +after):\n%s", diff)
	}

	if len(first) > 0 {
		first[0].Amenities = append(first[0].Amenities[:0], "mutated")
		for _, s := range schools {
			assert.NotContains(t, s.Amenities, "mutated")
		}
	}
}

func TestApply_FeeBucket(t *testing.T) {
	schools := []catalog.School{
		{Slug: "cheap", FeeMin: 30000},
		{Slug: "mid", FeeMin: 120000},
		{Slug: "edge", FeeMin: 200000},
		{Slug: "premium", FeeMin: 650000},
	}
	assert.Equal(t, []string{"cheap"}, slugs(Apply(schools, Criteria{FeeRange: "under-50k"})))
	assert.Equal(t, []string{"mid"}, slugs(Apply(schools, Criteria{FeeRange: "₹1L - ₹2L"})))
	assert.Equal(t, []string{"edge"}, slugs(Apply(schools, Criteria{FeeRange: "2l-3l"})))
	assert.Equal(t, []string{"premium"}, slugs(Apply(schools, Criteria{FeeRange: "above-3l"})))

	// unknown bucket labels behave like All
	assert.Len(t, Apply(schools, Criteria{FeeRange: "affordable"}), len(schools))
}

func TestApply_ClassLevel(t *testing.T) {
	schools := []catalog.School{
		{Slug: "primary", ClassFrom: "lkg", ClassTo: "5"},
		{Slug: "k12", ClassFrom: "nursery", ClassTo: "12"},
		{Slug: "senior", ClassFrom: "6", ClassTo: "12"},
	}
	assert.Equal(t, []string{"primary", "k12"}, slugs(Apply(schools, Criteria{ClassLevel: "UKG"})))
	assert.Equal(t, []string{"k12", "senior"}, slugs(Apply(schools, Criteria{ClassLevel: "Class 11"})))
	assert.Len(t, Apply(schools, Criteria{ClassLevel: "Class 13"}), 3, "unknown class level behaves like All")
}

func TestApply_HostelAndTransportOnlyWhenSet(t *testing.T) {
	schools := []catalog.School{
		{Slug: "both", Hostel: true, Transport: true},
		{Slug: "hostel", Hostel: true},
		{Slug: "bus", Transport: true},
		{Slug: "none"},
	}
	assert.Len(t, Apply(schools, Criteria{}), 4)
	assert.Equal(t, []string{"both", "hostel"}, slugs(Apply(schools, Criteria{Hostel: true})))
	assert.Equal(t, []string{"both", "bus"}, slugs(Apply(schools, Criteria{Transport: true})))
	assert.Equal(t, []string{"both"}, slugs(Apply(schools, Criteria{Hostel: true, Transport: true})))
}

func TestApply_QueryIsCaseInsensitiveSubstring(t *testing.T) {
	schools := seed(t)

	got := Apply(schools, Criteria{Query: "GREENwood"})
	assert.Equal(t, []string{"greenwood-high-international"}, slugs(got))

	got = Apply(schools, Criteria{Query: "whitefield"})
	assert.Equal(t, []string{"inventure-academy"}, slugs(got))

	got = Apply(schools, Criteria{Query: "state BOARD"})
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, "State Board", s.Board)
	}

	got = Apply(schools, Criteria{Query: "swimming pool"})
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Contains(t, s.Amenities, "swimming")
	}

	assert.Empty(t, Apply(schools, Criteria{Query: "no such school anywhere"}))
}

func TestApply_OriginRecomputesDistance(t *testing.T) {
	schools := []catalog.School{
		{Slug: "near", Latitude: 12.9716, Longitude: 77.5946, Distance: 40},
		{Slug: "far", Latitude: 13.1312, Longitude: 77.6145, Distance: 1},
	}
	origin := geo.Point{Lat: 12.9716, Lng: 77.5946}
	got := Apply(schools, Criteria{Origin: &origin, MaxDistance: Km(5)})
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].Slug)
	assert.Equal(t, 0.0, got[0].Distance)
	assert.Equal(t, 40.0, schools[0].Distance, "catalog distance left untouched")
}

func TestApply_AmenitiesAndRating(t *testing.T) {
	schools := []catalog.School{
		{Slug: "a", Amenities: []string{"library", "swimming"}, Rating: 4.6},
		{Slug: "b", Amenities: []string{"library"}, Rating: 4.8},
		{Slug: "c", Amenities: []string{"swimming"}, Rating: 3.9},
	}
	assert.Equal(t, []string{"a"}, slugs(Apply(schools, Criteria{Amenities: []string{"library", "swimming"}})))
	assert.Equal(t, []string{"a", "b"}, slugs(Apply(schools, Criteria{MinRating: 4.5})))
}

func TestSort(t *testing.T) {
	base := []catalog.School{
		{Slug: "a", Rating: 4.1, Distance: 9, FeeMin: 300, Name: "b school"},
		{Slug: "b", Rating: 4.7, Distance: 2, FeeMin: 100, Name: "A School"},
		{Slug: "c", Rating: 4.7, Distance: 5, FeeMin: 200, Name: "c school"},
	}
	cases := map[string][]string{
		SortCatalog:  {"a", "b", "c"},
		SortRating:   {"b", "c", "a"},
		SortDistance: {"b", "c", "a"},
		SortFeeAsc:   {"b", "c", "a"},
		SortFeeDesc:  {"a", "c", "b"},
		SortName:     {"b", "a", "c"},
		"bogus":      {"a", "b", "c"},
	}
	for key, want := range cases {
		s := append([]catalog.School(nil), base...)
		Sort(s, key)
		if diff := cmp.Diff(want, slugs(s)); diff != "" {
			t.Errorf("sort %q (-want +got):\n%s", key, diff)
		}
	}
}
