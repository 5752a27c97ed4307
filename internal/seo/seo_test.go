package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

var site = Site{
	Name:         "SchoolFinder",
	BaseURL:      "https://schoolfinder.example.com/",
	DefaultImage: "https://schoolfinder.example.com/images/school-placeholder.jpg",
	Description:  "Find and compare schools near you.",
}

func school() *catalog.School {
	return &catalog.School{
		Slug:        "greenwood-high",
		Name:        "Greenwood High",
		Board:       "ICSE",
		Location:    "Sarjapur Road, Bangalore",
		Address:     catalog.Address{Street: "No. 8-9", Locality: "Sarjapur Road", City: "Bangalore", Region: "Karnataka", PostalCode: "562125"},
		FeeMin:      250000,
		FeeMax:      420000,
		Amenities:   []string{"swimming"},
		Rating:      4.62,
		ReviewCount: 120,
		Images:      []string{"https://img.example/gw.jpg"},
		Description: "A leading international school.",
		Phone:       "+91 80 1234 5678",
		Email:       "admissions@greenwood.example",
		Established: 2004,
	}
}

func TestBuildMetadata(t *testing.T) {
	m := BuildMetadata(school(), site)
	assert.Equal(t, "Greenwood High, Sarjapur Road, Bangalore | SchoolFinder", m.Title)
	assert.Equal(t, "https://schoolfinder.example.com/schools/greenwood-high", m.Canonical)
	assert.Equal(t, "https://img.example/gw.jpg", m.OpenGraph.Image)
	assert.Equal(t, m.Canonical, m.OpenGraph.URL)
	assert.Contains(t, m.Keywords, "Swimming Pool")
	assert.Contains(t, m.Keywords, "schools in Bangalore")
}

func TestBuildMetadata_EmptyImagesUseDefault(t *testing.T) {
	s := school()
	s.Images = nil
	assert.Equal(t, site.DefaultImage, BuildMetadata(s, site).OpenGraph.Image)
	assert.Equal(t, site.DefaultImage, BuildMetadata(s, site).Twitter.Image)

	s.Images = []string{""}
	assert.Equal(t, site.DefaultImage, BuildStructuredData(s, site).Image)
}

func TestBuildMetadata_TruncatesDescription(t *testing.T) {
	s := school()
	s.Description = strings.Repeat("ऋषि विद्यालय ", 40)
	d := BuildMetadata(s, site).Description
	assert.LessOrEqual(t, utf8.RuneCountInString(d), DescriptionLimit)
	assert.True(t, utf8.ValidString(d))
	assert.True(t, strings.HasSuffix(d, "…"))

	s.Description = "Short."
	assert.Equal(t, "Short.", BuildMetadata(s, site).Description)
}

func TestBuildMetadata_GeneratedDescription(t *testing.T) {
	s := school()
	s.Description = ""
	assert.Equal(t, "Greenwood High, ICSE school in Sarjapur Road, Bangalore. Annual fees ₹2,50,000 - ₹4,20,000.",
		BuildMetadata(s, site).Description)
}

func TestBuildMetadata_NilSchoolUsesSiteDefaults(t *testing.T) {
	m := BuildMetadata(nil, site)
	assert.Equal(t, "SchoolFinder", m.Title)
	assert.Equal(t, site.Description, m.Description)
	assert.Equal(t, "https://schoolfinder.example.com/", m.Canonical)
	assert.Equal(t, site.DefaultImage, m.OpenGraph.Image)
}

func TestBuildStructuredData(t *testing.T) {
	org := BuildStructuredData(school(), site)
	b, err := json.Marshal(org)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "https://schema.org", got["@context"])
	assert.Equal(t, "EducationalOrganization", got["@type"])
	for _, field := range []string{"name", "description", "image", "address", "aggregateRating", "priceRange", "telephone", "email", "url"} {
		assert.Contains(t, got, field)
	}

	addr := got["address"].(map[string]interface{})
	assert.Equal(t, "PostalAddress", addr["@type"])
	assert.Equal(t, "Bangalore", addr["addressLocality"])
	assert.Equal(t, "IN", addr["addressCountry"])

	rating := got["aggregateRating"].(map[string]interface{})
	assert.Equal(t, 4.6, rating["ratingValue"])
	assert.Equal(t, 120.0, rating["reviewCount"])
	assert.Equal(t, "₹2,50,000 - ₹4,20,000", got["priceRange"])
	assert.Equal(t, "2004", got["foundingDate"])
}

func TestBuildStructuredData_Defaults(t *testing.T) {
	s := &catalog.School{Slug: "x", Name: "X", Location: "Mysore"}
	org := BuildStructuredData(s, site)
	assert.Nil(t, org.AggregateRating, "no reviews, no rating block")
	assert.Empty(t, org.PriceRange)
	assert.Equal(t, site.DefaultImage, org.Image)
	assert.Equal(t, "Mysore", org.Address.AddressLocality)
	assert.Equal(t, "https://schoolfinder.example.com/schools/x", org.URL)

	s.Website = "https://x.example"
	assert.Equal(t, "https://x.example", BuildStructuredData(s, site).URL)

	root := BuildStructuredData(nil, site)
	assert.Equal(t, "SchoolFinder", root.Name)
	assert.Equal(t, site.DefaultImage, root.Image)
}

func TestBuildSitemap(t *testing.T) {
	set := BuildSitemap([]catalog.School{{Slug: "a"}, {Slug: "b c"}}, site, "2024-05-01")
	require.Len(t, set.URLs, 4)
	assert.Equal(t, "https://schoolfinder.example.com/", set.URLs[0].Loc)
	assert.Equal(t, "https://schoolfinder.example.com/schools/b%20c", set.URLs[3].Loc)

	b, err := set.Encode()
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, out, "<loc>https://schoolfinder.example.com/schools/a</loc>")
	assert.Contains(t, out, "<lastmod>2024-05-01</lastmod>")
}
