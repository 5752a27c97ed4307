package seo

import (
	"fmt"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

// Metadata is the head section of a page.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Canonical   string    `json:"canonical"`
	Keywords    []string  `json:"keywords"`
	OpenGraph   OpenGraph `json:"openGraph"`
	Twitter     Twitter   `json:"twitter"`
}

type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Type        string `json:"type"`
	SiteName    string `json:"siteName"`
}

type Twitter struct {
	Card  string `json:"card"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// BuildMetadata returns the metadata of a school page, or the site defaults
// when school is nil.
func BuildMetadata(school *catalog.School, site Site) Metadata {
	if school == nil {
		desc := truncate(site.Description, DescriptionLimit)
		return Metadata{
			Title:       site.Name,
			Description: desc,
			Canonical:   site.URL("/"),
			Keywords:    []string{"schools", "school admission", "CBSE", "ICSE", "IB", "IGCSE"},
			OpenGraph: OpenGraph{
				Title: site.Name, Description: desc, URL: site.URL("/"),
				Image: site.DefaultImage, Type: "website", SiteName: site.Name,
			},
			Twitter: Twitter{Card: "summary_large_image", Title: site.Name, Image: site.DefaultImage},
		}
	}

	title := school.Name
	if school.Location != "" {
		title = fmt.Sprintf("%s, %s", school.Name, school.Location)
	}
	if site.Name != "" {
		title += " | " + site.Name
	}
	desc := truncate(describe(school), DescriptionLimit)
	canonical := site.URL(SchoolPath(school.Slug))
	image := primaryImage(school, site)

	return Metadata{
		Title:       title,
		Description: desc,
		Canonical:   canonical,
		Keywords:    keywords(school),
		OpenGraph: OpenGraph{
			Title: title, Description: desc, URL: canonical,
			Image: image, Type: "website", SiteName: site.Name,
		},
		Twitter: Twitter{Card: "summary_large_image", Title: title, Image: image},
	}
}

// describe falls back to a generated summary for schools without a description.
func describe(s *catalog.School) string {
	if s.Description != "" {
		return s.Description
	}
	d := s.Name
	if s.Board != "" {
		d += ", " + s.Board + " school"
	}
	if s.Location != "" {
		d += " in " + s.Location
	}
	d += "."
	if s.FeeMin > 0 {
		d += " Annual fees " + s.FeeLabel() + "."
	}
	return d
}

func primaryImage(s *catalog.School, site Site) string {
	for _, img := range s.Images {
		if img != "" {
			return img
		}
	}
	return site.DefaultImage
}

func keywords(s *catalog.School) []string {
	kw := []string{s.Name}
	if s.Board != "" {
		kw = append(kw, s.Board+" school")
	}
	if s.Address.Locality != "" {
		kw = append(kw, "schools in "+s.Address.Locality)
	}
	if s.Address.City != "" {
		kw = append(kw, "schools in "+s.Address.City)
	}
	for _, a := range s.Amenities {
		kw = append(kw, catalog.AmenityLabel(a))
	}
	return kw
}
