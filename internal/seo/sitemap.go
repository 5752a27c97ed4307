package seo

import (
	"encoding/xml"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URL struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   float64  `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// BuildSitemap lists the home page, the search page and one page per school.
// lastMod is written verbatim when non-empty (YYYY-MM-DD).
func BuildSitemap(schools []catalog.School, site Site, lastMod string) URLSet {
	set := URLSet{
		XMLNS: sitemapNS,
		URLs: []URL{
			{Loc: site.URL("/"), LastMod: lastMod, ChangeFreq: "daily", Priority: 1.0},
			{Loc: site.URL("/search"), LastMod: lastMod, ChangeFreq: "daily", Priority: 0.9},
		},
	}
	for _, s := range schools {
		set.URLs = append(set.URLs, URL{
			Loc:        site.URL(SchoolPath(s.Slug)),
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   0.8,
		})
	}
	return set
}

// Encode renders the urlset with the XML declaration.
func (u URLSet) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(u, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
