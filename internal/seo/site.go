// Package seo builds page metadata, schema.org structured data and sitemaps
// from catalog records. Every function here is pure.
package seo

import (
	"net/url"
	"strings"
)

// DescriptionLimit is the maximum description length in characters.
const DescriptionLimit = 160

// Site carries the site-wide defaults.
type Site struct {
	Name         string
	BaseURL      string
	DefaultImage string
	Description  string
}

// URL joins path onto the site base URL.
func (s Site) URL(path string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	if path == "" || path == "/" {
		return base + "/"
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// SchoolPath is the public page of a school.
func SchoolPath(slug string) string {
	return "/schools/" + url.PathEscape(slug)
}

// truncate cuts s to at most n runes, ending in an ellipsis when shortened.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := strings.TrimRight(string(r[:n-1]), " ,.;:-")
	return cut + "…"
}
