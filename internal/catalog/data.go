package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/schools.yaml
var seedYAML []byte

type seedFile struct {
	Schools []School `yaml:"schools"`
}

var (
	seedOnce    sync.Once
	seedSchools []School
	seedErr     error
)

// Parse decodes a catalog document and validates it. Positions follow document order.
func Parse(data []byte) ([]School, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Schools))
	for i := range f.Schools {
		s := &f.Schools[i]
		if s.Slug == "" {
			return nil, fmt.Errorf("catalog entry %d: missing slug", i)
		}
		if seen[s.Slug] {
			return nil, fmt.Errorf("catalog entry %d: duplicate slug %q", i, s.Slug)
		}
		seen[s.Slug] = true
		if s.ID == "" {
			s.ID = s.Slug
		}
		if _, ok := ClassLevelByName(s.ClassFrom); !ok {
			return nil, fmt.Errorf("school %s: unknown class level %q", s.Slug, s.ClassFrom)
		}
		if _, ok := ClassLevelByName(s.ClassTo); !ok {
			return nil, fmt.Errorf("school %s: unknown class level %q", s.Slug, s.ClassTo)
		}
		if s.Location == "" {
			s.Location = strings.Trim(s.Address.Locality+", "+s.Address.City, ", ")
		}
		s.Position = i
	}
	return f.Schools, nil
}

// Seed returns a copy of the embedded catalog in catalog order.
func Seed() ([]School, error) {
	seedOnce.Do(func() {
		seedSchools, seedErr = Parse(seedYAML)
	})
	if seedErr != nil {
		return nil, seedErr
	}
	out := make([]School, len(seedSchools))
	for i, s := range seedSchools {
		out[i] = s.Clone()
	}
	return out, nil
}
