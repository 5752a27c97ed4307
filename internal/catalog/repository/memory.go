package repository

import (
	"context"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

// MemoryRepo serves a fixed catalog from memory. It is the default backend
// and the one used by unit tests.
type MemoryRepo struct {
	schools []catalog.School
	bySlug  map[string]int
}

// NewMemoryRepo copies schools; later changes to the argument are not observed.
func NewMemoryRepo(schools []catalog.School) *MemoryRepo {
	m := &MemoryRepo{
		schools: make([]catalog.School, len(schools)),
		bySlug:  make(map[string]int, len(schools)),
	}
	for i, s := range schools {
		m.schools[i] = s.Clone()
		m.bySlug[s.Slug] = i
	}
	return m
}

// NewSeedRepo returns a MemoryRepo over the embedded catalog.
func NewSeedRepo() (*MemoryRepo, error) {
	schools, err := catalog.Seed()
	if err != nil {
		return nil, err
	}
	return NewMemoryRepo(schools), nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]catalog.School, error) {
	out := make([]catalog.School, len(m.schools))
	for i, s := range m.schools {
		out[i] = s.Clone()
	}
	return out, nil
}

func (m *MemoryRepo) Get(ctx context.Context, slug string) (*catalog.School, error) {
	i, ok := m.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	s := m.schools[i].Clone()
	return &s, nil
}
