package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/schoolfinder/schoolfinder/internal/admission"
)

// MemoryRepo keeps applications in memory. Stored values are copied on the
// way in and out.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]admission.ApplicationData
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]admission.ApplicationData)}
}

func (m *MemoryRepo) Create(ctx context.Context, app *admission.ApplicationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[app.ID] = app.Clone()
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*admission.ApplicationData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, admission.ErrNotFound
	}
	c := a.Clone()
	return &c, nil
}

func (m *MemoryRepo) ListByParent(ctx context.Context, parentID string) ([]admission.ApplicationData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []admission.ApplicationData{}
	for _, a := range m.store {
		if a.ParentID == parentID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepo) update(id string, at time.Time, fn func(a *admission.ApplicationData)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return admission.ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = at
	m.store[id] = a
	return nil
}

func (m *MemoryRepo) UpdateStatus(ctx context.Context, id string, status admission.ApplicationStatus, at time.Time) error {
	return m.update(id, at, func(a *admission.ApplicationData) { a.Status = status })
}

func (m *MemoryRepo) AddDocument(ctx context.Context, id string, doc admission.DocumentUpload, at time.Time) error {
	return m.update(id, at, func(a *admission.ApplicationData) {
		a.Documents = append(a.Documents[:len(a.Documents):len(a.Documents)], doc)
	})
}

func (m *MemoryRepo) AppendMessage(ctx context.Context, id string, msg admission.ChatMessage, at time.Time) error {
	return m.update(id, at, func(a *admission.ApplicationData) {
		a.Messages = append(a.Messages[:len(a.Messages):len(a.Messages)], msg)
	})
}

func (m *MemoryRepo) SetMatches(ctx context.Context, id string, matches []admission.SchoolMatch, at time.Time) error {
	return m.update(id, at, func(a *admission.ApplicationData) {
		a.Matches = admission.ApplicationData{Matches: matches}.Clone().Matches
	})
}
