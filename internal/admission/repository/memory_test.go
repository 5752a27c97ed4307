package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/admission"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	a := &admission.ApplicationData{ID: "a1", ParentID: "p1", Status: admission.StatusDraft, CreatedAt: t0, UpdatedAt: t0}
	b := &admission.ApplicationData{ID: "b1", ParentID: "p1", Status: admission.StatusDraft, CreatedAt: t0.Add(time.Hour)}
	other := &admission.ApplicationData{ID: "c1", ParentID: "p2", CreatedAt: t0}
	for _, app := range []*admission.ApplicationData{a, b, other} {
		require.NoError(t, r.Create(ctx, app))
	}

	list, err := r.ListByParent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b1", list[0].ID, "newest first")

	t1 := t0.Add(2 * time.Hour)
	require.NoError(t, r.UpdateStatus(ctx, "a1", admission.StatusUnderReview, t1))
	require.NoError(t, r.AddDocument(ctx, "a1", admission.DocumentUpload{ID: "d1", Status: admission.DocumentPending}, t1))
	require.NoError(t, r.AppendMessage(ctx, "a1", admission.ChatMessage{ID: "m1", Role: admission.RoleUser, Content: "hi"}, t1))
	require.NoError(t, r.SetMatches(ctx, "a1", []admission.SchoolMatch{{SchoolSlug: "x", Score: 80}}, t1))

	got, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, admission.StatusUnderReview, got.Status)
	assert.Equal(t, t1, got.UpdatedAt)
	require.Len(t, got.Documents, 1)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Matches, 1)

	got.Documents[0].ID = "mutated"
	again, err := r.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "d1", again.Documents[0].ID)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, admission.ErrNotFound)
	assert.ErrorIs(t, r.UpdateStatus(ctx, "missing", admission.StatusDraft, t1), admission.ErrNotFound)
}
