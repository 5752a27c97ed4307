package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

func TestMemoryRepoListAndGet(t *testing.T) {
	ctx := context.Background()
	src := []catalog.School{
		{Slug: "a", Name: "A", Amenities: []string{"library"}},
		{Slug: "b", Name: "B"},
	}
	r := NewMemoryRepo(src)
	src[0].Name = "changed after construction"

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "A", list[0].Name)
	require.Equal(t, "b", list[1].Slug)

	list[0].Amenities[0] = "mutated"
	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "library", got.Amenities[0])

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSeedRepo(t *testing.T) {
	r, err := NewSeedRepo()
	require.NoError(t, err)
	list, err := r.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, list)

	got, err := r.Get(context.Background(), list[0].Slug)
	require.NoError(t, err)
	require.Equal(t, list[0].Name, got.Name)
}
