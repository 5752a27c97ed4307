package repository

import (
	"context"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

// Repository is the read side of the school catalog.
type Repository interface {
	// List returns every school in catalog order.
	List(ctx context.Context) ([]catalog.School, error)
	// Get returns the school with the given slug or catalog.ErrNotFound.
	Get(ctx context.Context, slug string) (*catalog.School, error)
}
