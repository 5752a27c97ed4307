package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, Page{Number: 3, Size: 1000}.Normalize())
	assert.Equal(t, Page{Number: 1, Size: 5}, Page{Number: -2, Size: 5}.Normalize())
}

func TestPaginate(t *testing.T) {
	schools := make([]catalog.School, 7)
	for i := range schools {
		schools[i].Slug = string(rune('a' + i))
	}

	res := paginate(schools, Page{Number: 2, Size: 3})
	assert.Equal(t, 7, res.TotalRows)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Len(t, res.Data, 3)
	assert.Equal(t, "d", res.Data[0].Slug)

	last := paginate(schools, Page{Number: 3, Size: 3})
	assert.Len(t, last.Data, 1)

	past := paginate(schools, Page{Number: 9, Size: 3})
	assert.NotNil(t, past.Data)
	assert.Empty(t, past.Data)

	huge := paginate(schools, Page{Number: 461168601842738792, Size: 20})
	assert.Empty(t, huge.Data)
	assert.Equal(t, 7, huge.TotalRows)

	empty := paginate(nil, Page{})
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Data)
}
