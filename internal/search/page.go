package search

import "github.com/schoolfinder/schoolfinder/internal/catalog"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects one window of a result set. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into range: Number >= 1 and 1 <= Size <= MaxPageSize.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Result is one page of matching schools.
type Result struct {
	Data        []catalog.School `json:"data"`
	TotalRows   int              `json:"totalRows"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	PageSize    int              `json:"pageSize"`
}

// paginate slices an already filtered result set. Pages past the end are empty.
func paginate(schools []catalog.School, p Page) Result {
	p = p.Normalize()
	total := len(schools)
	res := Result{
		Data:        []catalog.School{},
		TotalRows:   total,
		TotalPages:  (total + p.Size - 1) / p.Size,
		CurrentPage: p.Number,
		PageSize:    p.Size,
	}
	if p.Number > res.TotalPages {
		return res
	}
	start := (p.Number - 1) * p.Size
	end := min(start+p.Size, total)
	res.Data = schools[start:end]
	return res
}
