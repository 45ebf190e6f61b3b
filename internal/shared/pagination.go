package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Offset     int
}

// NewPagination computes pagination metadata. Pages whose offset would
// overflow int start over at page one.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 || page-1 > math.MaxInt/perPage {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		Offset:     (page - 1) * perPage,
	}
}

// DisplayTotalPages never reports fewer than one page.
func (p Pagination) DisplayTotalPages() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

// HasPrev reports whether a previous page link should be rendered.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page link should be rendered.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p Pagination) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p Pagination) NextPage() int { return p.Page + 1 }
