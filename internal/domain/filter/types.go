// Package filter holds the paging primitives shared by list operations.
package filter

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int `form:"pageNumber" json:"pageNumber"`
	Size   int `form:"pageSize" json:"pageSize"`
}

// Normalize clamps out-of-range values: page numbers start at 1, sizes fall
// back to DefaultPageSize and never exceed MaxPageSize.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Limit returns the SQL LIMIT for the normalized page.
func (p Page) Limit() uint64 {
	return uint64(p.Normalize().Size)
}

// Offset returns the SQL OFFSET for the normalized page.
func (p Page) Offset() uint64 {
	n := p.Normalize()
	return uint64((n.Number - 1) * n.Size)
}

// Result is one page of T together with the unpaged total.
type Result[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	PageNumber int   `json:"pageNumber"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewResult assembles a Result, computing TotalPages from total and page size.
func NewResult[T any](items []T, total int64, page Page) Result[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return Result[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalPages: pages,
	}
}

// HasNext reports whether another page follows.
func (r Result[T]) HasNext() bool {
	return r.PageNumber < r.TotalPages
}

// HasPrevious reports whether a page precedes this one.
func (r Result[T]) HasPrevious() bool {
	return r.PageNumber > 1
}
