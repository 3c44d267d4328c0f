package domain

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageParams is a 1-indexed page request.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPageParams applies defaults to zero values and caps the limit.
// Negative values are rejected with a validation error.
func NewPageParams(page, limit int) (PageParams, error) {
	if page < 0 {
		return PageParams{}, NewValidationError("page", "must be greater than or equal to 1")
	}
	if limit < 0 {
		return PageParams{}, NewValidationError("limit", "must be greater than or equal to 1")
	}

	p := PageParams{Page: DefaultPage, Limit: DefaultLimit}
	if page > 0 {
		p.Page = page
	}
	if limit > 0 {
		p.Limit = min(limit, MaxLimit)
	}
	return p, nil
}

// Offset returns the zero-based row offset for the page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Paginated is the stable list response shape.
type Paginated[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// NewPaginated builds a page response, computing TotalPages as ceil(total/limit).
func NewPaginated[T any](data []T, total int, p PageParams) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Paginated[T]{
		Data: data,
		Meta: Meta{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages},
	}
}
