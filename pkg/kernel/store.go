// Package kernel holds small shared value types.
package kernel

// Page describes where a page sits in a result set.
type Page struct {
	Number int `json:"page"`      // 1-based
	Size   int `json:"page_size"` // requested items per page
	Total  int `json:"total"`     // items across all pages
	Pages  int `json:"pages"`
}

// Paginated is one page of items plus its position.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a page. items must never be nil in JSON, so a nil slice
// becomes empty.
func NewPaginated[T any](items []T, opts PaginationOptions, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if opts.PageSize > 0 {
		pages = (total + opts.PageSize - 1) / opts.PageSize
	}

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: opts.Page,
			Size:   opts.PageSize,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// HasNext reports whether pages follow this one.
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// HasPrevious reports whether pages precede this one.
func (p Paginated[T]) HasPrevious() bool {
	return p.Page.Number > 1
}

// PaginationOptions is a page request.
type PaginationOptions struct {
	Page     int `json:"page,omitempty"`      // 1-based
	PageSize int `json:"page_size,omitempty"` // items per page
}

// Normalize clamps the request: page to at least 1, size to (0, max],
// defaulting to def.
func (o PaginationOptions) Normalize(def, max int) PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = def
	}
	if o.PageSize > max {
		o.PageSize = max
	}
	return o
}

// Offset is the number of items before the requested page.
func (o PaginationOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}
