package domain

// Page is one page of a list query.
// When LastPage is set the server guarantees that fetching Cursor yields no items.
type Page[T any] struct {
	Items    []T    `json:"items"`
	LastPage bool   `json:"last_page"`
	Cursor   string `json:"cursor"`
}

// Len returns the number of items on the page.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}
