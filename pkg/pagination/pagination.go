package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Params is a page window read from ?page= and ?limit=.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// FromRequest reads the page window, ignoring values that are not positive
// integers and capping limit at 100.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, Limit: defaultLimit}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, maxLimit)
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Page is one window of a listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
}

// NewPage builds a Page; a nil items slice is emitted as [].
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		Pages:   pages,
		HasNext: p.Page < pages,
	}
}
