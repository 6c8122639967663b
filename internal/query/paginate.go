package query

import "github.com/mentordesk/mentordesk/internal/shared"

// Page is one window of an ordered result.
type Page[T any] struct {
	Items []T `json:"items"`
	shared.Pagination
}

// Paginate slices items into pages of perPage and returns the requested page.
// Requests past either end are clamped; an empty input yields page 1 of 1.
func Paginate[T any](items []T, perPage, page int) Page[T] {
	p := shared.NewPagination(page, perPage, len(items))
	start, end := p.Bounds()
	window := make([]T, end-start)
	copy(window, items[start:end])
	return Page[T]{Items: window, Pagination: p}
}
