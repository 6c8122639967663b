package collection

import (
	"context"

	"github.com/mentordesk/mentordesk/internal/query"
)

// Query runs v over the records and returns the page together with the
// collection ETag it was computed from.
func (c *Collection[T]) Query(ctx context.Context, v *query.View, s query.Schema[T]) (query.Page[T], string, error) {
	items, etag, err := c.listWithETag(ctx)
	if err != nil {
		return query.Page[T]{}, "", err
	}
	page, err := query.Run(v, s, items)
	if err != nil {
		return query.Page[T]{}, "", err
	}
	return page, etag, nil
}
