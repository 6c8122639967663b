// Package query filters, sorts and paginates in-memory record collections.
//
// A Schema binds accessor functions for one record type. Every list page
// describes its records once and then reuses the same predicate set,
// comparator and paginator:
//
//	filtered := schema.Filter(f, items)
//	sorted, err := schema.Sort(mode, filtered)
//	page := query.Paginate(sorted, perPage, pageNo)
//
// View wraps the three steps and owns the page index, resetting it to 1
// whenever a filter, search or sort input changes.
package query
