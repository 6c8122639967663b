package query

import (
	"maps"
	"time"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// View is the state behind one list screen: the predicate set, the sort mode
// and the page index. Any change to the filter, search, sort or page size
// sends the view back to page 1 so a shrinking result never shows a stale
// window.
type View struct {
	filter  Filter
	sort    string
	page    int
	perPage int
}

// NewView returns a view on page 1 with no active filters.
func NewView(perPage int) *View {
	if perPage <= 0 {
		perPage = shared.DefaultPerPage
	}
	return &View{page: 1, perPage: min(perPage, shared.MaxPerPage)}
}

// Filter returns a copy of the current predicate set.
func (v *View) Filter() Filter {
	f := v.filter
	f.Flags = maps.Clone(v.filter.Flags)
	return f
}

// SortName returns the requested sort name.
func (v *View) SortName() string { return v.sort }

// Page returns the current page index.
func (v *View) Page() int { return v.page }

// PerPage returns the page size.
func (v *View) PerPage() int { return v.perPage }

// SetFilter replaces the whole predicate set.
func (v *View) SetFilter(f Filter) {
	v.filter = f
	v.filter.Flags = maps.Clone(f.Flags)
	v.reset()
}

// SetQuery changes the search text.
func (v *View) SetQuery(q string) {
	v.filter.Query = q
	v.reset()
}

// SetStatus changes the status selection.
func (v *View) SetStatus(s Selection) {
	v.filter.Status = s
	v.reset()
}

// SetCategories changes the category selection.
func (v *View) SetCategories(s Selection) {
	v.filter.Categories = s
	v.reset()
}

// SetNumberRange changes the inclusive numeric bounds.
func (v *View) SetNumberRange(lo, hi *float64) {
	v.filter.MinNumber = lo
	v.filter.MaxNumber = hi
	v.reset()
}

// SetDateRange changes the inclusive date bounds.
func (v *View) SetDateRange(from, to *time.Time) {
	v.filter.From = from
	v.filter.To = to
	v.reset()
}

// SetFlag changes one ternary flag filter.
func (v *View) SetFlag(name string, t Ternary) {
	if v.filter.Flags == nil {
		v.filter.Flags = make(map[string]Ternary)
	}
	v.filter.Flags[name] = t
	v.reset()
}

// SetSort changes the sort name.
func (v *View) SetSort(name string) {
	v.sort = name
	v.reset()
}

// SetPerPage changes the page size.
func (v *View) SetPerPage(n int) {
	if n <= 0 {
		n = shared.DefaultPerPage
	}
	v.perPage = min(n, shared.MaxPerPage)
	v.reset()
}

// SetPage requests a page. The index is clamped when the view runs.
func (v *View) SetPage(n int) {
	v.page = max(n, 1)
}

func (v *View) reset() {
	v.page = 1
}

// Select filters and sorts items through the view without paginating.
func Select[T any](v *View, s Schema[T], items []T) ([]T, error) {
	f := v.Filter()
	if err := s.Validate(f); err != nil {
		return nil, err
	}
	mode, err := s.ResolveSort(v.sort)
	if err != nil {
		return nil, err
	}
	return s.Sort(mode, s.Filter(f, items))
}

// Run filters, sorts and paginates items through the view and stores the
// clamped page index back into it.
func Run[T any](v *View, s Schema[T], items []T) (Page[T], error) {
	sorted, err := Select(v, s, items)
	if err != nil {
		return Page[T]{}, err
	}
	page := Paginate(sorted, v.perPage, v.page)
	v.page = page.Page
	return page, nil
}
