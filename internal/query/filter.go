package query

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Filter is the predicate set for one list view. Every active option must
// hold for a record to pass.
type Filter struct {
	// Query is matched case-insensitively against the record's text fields.
	Query      string
	Status     Selection
	Categories Selection
	// MinNumber and MaxNumber are inclusive; nil disables the bound.
	MinNumber *float64
	MaxNumber *float64
	// From and To are inclusive, compared in epoch milliseconds.
	From  *time.Time
	To    *time.Time
	Flags map[string]Ternary
}

// Active reports whether any predicate restricts the result.
func (f Filter) Active() bool {
	if strings.TrimSpace(f.Query) != "" || !f.Status.IsAll() || !f.Categories.IsAll() {
		return true
	}
	if f.MinNumber != nil || f.MaxNumber != nil || f.From != nil || f.To != nil {
		return true
	}
	for _, t := range f.Flags {
		if t == TernaryYes || t == TernaryNo {
			return true
		}
	}
	return false
}

// Match reports whether item passes f.
func (s Schema[T]) Match(f Filter, item T) bool {
	return s.matcher(f)(item)
}

// Filter returns the records passing f in their original order. The input
// slice is left untouched.
func (s Schema[T]) Filter(f Filter, items []T) []T {
	match := s.matcher(f)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s Schema[T]) matcher(f Filter) func(T) bool {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Query))
	var fromMs, toMs int64
	if f.From != nil {
		fromMs = f.From.UnixMilli()
	}
	if f.To != nil {
		toMs = f.To.UnixMilli()
	}
	return func(item T) bool {
		if needle != "" && s.Text != nil {
			haystack := fold.String(strings.Join(s.Text(item), " "))
			if !strings.Contains(haystack, needle) {
				return false
			}
		}
		if s.Status != nil && !f.Status.Contains(s.Status(item)) {
			return false
		}
		if s.Category != nil && !f.Categories.ContainsAny(s.Category(item)) {
			return false
		}
		if s.Number != nil {
			n := s.Number(item)
			if f.MinNumber != nil && n < *f.MinNumber {
				return false
			}
			if f.MaxNumber != nil && n > *f.MaxNumber {
				return false
			}
		}
		if s.Time != nil && (f.From != nil || f.To != nil) {
			ms := s.Time(item).UnixMilli()
			if f.From != nil && ms < fromMs {
				return false
			}
			if f.To != nil && ms > toMs {
				return false
			}
		}
		for name, t := range f.Flags {
			flag, ok := s.Flags[name]
			if !ok {
				continue
			}
			if !t.Accepts(flag(item)) {
				return false
			}
		}
		return true
	}
}
