package query

import (
	"time"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// Schema describes how the engine reads records of type T. Accessors that a
// record type does not have stay nil; filters and sorts that need a nil
// accessor are rejected by Validate.
type Schema[T any] struct {
	ID       func(T) string
	Time     func(T) time.Time
	Status   func(T) string
	Category func(T) []string
	Text     func(T) []string
	Number   func(T) float64
	// Flags are boolean fields usable as ternary filters and priority sorts.
	Flags map[string]func(T) bool
	// Sorts maps page specific sort names (e.g. "rating_desc") to modes.
	Sorts map[string]SortMode
}

// Validate checks that every active option in f has an accessor to read.
func (s Schema[T]) Validate(f Filter) error {
	if !f.Status.IsAll() && s.Status == nil {
		return shared.NewValidationError("status", "not filterable")
	}
	if !f.Categories.IsAll() && s.Category == nil {
		return shared.NewValidationError("category", "not filterable")
	}
	if (f.MinNumber != nil || f.MaxNumber != nil) && s.Number == nil {
		return shared.NewValidationError("min", "not filterable")
	}
	if (f.From != nil || f.To != nil) && s.Time == nil {
		return shared.NewValidationError("from", "not filterable")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return shared.NewValidationError("range", "from must not be after to")
	}
	for name, t := range f.Flags {
		if !t.Valid() {
			return shared.NewValidationError("flag."+name, "must be all, yes or no")
		}
		if t == TernaryAll || t == "" {
			continue
		}
		if _, ok := s.Flags[name]; !ok {
			return shared.NewValidationError("flag."+name, "unknown flag")
		}
	}
	return nil
}

// Find returns the record with the given id.
func (s Schema[T]) Find(items []T, id string) (T, bool) {
	for _, item := range items {
		if s.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
