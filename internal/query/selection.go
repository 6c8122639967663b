package query

import "slices"

// Selection is an enum filter value. The zero value means "all". An explicit
// selection with no values matches nothing, which is what a multi-select chip
// row does once the user deselects every chip.
type Selection struct {
	explicit bool
	values   []string
}

// All returns the unrestricted selection.
func All() Selection {
	return Selection{}
}

// Only returns an explicit selection. Only() with no values matches nothing.
func Only(values ...string) Selection {
	return Selection{explicit: true, values: slices.Clone(values)}
}

// IsAll reports whether the selection is unrestricted.
func (s Selection) IsAll() bool {
	return !s.explicit
}

// Values returns a copy of the selected values.
func (s Selection) Values() []string {
	return slices.Clone(s.values)
}

// Contains reports whether v passes the selection.
func (s Selection) Contains(v string) bool {
	if !s.explicit {
		return true
	}
	return slices.Contains(s.values, v)
}

// ContainsAny reports whether any of vs passes the selection.
func (s Selection) ContainsAny(vs []string) bool {
	if !s.explicit {
		return true
	}
	for _, v := range vs {
		if slices.Contains(s.values, v) {
			return true
		}
	}
	return false
}

// Ternary is a three-way boolean filter.
type Ternary string

const (
	TernaryAll Ternary = "all"
	TernaryYes Ternary = "yes"
	TernaryNo  Ternary = "no"
)

// Valid reports whether t is a known value. The empty string counts as all.
func (t Ternary) Valid() bool {
	switch t {
	case "", TernaryAll, TernaryYes, TernaryNo:
		return true
	default:
		return false
	}
}

// Accepts reports whether a record whose flag is v passes.
func (t Ternary) Accepts(v bool) bool {
	switch t {
	case TernaryYes:
		return v
	case TernaryNo:
		return !v
	default:
		return true
	}
}
