package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// SortMode selects the comparator applied after filtering.
type SortMode string

const (
	SortTimeDesc   SortMode = "time_desc"
	SortTimeAsc    SortMode = "time_asc"
	SortNumberDesc SortMode = "number_desc"
	SortNumberAsc  SortMode = "number_asc"

	flagSortPrefix = "flag:"
)

// FlagFirst orders records whose flag is true before the rest.
func FlagFirst(flag string) SortMode {
	return SortMode(flagSortPrefix + flag)
}

// ResolveSort maps a requested sort name to a mode. Empty names resolve to
// SortTimeDesc; page specific names come from Schema.Sorts.
func (s Schema[T]) ResolveSort(name string) (SortMode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SortTimeDesc, nil
	}
	if mode, ok := s.Sorts[name]; ok {
		return mode, nil
	}
	mode := SortMode(name)
	if _, err := s.comparator(mode); err != nil {
		return "", err
	}
	return mode, nil
}

// Sort returns a sorted copy of items. Numeric and flag modes break ties by
// time, newest first; equal keys keep their input order.
func (s Schema[T]) Sort(mode SortMode, items []T) ([]T, error) {
	if mode == "" {
		mode = SortTimeDesc
	}
	compare, err := s.comparator(mode)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, compare)
	return out, nil
}

func (s Schema[T]) comparator(mode SortMode) (func(a, b T) int, error) {
	newestFirst := func(a, b T) int {
		if s.Time == nil {
			return 0
		}
		return cmp.Compare(s.Time(b).UnixMilli(), s.Time(a).UnixMilli())
	}
	switch mode {
	case SortTimeDesc:
		if s.Time == nil {
			break
		}
		return newestFirst, nil
	case SortTimeAsc:
		if s.Time == nil {
			break
		}
		return func(a, b T) int {
			return cmp.Compare(s.Time(a).UnixMilli(), s.Time(b).UnixMilli())
		}, nil
	case SortNumberDesc:
		if s.Number == nil {
			break
		}
		return func(a, b T) int {
			if c := cmp.Compare(s.Number(b), s.Number(a)); c != 0 {
				return c
			}
			return newestFirst(a, b)
		}, nil
	case SortNumberAsc:
		if s.Number == nil {
			break
		}
		return func(a, b T) int {
			if c := cmp.Compare(s.Number(a), s.Number(b)); c != 0 {
				return c
			}
			return newestFirst(a, b)
		}, nil
	default:
		name, ok := strings.CutPrefix(string(mode), flagSortPrefix)
		if !ok {
			break
		}
		flag, ok := s.Flags[name]
		if !ok {
			break
		}
		return func(a, b T) int {
			fa, fb := flag(a), flag(b)
			switch {
			case fa && !fb:
				return -1
			case !fa && fb:
				return 1
			}
			return newestFirst(a, b)
		}, nil
	}
	return nil, shared.NewValidationError("sort", "unsupported sort "+string(mode))
}
