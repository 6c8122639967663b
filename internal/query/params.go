package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/shared"
)

const flagParamPrefix = "flag."

// ParseValues builds a View from list query parameters:
//
//	q, status, category, min, max, from, to, flag.<name>, sort, page, per_page
//
// status and category accept repeated or comma separated values; "all" (or an
// absent key) is unrestricted, while a present but empty category selects
// nothing. Date-only "to" bounds cover the whole day.
func ParseValues(values url.Values) (*View, error) {
	v := NewView(shared.DefaultPerPage)
	if raw := strings.TrimSpace(values.Get("per_page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, shared.NewValidationError("per_page", "must be a positive integer")
		}
		v.SetPerPage(n)
	}

	f := Filter{Query: values.Get("q")}
	f.Status = parseSelection(values, "status", false)
	f.Categories = parseSelection(values, "category", true)

	var err error
	if f.MinNumber, err = parseNumber(values, "min"); err != nil {
		return nil, err
	}
	if f.MaxNumber, err = parseNumber(values, "max"); err != nil {
		return nil, err
	}
	if f.From, err = parseBound(values, "from", false); err != nil {
		return nil, err
	}
	if f.To, err = parseBound(values, "to", true); err != nil {
		return nil, err
	}
	for key, vals := range values {
		name, ok := strings.CutPrefix(key, flagParamPrefix)
		if !ok || name == "" || len(vals) == 0 {
			continue
		}
		t := Ternary(strings.ToLower(strings.TrimSpace(vals[0])))
		if !t.Valid() {
			return nil, shared.NewValidationError(key, "must be all, yes or no")
		}
		if f.Flags == nil {
			f.Flags = make(map[string]Ternary)
		}
		f.Flags[name] = t
	}
	v.SetFilter(f)
	v.SetSort(values.Get("sort"))

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, shared.NewValidationError("page", "must be an integer")
		}
		v.SetPage(n)
	}
	return v, nil
}

func parseSelection(values url.Values, key string, emptyMeansNone bool) Selection {
	raw, present := values[key]
	if !present {
		return All()
	}
	var picked []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				return All()
			}
			picked = append(picked, part)
		}
	}
	if len(picked) == 0 && !emptyMeansNone {
		return All()
	}
	return Only(picked...)
}

func parseNumber(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, shared.NewValidationError(key, "must be a number")
	}
	return &n, nil
}

func parseBound(values url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, shared.NewValidationError(key, "must be YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}
