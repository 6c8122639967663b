package collection

import (
	"fmt"
	"slices"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// ErrInvalidTransition reports a status change outside the allow-list.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrValidation)

// Transitions is a per record type allow-list of status changes.
type Transitions map[string][]string

// Allowed reports whether from -> to is permitted.
func (t Transitions) Allowed(from, to string) bool {
	return slices.Contains(t[from], to)
}

// Check returns ErrInvalidTransition when from -> to is not permitted.
func (t Transitions) Check(from, to string) error {
	if t.Allowed(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// States lists every status mentioned by the allow-list.
func (t Transitions) States() []string {
	var out []string
	for from, tos := range t {
		if !slices.Contains(out, from) {
			out = append(out, from)
		}
		for _, to := range tos {
			if !slices.Contains(out, to) {
				out = append(out, to)
			}
		}
	}
	slices.Sort(out)
	return out
}
