// Package mentees manages the mentor's mentee roster.
package mentees

import (
	"slices"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// CollectionName is the storage name of the roster.
const CollectionName = "mentees.mentees"

// Status is the engagement state of a mentee.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Transitions is the mentee allow-list.
var Transitions = collection.Transitions{
	string(StatusActive):   {string(StatusPaused), string(StatusArchived)},
	string(StatusPaused):   {string(StatusActive), string(StatusArchived)},
	string(StatusArchived): {string(StatusActive)},
}

// Mentee is one person the mentor works with.
type Mentee struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Email         string     `json:"email" yaml:"email"`
	Goals         string     `json:"goals" yaml:"goals"`
	Tags          []string   `json:"tags" yaml:"tags"`
	Status        Status     `json:"status" yaml:"status"`
	Sessions      int        `json:"sessions" yaml:"sessions"`
	JoinedAt      time.Time  `json:"joined_at" yaml:"joined_at"`
	LastSessionAt *time.Time `json:"last_session_at,omitempty" yaml:"last_session_at"`
	Notes         string     `json:"notes" yaml:"notes"`
}

// Clone deep-copies m.
func (m Mentee) Clone() Mentee {
	m.Tags = slices.Clone(m.Tags)
	if m.LastSessionAt != nil {
		at := *m.LastSessionAt
		m.LastSessionAt = &at
	}
	return m
}

// NewMentee is the create payload.
type NewMentee struct {
	Name  string   `json:"name" validate:"required,max=120"`
	Email string   `json:"email" validate:"required,email"`
	Goals string   `json:"goals" validate:"max=2000"`
	Tags  []string `json:"tags" validate:"max=10,dive,required,max=32"`
	Notes string   `json:"notes" validate:"max=2000"`
}

// Schema reads mentees. Categories are tags; the number is the session count.
var Schema = query.Schema[Mentee]{
	ID:       func(m Mentee) string { return m.ID },
	Time:     func(m Mentee) time.Time { return m.JoinedAt },
	Status:   func(m Mentee) string { return string(m.Status) },
	Category: func(m Mentee) []string { return m.Tags },
	Text:     func(m Mentee) []string { return []string{m.Name, m.Email, m.Goals, m.Notes} },
	Number:   func(m Mentee) float64 { return float64(m.Sessions) },
	Flags: map[string]func(Mentee) bool{
		"archived":     func(m Mentee) bool { return m.Status == StatusArchived },
		"has_sessions": func(m Mentee) bool { return m.Sessions > 0 },
	},
	Sorts: map[string]query.SortMode{
		"newest":        query.SortTimeDesc,
		"oldest":        query.SortTimeAsc,
		"sessions_desc": query.SortNumberDesc,
		"sessions_asc":  query.SortNumberAsc,
	},
}
