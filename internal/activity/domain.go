// Package activity is the mentor's event feed: bookings, payouts, reviews,
// messages and system notices, with read and archive state.
package activity

import (
	"slices"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/query"
)

// CollectionName is the key suffix the feed is stored under.
const CollectionName = "activity.items"

// Kind classifies a feed entry.
type Kind string

const (
	KindBooking Kind = "booking"
	KindPayout  Kind = "payout"
	KindReview  Kind = "review"
	KindMessage Kind = "message"
	KindSystem  Kind = "system"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindBooking, KindPayout, KindReview, KindMessage, KindSystem:
		return true
	}
	return false
}

// Item is one feed entry.
type Item struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        Kind      `json:"kind" yaml:"kind"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Actor       string    `json:"actor" yaml:"actor"`
	Tags        []string  `json:"tags" yaml:"tags"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Read        bool      `json:"read" yaml:"read"`
	Archived    bool      `json:"archived" yaml:"archived"`
}

// Clone deep-copies the item.
func (i Item) Clone() Item {
	i.Tags = slices.Clone(i.Tags)
	return i
}

// Schema is how the query engine reads feed entries. Status is the kind and
// categories are the tags.
var Schema = query.Schema[Item]{
	ID:       func(i Item) string { return i.ID },
	Time:     func(i Item) time.Time { return i.CreatedAt },
	Status:   func(i Item) string { return string(i.Kind) },
	Category: func(i Item) []string { return i.Tags },
	Text: func(i Item) []string {
		return []string{i.Title, i.Description, i.Actor, strings.Join(i.Tags, " ")}
	},
	Flags: map[string]func(Item) bool{
		"read":     func(i Item) bool { return i.Read },
		"unread":   func(i Item) bool { return !i.Read },
		"archived": func(i Item) bool { return i.Archived },
	},
	Sorts: map[string]query.SortMode{
		"newest":       query.SortTimeDesc,
		"oldest":       query.SortTimeAsc,
		"unread_first": query.FlagFirst("unread"),
	},
}
