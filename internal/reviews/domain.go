// Package reviews manages mentee reviews: moderation status, featuring and
// mentor replies with delivery receipts.
package reviews

import (
	"slices"
	"strings"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// CollectionName is the key suffix reviews are stored under.
const CollectionName = "reviews.reviews"

// Status is the moderation state of a review.
type Status string

const (
	StatusPublished Status = "published"
	StatusFlagged   Status = "flagged"
	StatusArchived  Status = "archived"
	StatusResolved  Status = "resolved"
)

// Transitions is the moderation allow-list.
var Transitions = collection.Transitions{
	string(StatusPublished): {string(StatusFlagged), string(StatusArchived)},
	string(StatusFlagged):   {string(StatusPublished), string(StatusArchived), string(StatusResolved)},
	string(StatusArchived):  {string(StatusPublished), string(StatusFlagged)},
	string(StatusResolved):  {string(StatusPublished), string(StatusArchived)},
}

// ReplyStatus tracks delivery of a mentor reply.
type ReplyStatus string

const (
	ReplySent      ReplyStatus = "sent"
	ReplyDelivered ReplyStatus = "delivered"
	ReplyRead      ReplyStatus = "read"
)

func (s ReplyStatus) rank() int {
	switch s {
	case ReplySent:
		return 1
	case ReplyDelivered:
		return 2
	case ReplyRead:
		return 3
	}
	return 0
}

// Media is an attachment on a review.
type Media struct {
	ID   string `json:"id" yaml:"id"`
	Kind string `json:"kind" yaml:"kind"`
	URL  string `json:"url" yaml:"url"`
}

// Reply is a mentor response to a review.
type Reply struct {
	ID        string      `json:"id" yaml:"id"`
	Body      string      `json:"body" yaml:"body"`
	Status    ReplyStatus `json:"status" yaml:"status"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
}

// Review is one mentee review.
type Review struct {
	ID        string    `json:"id" yaml:"id"`
	Reviewer  string    `json:"reviewer" yaml:"reviewer"`
	Title     string    `json:"title" yaml:"title"`
	Body      string    `json:"body" yaml:"body"`
	Rating    int       `json:"rating" yaml:"rating"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Status    Status    `json:"status" yaml:"status"`
	Featured  bool      `json:"featured" yaml:"featured"`
	Media     []Media   `json:"media" yaml:"media"`
	Replies   []Reply   `json:"replies" yaml:"replies"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Clone deep-copies the review.
func (r Review) Clone() Review {
	r.Tags = slices.Clone(r.Tags)
	r.Media = slices.Clone(r.Media)
	r.Replies = slices.Clone(r.Replies)
	return r
}

// Schema is how the query engine reads reviews. The number is the rating.
var Schema = query.Schema[Review]{
	ID:       func(r Review) string { return r.ID },
	Time:     func(r Review) time.Time { return r.CreatedAt },
	Status:   func(r Review) string { return string(r.Status) },
	Category: func(r Review) []string { return r.Tags },
	Text: func(r Review) []string {
		return []string{r.Reviewer, r.Title, r.Body, strings.Join(r.Tags, " ")}
	},
	Number: func(r Review) float64 { return float64(r.Rating) },
	Flags: map[string]func(Review) bool{
		"has_media": func(r Review) bool { return len(r.Media) > 0 },
		"has_reply": func(r Review) bool { return len(r.Replies) > 0 },
		"featured":  func(r Review) bool { return r.Featured },
		"flagged":   func(r Review) bool { return r.Status == StatusFlagged },
	},
	Sorts: map[string]query.SortMode{
		"newest":         query.SortTimeDesc,
		"oldest":         query.SortTimeAsc,
		"rating_desc":    query.SortNumberDesc,
		"rating_asc":     query.SortNumberAsc,
		"flagged_first":  query.FlagFirst("flagged"),
		"featured_first": query.FlagFirst("featured"),
	},
}

// Stats summarises a set of reviews.
type Stats struct {
	Count        int            `json:"count"`
	Average      float64        `json:"average"`
	Distribution map[int]int    `json:"distribution"`
	ByStatus     map[Status]int `json:"by_status"`
	Featured     int            `json:"featured"`
	Replied      int            `json:"replied"`
}

// Summarise computes Stats over reviews. The average is rounded to two
// decimals; an empty set averages zero.
func Summarise(reviews []Review) Stats {
	st := Stats{
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		ByStatus:     map[Status]int{},
	}
	total := 0
	for _, r := range reviews {
		st.Count++
		total += r.Rating
		st.Distribution[r.Rating]++
		st.ByStatus[r.Status]++
		if r.Featured {
			st.Featured++
		}
		if len(r.Replies) > 0 {
			st.Replied++
		}
	}
	if st.Count > 0 {
		avg := float64(total) / float64(st.Count)
		st.Average = float64(int(avg*100+0.5)) / 100
	}
	return st
}
