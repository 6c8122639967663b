// Package offers holds what the mentor sells: bookable offers, scheduled
// group sessions and incoming session requests.
package offers

import (
	"slices"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// Collection names. Requests live in the sessions store shared with the
// booking flow.
const (
	OffersCollection   = "offers.offers"
	SessionsCollection = "offers.sessions"
	RequestsCollection = "sessions.requests"
)

// Kind is the format of an offer.
type Kind string

const (
	KindOneOnOne Kind = "one_on_one"
	KindGroup    Kind = "group"
	KindPackage  Kind = "package"
)

// Offer is a bookable service.
type Offer struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Kind            Kind      `json:"kind" yaml:"kind"`
	Price           float64   `json:"price" yaml:"price"`
	Currency        string    `json:"currency" yaml:"currency"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	Active          bool      `json:"active" yaml:"active"`
	Featured        bool      `json:"featured" yaml:"featured"`
	Tags            []string  `json:"tags" yaml:"tags"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// Clone deep-copies o.
func (o Offer) Clone() Offer {
	o.Tags = slices.Clone(o.Tags)
	return o
}

// OfferInput is the create and update payload.
type OfferInput struct {
	Title           string   `json:"title" validate:"required,max=120"`
	Description     string   `json:"description" validate:"max=2000"`
	Kind            Kind     `json:"kind" validate:"required,oneof=one_on_one group package"`
	Price           float64  `json:"price" validate:"gte=0"`
	Currency        string   `json:"currency" validate:"required,iso4217"`
	DurationMinutes int      `json:"duration_minutes" validate:"gte=15,lte=480"`
	Tags            []string `json:"tags" validate:"max=10,dive,required,max=32"`
}

// SessionStatus is the lifecycle of a group session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

// SessionTransitions is the group session allow-list.
var SessionTransitions = collection.Transitions{
	string(SessionScheduled): {string(SessionCancelled), string(SessionCompleted)},
}

// GroupSession is one scheduled run of a group offer.
type GroupSession struct {
	ID       string        `json:"id" yaml:"id"`
	OfferID  string        `json:"offer_id" yaml:"offer_id"`
	Title    string        `json:"title" yaml:"title"`
	StartsAt time.Time     `json:"starts_at" yaml:"starts_at"`
	Capacity int           `json:"capacity" yaml:"capacity"`
	Enrolled int           `json:"enrolled" yaml:"enrolled"`
	Price    float64       `json:"price" yaml:"price"`
	Status   SessionStatus `json:"status" yaml:"status"`
}

// OpenSlots is how many more mentees can enrol.
func (g GroupSession) OpenSlots() int {
	if g.Status != SessionScheduled || g.Enrolled >= g.Capacity {
		return 0
	}
	return g.Capacity - g.Enrolled
}

// SessionInput is the create payload for a group session.
type SessionInput struct {
	OfferID  string    `json:"offer_id" validate:"required"`
	Title    string    `json:"title" validate:"required,max=120"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	Capacity int       `json:"capacity" validate:"gte=2,lte=500"`
	Enrolled int       `json:"enrolled" validate:"gte=0,ltefield=Capacity"`
	Price    float64   `json:"price" validate:"gte=0"`
}

// RequestStatus is the decision on a session request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDeclined RequestStatus = "declined"
)

// RequestTransitions lets only pending requests be decided.
var RequestTransitions = collection.Transitions{
	string(RequestPending): {string(RequestApproved), string(RequestDeclined)},
}

// Request is a mentee asking to book an offer.
type Request struct {
	ID          string        `json:"id" yaml:"id"`
	Mentee      string        `json:"mentee" yaml:"mentee"`
	OfferID     string        `json:"offer_id" yaml:"offer_id"`
	Message     string        `json:"message" yaml:"message"`
	Status      RequestStatus `json:"status" yaml:"status"`
	RequestedAt time.Time     `json:"requested_at" yaml:"requested_at"`
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// OfferSchema reads offers. The status is active or inactive; categories are
// the kind followed by the tags.
var OfferSchema = query.Schema[Offer]{
	ID:       func(o Offer) string { return o.ID },
	Time:     func(o Offer) time.Time { return o.CreatedAt },
	Status:   func(o Offer) string { return activeLabel(o.Active) },
	Category: func(o Offer) []string { return append([]string{string(o.Kind)}, o.Tags...) },
	Text:     func(o Offer) []string { return []string{o.Title, o.Description} },
	Number:   func(o Offer) float64 { return o.Price },
	Flags: map[string]func(Offer) bool{
		"active":   func(o Offer) bool { return o.Active },
		"featured": func(o Offer) bool { return o.Featured },
	},
	Sorts: map[string]query.SortMode{
		"newest":         query.SortTimeDesc,
		"oldest":         query.SortTimeAsc,
		"price_desc":     query.SortNumberDesc,
		"price_asc":      query.SortNumberAsc,
		"featured_first": query.FlagFirst("featured"),
	},
}

// SessionSchema reads group sessions. The category is the offer id.
var SessionSchema = query.Schema[GroupSession]{
	ID:       func(g GroupSession) string { return g.ID },
	Time:     func(g GroupSession) time.Time { return g.StartsAt },
	Status:   func(g GroupSession) string { return string(g.Status) },
	Category: func(g GroupSession) []string { return []string{g.OfferID} },
	Text:     func(g GroupSession) []string { return []string{g.Title} },
	Number:   func(g GroupSession) float64 { return float64(g.OpenSlots()) },
	Flags: map[string]func(GroupSession) bool{
		"has_slots": func(g GroupSession) bool { return g.OpenSlots() > 0 },
	},
	Sorts: map[string]query.SortMode{
		"soonest":    query.SortTimeAsc,
		"latest":     query.SortTimeDesc,
		"slots_desc": query.SortNumberDesc,
	},
}

// RequestSchema reads session requests. The category is the offer id.
var RequestSchema = query.Schema[Request]{
	ID:       func(r Request) string { return r.ID },
	Time:     func(r Request) time.Time { return r.RequestedAt },
	Status:   func(r Request) string { return string(r.Status) },
	Category: func(r Request) []string { return []string{r.OfferID} },
	Text:     func(r Request) []string { return []string{r.Mentee, r.Message} },
	Flags: map[string]func(Request) bool{
		"pending": func(r Request) bool { return r.Status == RequestPending },
	},
	Sorts: map[string]query.SortMode{
		"newest":        query.SortTimeDesc,
		"oldest":        query.SortTimeAsc,
		"pending_first": query.FlagFirst("pending"),
	},
}
