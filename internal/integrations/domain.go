// Package integrations manages outgoing webhooks and their delivery log.
package integrations

import (
	"slices"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// Collection names.
const (
	WebhooksCollection   = "integrations.webhooks"
	DeliveriesCollection = "integrations.deliveries"
)

// Events a webhook may subscribe to.
var Events = []string{
	"booking.created",
	"booking.cancelled",
	"review.created",
	"invoice.paid",
	"payout.paid",
}

// Webhook is a subscribed endpoint.
type Webhook struct {
	ID        string    `json:"id" yaml:"id"`
	URL       string    `json:"url" yaml:"url"`
	Events    []string  `json:"events" yaml:"events"`
	Active    bool      `json:"active" yaml:"active"`
	Secret    string    `json:"secret" yaml:"secret"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Clone deep-copies w.
func (w Webhook) Clone() Webhook {
	w.Events = slices.Clone(w.Events)
	return w
}

// WebhookInput is the create payload.
type WebhookInput struct {
	URL    string   `json:"url" validate:"required,http_url,max=2048"`
	Events []string `json:"events" validate:"required,min=1,dive,oneof=booking.created booking.cancelled review.created invoice.paid payout.paid"`
}

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySucceeded DeliveryStatus = "succeeded"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryTransitions is the delivery allow-list.
var DeliveryTransitions = collection.Transitions{
	string(DeliveryPending): {string(DeliverySucceeded), string(DeliveryFailed)},
}

// Delivery is one attempt to post an event to a webhook.
type Delivery struct {
	ID           string         `json:"id" yaml:"id"`
	WebhookID    string         `json:"webhook_id" yaml:"webhook_id"`
	Event        string         `json:"event" yaml:"event"`
	Status       DeliveryStatus `json:"status" yaml:"status"`
	ResponseCode int            `json:"response_code" yaml:"response_code"`
	DurationMS   int            `json:"duration_ms" yaml:"duration_ms"`
	At           time.Time      `json:"at" yaml:"at"`
}

// WebhookSchema reads webhooks. The status is active or inactive; categories
// are the subscribed events.
var WebhookSchema = query.Schema[Webhook]{
	ID:   func(w Webhook) string { return w.ID },
	Time: func(w Webhook) time.Time { return w.CreatedAt },
	Status: func(w Webhook) string {
		if w.Active {
			return "active"
		}
		return "inactive"
	},
	Category: func(w Webhook) []string { return w.Events },
	Text:     func(w Webhook) []string { return []string{w.URL} },
}

// DeliverySchema reads deliveries. The category is the event.
var DeliverySchema = query.Schema[Delivery]{
	ID:       func(d Delivery) string { return d.ID },
	Time:     func(d Delivery) time.Time { return d.At },
	Status:   func(d Delivery) string { return string(d.Status) },
	Category: func(d Delivery) []string { return []string{d.Event} },
	Text:     func(d Delivery) []string { return []string{d.WebhookID, d.Event} },
	Number:   func(d Delivery) float64 { return float64(d.DurationMS) },
	Flags: map[string]func(Delivery) bool{
		"failed": func(d Delivery) bool { return d.Status == DeliveryFailed },
	},
	Sorts: map[string]query.SortMode{
		"newest":       query.SortTimeDesc,
		"oldest":       query.SortTimeAsc,
		"slowest":      query.SortNumberDesc,
		"failed_first": query.FlagFirst("failed"),
	},
}
