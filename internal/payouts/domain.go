// Package payouts covers what the mentor bills and earns: invoices sent to
// mentees, payouts received from the platform and yearly tax documents.
package payouts

import (
	"strconv"
	"time"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// Collection names.
const (
	InvoicesCollection = "payouts.invoices"
	PayoutsCollection  = "payouts.payouts"
	TaxesCollection    = "payouts.taxes"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceDue      InvoiceStatus = "due"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceOverdue  InvoiceStatus = "overdue"
	InvoiceRefunded InvoiceStatus = "refunded"
)

// InvoiceTransitions is the invoice allow-list.
var InvoiceTransitions = collection.Transitions{
	string(InvoiceDue):     {string(InvoicePaid), string(InvoiceOverdue)},
	string(InvoiceOverdue): {string(InvoicePaid)},
	string(InvoicePaid):    {string(InvoiceRefunded)},
}

// PayoutStatus is the transfer state of a payout.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
	PayoutFailed  PayoutStatus = "failed"
)

// PayoutTransitions is the payout allow-list.
var PayoutTransitions = collection.Transitions{
	string(PayoutPending): {string(PayoutPaid), string(PayoutFailed)},
}

// Invoice is a bill sent to a mentee.
type Invoice struct {
	ID          string        `json:"id" yaml:"id"`
	Mentee      string        `json:"mentee" yaml:"mentee"`
	Description string        `json:"description" yaml:"description"`
	Amount      float64       `json:"amount" yaml:"amount"`
	Currency    string        `json:"currency" yaml:"currency"`
	Status      InvoiceStatus `json:"status" yaml:"status"`
	Date        time.Time     `json:"date" yaml:"date"`
}

// Payout is a transfer to the mentor.
type Payout struct {
	ID        string       `json:"id" yaml:"id"`
	Amount    float64      `json:"amount" yaml:"amount"`
	Currency  string       `json:"currency" yaml:"currency"`
	Method    string       `json:"method" yaml:"method"`
	Reference string       `json:"reference" yaml:"reference"`
	Status    PayoutStatus `json:"status" yaml:"status"`
	Date      time.Time    `json:"date" yaml:"date"`
}

// TaxStatus tells whether a tax document can be downloaded.
type TaxStatus string

const (
	TaxAvailable TaxStatus = "available"
	TaxPending   TaxStatus = "pending"
)

// TaxDocument is a yearly earnings statement.
type TaxDocument struct {
	ID       string    `json:"id" yaml:"id"`
	Year     int       `json:"year" yaml:"year"`
	Form     string    `json:"form" yaml:"form"`
	Amount   float64   `json:"amount" yaml:"amount"`
	Currency string    `json:"currency" yaml:"currency"`
	Status   TaxStatus `json:"status" yaml:"status"`
	IssuedAt time.Time `json:"issued_at" yaml:"issued_at"`
}

// InvoiceSchema reads invoices. The category is the currency.
var InvoiceSchema = query.Schema[Invoice]{
	ID:       func(i Invoice) string { return i.ID },
	Time:     func(i Invoice) time.Time { return i.Date },
	Status:   func(i Invoice) string { return string(i.Status) },
	Category: func(i Invoice) []string { return []string{i.Currency} },
	Text:     func(i Invoice) []string { return []string{i.ID, i.Mentee, i.Description} },
	Number:   func(i Invoice) float64 { return i.Amount },
	Flags: map[string]func(Invoice) bool{
		"overdue": func(i Invoice) bool { return i.Status == InvoiceOverdue },
	},
	Sorts: map[string]query.SortMode{
		"newest":        query.SortTimeDesc,
		"oldest":        query.SortTimeAsc,
		"amount_desc":   query.SortNumberDesc,
		"amount_asc":    query.SortNumberAsc,
		"overdue_first": query.FlagFirst("overdue"),
	},
}

// PayoutSchema reads payouts. The category is the method.
var PayoutSchema = query.Schema[Payout]{
	ID:       func(p Payout) string { return p.ID },
	Time:     func(p Payout) time.Time { return p.Date },
	Status:   func(p Payout) string { return string(p.Status) },
	Category: func(p Payout) []string { return []string{p.Method} },
	Text:     func(p Payout) []string { return []string{p.ID, p.Reference, p.Method} },
	Number:   func(p Payout) float64 { return p.Amount },
	Sorts: map[string]query.SortMode{
		"amount_desc": query.SortNumberDesc,
		"amount_asc":  query.SortNumberAsc,
	},
}

// TaxSchema reads tax documents. The category is the form.
var TaxSchema = query.Schema[TaxDocument]{
	ID:       func(d TaxDocument) string { return d.ID },
	Time:     func(d TaxDocument) time.Time { return d.IssuedAt },
	Status:   func(d TaxDocument) string { return string(d.Status) },
	Category: func(d TaxDocument) []string { return []string{d.Form} },
	Text:     func(d TaxDocument) []string { return []string{d.ID, d.Form, strconv.Itoa(d.Year)} },
	Number:   func(d TaxDocument) float64 { return d.Amount },
}
