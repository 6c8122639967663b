package payouts

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
	"github.com/mentordesk/mentordesk/internal/seed"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// NewInvoices binds the invoices collection.
func NewInvoices(env collection.Env) *collection.Collection[Invoice] {
	return collection.Bind(env, InvoicesCollection, collection.Options[Invoice]{
		ID:   func(i Invoice) string { return i.ID },
		Seed: seed.Func[Invoice]("invoices"),
	})
}

// NewPayouts binds the payouts collection.
func NewPayouts(env collection.Env) *collection.Collection[Payout] {
	return collection.Bind(env, PayoutsCollection, collection.Options[Payout]{
		ID:   func(p Payout) string { return p.ID },
		Seed: seed.Func[Payout]("payouts"),
	})
}

// NewTaxes binds the tax documents collection.
func NewTaxes(env collection.Env) *collection.Collection[TaxDocument] {
	return collection.Bind(env, TaxesCollection, collection.Options[TaxDocument]{
		ID:   func(d TaxDocument) string { return d.ID },
		Seed: seed.Func[TaxDocument]("taxes"),
	})
}

// Service implements the payouts page.
type Service struct {
	invoices *collection.Collection[Invoice]
	payouts  *collection.Collection[Payout]
	taxes    *collection.Collection[TaxDocument]
	logger   *slog.Logger
}

// NewService constructs the service.
func NewService(
	invoices *collection.Collection[Invoice],
	payouts *collection.Collection[Payout],
	taxes *collection.Collection[TaxDocument],
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, payouts: payouts, taxes: taxes, logger: logger}
}

// ListInvoices runs v over the invoices.
func (s *Service) ListInvoices(ctx context.Context, v *query.View) (query.Page[Invoice], string, error) {
	return s.invoices.Query(ctx, v, InvoiceSchema)
}

// ListPayouts runs v over the payouts.
func (s *Service) ListPayouts(ctx context.Context, v *query.View) (query.Page[Payout], string, error) {
	return s.payouts.Query(ctx, v, PayoutSchema)
}

// ListTaxDocuments runs v over the tax documents.
func (s *Service) ListTaxDocuments(ctx context.Context, v *query.View) (query.Page[TaxDocument], string, error) {
	return s.taxes.Query(ctx, v, TaxSchema)
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, bool, error) {
	return s.invoices.Get(ctx, id)
}

// GetPayout returns one payout.
func (s *Service) GetPayout(ctx context.Context, id string) (Payout, bool, error) {
	return s.payouts.Get(ctx, id)
}

// SetInvoiceStatus moves an invoice along its allow-list.
func (s *Service) SetInvoiceStatus(ctx context.Context, id string, to InvoiceStatus) (bool, error) {
	if !slices.Contains(InvoiceTransitions.States(), string(to)) {
		return false, shared.NewValidationError("status", "unknown invoice status")
	}
	changed, err := s.invoices.Update(ctx, id, func(inv *Invoice) error {
		if err := InvoiceTransitions.Check(string(inv.Status), string(to)); err != nil {
			return err
		}
		inv.Status = to
		return nil
	})
	if changed {
		s.logger.Info("invoice status changed", slog.String("id", id), slog.String("status", string(to)))
	}
	return changed, err
}

// SetPayoutStatus moves a payout along its allow-list.
func (s *Service) SetPayoutStatus(ctx context.Context, id string, to PayoutStatus) (bool, error) {
	if !slices.Contains(PayoutTransitions.States(), string(to)) {
		return false, shared.NewValidationError("status", "unknown payout status")
	}
	changed, err := s.payouts.Update(ctx, id, func(p *Payout) error {
		if err := PayoutTransitions.Check(string(p.Status), string(to)); err != nil {
			return err
		}
		p.Status = to
		return nil
	})
	if changed {
		s.logger.Info("payout status changed", slog.String("id", id), slog.String("status", string(to)))
	}
	return changed, err
}

// InvoiceReceipt renders the receipt for id.
func (s *Service) InvoiceReceipt(ctx context.Context, id string) ([]byte, error) {
	inv, ok, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return InvoiceReceipt(inv)
}

// PayoutReceipt renders the receipt for id.
func (s *Service) PayoutReceipt(ctx context.Context, id string) ([]byte, error) {
	p, ok, err := s.payouts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return PayoutReceipt(p)
}

// StatusTotal counts records in one status and sums their amounts per
// currency.
type StatusTotal struct {
	Count   int                `json:"count"`
	Amounts map[string]float64 `json:"amounts"`
}

// Summary totals every payouts collection by status.
type Summary struct {
	Invoices map[string]StatusTotal `json:"invoices"`
	Payouts  map[string]StatusTotal `json:"payouts"`
	Taxes    map[string]StatusTotal `json:"taxes"`
}

func total[T any](items []T, status func(T) string, amount func(T) (float64, string)) map[string]StatusTotal {
	out := map[string]StatusTotal{}
	for _, item := range items {
		st := status(item)
		t, ok := out[st]
		if !ok {
			t.Amounts = map[string]float64{}
		}
		v, cur := amount(item)
		t.Count++
		t.Amounts[cur] += v
		out[st] = t
	}
	return out
}

// Summary computes totals per status across all three collections.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	payouts, err := s.payouts.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	taxes, err := s.taxes.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Invoices: total(invoices,
			func(i Invoice) string { return string(i.Status) },
			func(i Invoice) (float64, string) { return i.Amount, i.Currency }),
		Payouts: total(payouts,
			func(p Payout) string { return string(p.Status) },
			func(p Payout) (float64, string) { return p.Amount, p.Currency }),
		Taxes: total(taxes,
			func(d TaxDocument) string { return string(d.Status) },
			func(d TaxDocument) (float64, string) { return d.Amount, d.Currency }),
	}, nil
}
