package payouts

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes invoices, payouts and tax documents over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payouts routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Get("/{id}", h.showInvoice)
		r.Post("/{id}/status", h.setInvoiceStatus)
		r.Get("/{id}/receipt.txt", h.invoiceReceipt)
	})
	r.Route("/payouts", func(r chi.Router) {
		r.Get("/", h.listPayouts)
		r.Get("/{id}", h.showPayout)
		r.Post("/{id}/status", h.setPayoutStatus)
		r.Get("/{id}/receipt.txt", h.payoutReceipt)
	})
	r.Get("/taxes", h.listTaxes)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListInvoices(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list invoices", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListPayouts(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list payouts", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) listTaxes(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListTaxDocuments(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list tax documents", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get invoice", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) showPayout(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.service.GetPayout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get payout", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	changed, err := h.service.SetInvoiceStatus(r.Context(), id, InvoiceStatus(req.Status))
	if err != nil {
		httpx.Fail(w, h.logger, "set invoice status", err)
		return
	}
	inv, _, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get invoice", err)
		return
	}
	httpx.Mutation(w, id, changed, inv)
}

func (h *Handler) setPayoutStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	changed, err := h.service.SetPayoutStatus(r.Context(), id, PayoutStatus(req.Status))
	if err != nil {
		httpx.Fail(w, h.logger, "set payout status", err)
		return
	}
	p, _, err := h.service.GetPayout(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get payout", err)
		return
	}
	httpx.Mutation(w, id, changed, p)
}

func (h *Handler) invoiceReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := h.service.InvoiceReceipt(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "invoice receipt", err)
		return
	}
	httpx.Text(w, fmt.Sprintf("receipt-%s.txt", id), "text/plain; charset=utf-8", body)
}

func (h *Handler) payoutReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := h.service.PayoutReceipt(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "payout receipt", err)
		return
	}
	httpx.Text(w, fmt.Sprintf("receipt-%s.txt", id), "text/plain; charset=utf-8", body)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "payouts summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}
