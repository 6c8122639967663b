package integrations

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes webhooks and deliveries over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers integration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", h.listWebhooks)
		r.Post("/", h.createWebhook)
		r.Get("/{id}", h.showWebhook)
		r.Post("/{id}/toggle", h.toggleWebhook)
		r.Delete("/{id}", h.deleteWebhook)
	})
	r.Route("/deliveries", func(r chi.Router) {
		r.Get("/", h.listDeliveries)
		r.Post("/{id}/redeliver", h.redeliver)
	})
}

func (h *Handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListWebhooks(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list webhooks", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) showWebhook(w http.ResponseWriter, r *http.Request) {
	hook, ok, err := h.service.GetWebhook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get webhook", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, hook)
}

func (h *Handler) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	hook, err := h.service.CreateWebhook(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create webhook", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, hook)
}

func (h *Handler) toggleWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	changed, err := h.service.ToggleWebhook(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "toggle webhook", err)
		return
	}
	hook, _, err := h.service.GetWebhook(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get webhook", err)
		return
	}
	httpx.Mutation(w, id, changed, hook)
}

func (h *Handler) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.DeleteWebhook(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "delete webhook", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListDeliveries(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list deliveries", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) redeliver(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok, err := h.service.Redeliver(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "redeliver", err)
		return
	}
	if !ok {
		httpx.Mutation(w, id, false, nil)
		return
	}
	httpx.JSON(w, http.StatusAccepted, d)
}
