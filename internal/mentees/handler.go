package mentees

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes mentees over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers mentee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Delete("/", h.delete)
		r.Post("/toggle-status", h.action(h.service.ToggleStatus))
		r.Post("/archive", h.action(h.service.Archive))
		r.Post("/unarchive", h.action(h.service.Unarchive))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.List(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list mentees", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	m, ok, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get mentee", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req NewMentee
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create mentee", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) action(fn func(ctx context.Context, id string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		changed, err := fn(r.Context(), id)
		if err != nil {
			httpx.Fail(w, h.logger, "update mentee", err)
			return
		}
		m, _, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpx.Fail(w, h.logger, "get mentee", err)
			return
		}
		httpx.Mutation(w, id, changed, m)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "delete mentee", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}
