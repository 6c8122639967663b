package activity

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes the activity feed over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/export.csv", h.export)
	r.Post("/read-all", h.markAllRead)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Post("/read", h.setRead(true))
		r.Post("/unread", h.setRead(false))
		r.Post("/archive", h.toggleArchive)
		r.Delete("/", h.delete)
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
		h.fail(w, "list activity", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	item, ok, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get activity", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), view, &buf); err != nil {
		h.fail(w, "export activity", err)
		return
	}
	httpx.Text(w, "activity.csv", "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) setRead(read bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		changed, err := h.service.SetRead(r.Context(), id, read)
		h.respondMutation(w, r, id, changed, err)
	}
}

func (h *Handler) toggleArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	changed, err := h.service.ToggleArchive(r.Context(), id)
	h.respondMutation(w, r, id, changed, err)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllRead(r.Context())
	if err != nil {
		h.fail(w, "mark all read", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, "delete activity", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}

func (h *Handler) respondMutation(w http.ResponseWriter, r *http.Request, id string, changed bool, err error) {
	if err != nil {
		h.fail(w, "update activity", err)
		return
	}
	item, _, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get activity", err)
		return
	}
	httpx.Mutation(w, id, changed, item)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	httpx.Fail(w, h.logger, op, err)
}
