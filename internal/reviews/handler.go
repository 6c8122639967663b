package reviews

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes reviews over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers review routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Delete("/", h.delete)
		r.Post("/feature", h.action(h.service.ToggleFeatured))
		r.Post("/flag", h.action(h.service.Flag))
		r.Post("/unflag", h.action(h.service.Unflag))
		r.Post("/archive", h.action(h.service.Archive))
		r.Post("/unarchive", h.action(h.service.Unarchive))
		r.Post("/resolve", h.action(h.service.Resolve))
		r.Post("/status", h.setStatus)
		r.Post("/replies", h.reply)
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
		httpx.Fail(w, h.logger, "list reviews", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.Stats(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "review stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	review, ok, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get review", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, review)
}

func (h *Handler) action(fn func(ctx context.Context, id string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		changed, err := fn(r.Context(), id)
		h.respondReview(w, r, id, changed, err)
	}
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	changed, err := h.service.SetStatus(r.Context(), id, req.Status)
	h.respondReview(w, r, id, changed, err)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	reply, ok, err := h.service.Reply(r.Context(), id, req.Body)
	if err != nil {
		httpx.Fail(w, h.logger, "reply to review", err)
		return
	}
	if !ok {
		httpx.Mutation(w, id, false, nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, reply)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "delete review", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}

func (h *Handler) respondReview(w http.ResponseWriter, r *http.Request, id string, changed bool, err error) {
	if err != nil {
		httpx.Fail(w, h.logger, "update review", err)
		return
	}
	review, _, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get review", err)
		return
	}
	httpx.Mutation(w, id, changed, review)
}
