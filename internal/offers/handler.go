package offers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes offers, group sessions and session requests over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type mutation func(ctx context.Context, id string) (bool, error)

// MountRoutes registers offer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOffers)
	r.Post("/", h.createOffer)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Post("/", h.createSession)
		r.Post("/{id}/cancel", h.action("cancel session", h.service.CancelSession, nil))
		r.Post("/{id}/complete", h.action("complete session", h.service.CompleteSession, nil))
	})
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.listRequests)
		r.Post("/{id}/approve", h.action("approve request", h.service.ApproveRequest, nil))
		r.Post("/{id}/decline", h.action("decline request", h.service.DeclineRequest, nil))
	})
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.showOffer)
		r.Put("/", h.updateOffer)
		r.Delete("/", h.deleteOffer)
		r.Post("/toggle-active", h.action("toggle offer", h.service.ToggleActive, h.offerRecord))
		r.Post("/toggle-featured", h.action("feature offer", h.service.ToggleFeatured, h.offerRecord))
	})
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListOffers(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list offers", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListSessions(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list sessions", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListRequests(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list requests", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) showOffer(w http.ResponseWriter, r *http.Request) {
	offer, ok, err := h.service.GetOffer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get offer", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	offer, err := h.service.CreateOffer(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create offer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *Handler) updateOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	changed, err := h.service.UpdateOffer(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, "update offer", err)
		return
	}
	h.respond(w, r, id, changed, h.offerRecord)
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.DeleteOffer(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "delete offer", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req SessionInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) offerRecord(ctx context.Context, id string) (any, error) {
	offer, _, err := h.service.GetOffer(ctx, id)
	return offer, err
}

func (h *Handler) action(op string, fn mutation, record func(context.Context, string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		changed, err := fn(r.Context(), id)
		if err != nil {
			httpx.Fail(w, h.logger, op, err)
			return
		}
		h.respond(w, r, id, changed, record)
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, id string, changed bool, record func(context.Context, string) (any, error)) {
	var rec any
	if changed && record != nil {
		var err error
		if rec, err = record(r.Context(), id); err != nil {
			httpx.Fail(w, h.logger, "reload record", err)
			return
		}
	}
	httpx.Mutation(w, id, changed, rec)
}
