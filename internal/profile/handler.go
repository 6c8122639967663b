package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// ActorHeader names the caller in audit entries.
const ActorHeader = "X-Actor"

// Handler exposes the profile over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Patch("/", h.update)
	r.Get("/audit", h.listAudit)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "get profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type updateResponse struct {
	Profile Profile      `json:"profile"`
	Audit   []AuditEntry `json:"audit"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, entries, err := h.service.Update(r.Context(), r.Header.Get(ActorHeader), patch)
	if err != nil {
		httpx.Fail(w, h.logger, "update profile", err)
		return
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	httpx.JSON(w, http.StatusOK, updateResponse{Profile: p, Audit: entries})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListAudit(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list profile audit", err)
		return
	}
	httpx.Page(w, r, page, etag)
}
