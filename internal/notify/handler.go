package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
)

// Handler exposes the notice list.
type Handler struct {
	center *Center
}

// NewHandler builds Handler instance.
func NewHandler(center *Center) *Handler {
	return &Handler{center: center}
}

// MountRoutes registers notice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Delete("/", h.clear)
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	notices := h.center.List()
	if notices == nil {
		notices = []Notice{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": notices})
}

func (h *Handler) clear(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]int{"cleared": h.center.Clear()})
}
