package kyc

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentordesk/mentordesk/internal/platform/httpx"
	"github.com/mentordesk/mentordesk/internal/shared"
)

// DefaultMaxUpload caps an uploaded document at 10 MiB.
const DefaultMaxUpload = 10 << 20

// Handler exposes documents and the verification request over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	maxUpload int64
}

// NewHandler builds Handler instance. maxUpload <= 0 uses DefaultMaxUpload.
func NewHandler(logger *slog.Logger, service *Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{logger: logger, service: service, maxUpload: maxUpload}
}

// MountRoutes registers kyc routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.listDocuments)
		r.Post("/", h.upload)
		r.Get("/{id}", h.showDocument)
		r.Post("/{id}/verify", h.verify)
		r.Post("/{id}/reject", h.reject)
		r.Delete("/{id}", h.deleteDocument)
	})
	r.Get("/verification", h.showVerification)
	r.Post("/verification/submit", h.submit)
	r.Post("/verification/decide", h.decide)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	view, err := httpx.ListView(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, etag, err := h.service.ListDocuments(r.Context(), view)
	if err != nil {
		httpx.Fail(w, h.logger, "list kyc documents", err)
		return
	}
	httpx.Page(w, r, page, etag)
}

func (h *Handler) showDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok, err := h.service.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, h.logger, "get kyc document", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// upload accepts multipart/form-data with a "type" field and a "file" part.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.RespondError(w, shared.NewValidationError("file", "too large"))
			return
		}
		httpx.RespondError(w, shared.NewValidationError("file", "expecting multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("file", "missing file part"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("file", "failed to read upload"))
		return
	}
	doc, err := h.service.Upload(r.Context(), UploadInput{
		Type:     DocType(r.FormValue("type")),
		FileName: header.Filename,
		Content:  content,
	})
	if err != nil {
		httpx.Fail(w, h.logger, "upload kyc document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	changed, err := h.service.MarkVerified(r.Context(), id)
	h.respondDocument(w, r, id, changed, err)
}

type rejectRequest struct {
	Note string `json:"note"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	changed, err := h.service.MarkRejected(r.Context(), id, req.Note)
	h.respondDocument(w, r, id, changed, err)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httpx.RequireConfirm(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	changed, err := h.service.DeleteDocument(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "delete kyc document", err)
		return
	}
	httpx.Mutation(w, id, changed, nil)
}

func (h *Handler) respondDocument(w http.ResponseWriter, r *http.Request, id string, changed bool, err error) {
	if err != nil {
		httpx.Fail(w, h.logger, "update kyc document", err)
		return
	}
	doc, _, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get kyc document", err)
		return
	}
	httpx.Mutation(w, id, changed, doc)
}

func (h *Handler) showVerification(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Verification(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "get verification", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Submit(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "submit verification", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

type decideRequest struct {
	Decision VerificationStatus `json:"decision"`
	Reason   string             `json:"reason"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Decide(r.Context(), req.Decision, req.Reason)
	if err != nil {
		httpx.Fail(w, h.logger, "decide verification", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}
