// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mentordesk/mentordesk/internal/shared"
)

// Sentinel errors shared with the domain layer.
var (
	ErrNotFound   = shared.ErrNotFound
	ErrConflict   = shared.ErrConflict
	ErrValidation = shared.ErrValidation
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		ProblemFields(w, http.StatusBadRequest, "Validation Failed", err.Error(), verr.Fields)
	case errors.Is(err, shared.ErrConfirmationRequired):
		Problem(w, http.StatusBadRequest, "Confirmation Required", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// Fail logs err when it is not a client error and responds with RespondError.
func Fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if clientError(err) {
		logger.Debug(op, slog.Any("error", err))
	} else {
		logger.Error(op, slog.Any("error", err))
	}
	RespondError(w, err)
}

func clientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, shared.ErrConfirmationRequired)
}

// RequireConfirm enforces the ?confirm=<id> guard on destructive routes.
func RequireConfirm(r *http.Request, id string) error {
	if id == "" || r.URL.Query().Get("confirm") != id {
		return shared.ErrConfirmationRequired
	}
	return nil
}
