package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
)

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// writeError maps domain errors onto status codes: validation and empty
// exports are 422, unknown ids 404, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.FromContext(r.Context())

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.LogFields(r.Context(), slog.LevelDebug, "Rejected invalid expense",
			log.NewFields().WithOperation(op).WithErrorType(log.ErrorTypeValidation).WithError(err))
		FieldError(verr.Field, verr.Error()).Write(w)
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, export.ErrNothingToExport):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		logger.LogFields(r.Context(), slog.LevelError, "Request failed",
			log.NewFields().WithOperation(op).WithErrorType(log.ErrorTypeInternal).WithError(err))
		InternalServerError("internal error").Write(w)
	}
}
