package api

import (
	"errors"
	"log/slog"
	"net/http"

	"grantscope/internal/domain"
)

// statusFromError maps domain error types to HTTP status codes. Anything
// unrecognized is a 500.
func statusFromError(err error) int {
	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		notReady   *domain.SnapshotNotReadyError
		badPair    *domain.InvalidDiffPairError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &badPair):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		msg = "internal server error"
	}
	writeJSON(w, status, Error{Code: status, Message: msg})
}
