package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"communityevents/internal/domain"
)

// conflictErrors are rule violations reported as 409 with the sentinel's message.
var conflictErrors = []error{
	domain.ErrInvalidState,
	domain.ErrModerationDisabled,
	domain.ErrAlreadyPublished,
	domain.ErrForbiddenTransition,
	domain.ErrEventNotPublished,
	domain.ErrCapacityExceeded,
	domain.ErrSelfParticipation,
	domain.ErrDuplicateRequest,
}

// StatusForError returns the HTTP status and error code for a service error.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, ErrCodeConflict
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError maps err to the response envelope. Unexpected errors are
// logged and answered with a generic message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
