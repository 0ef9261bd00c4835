package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vat/internal/common"
)

// statusFor maps the error taxonomy to an HTTP status. Unknown errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidIdentity),
		errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrTerminalState),
		errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrDispatchFailure),
		errors.Is(err, common.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Internal errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		detail = http.StatusText(status)
	case status == http.StatusBadGateway:
		s.log.Warn(r.Context(), "upstream failure", "method", r.Method, "path", r.URL.Path, "error", err)
		detail = http.StatusText(status)
	case status == http.StatusUnauthorized:
		detail = "not authenticated"
	}
	_ = writeJSON(w, status, errorResponse{Detail: detail})
}
