package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "trip not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return errorBody("validation_error", unwrapMessage(err, domain.ErrValidation))
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return errorBody("validation_error", message)
}

// unwrapMessage strips the call-site prefixes from a wrapped sentinel error.
// "service.TripService.Create: validation error: pickup location is required"
// becomes "pickup location is required".
func unwrapMessage(err error, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// writeError maps a service error to its HTTP status. notFoundMsg names what
// was missing. Unexpected errors are logged and hidden behind a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFoundMsg))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrUpstream):
		s.logger.WarnContext(r.Context(), "upstream failure", "error", err.Error())
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_error", "routing provider unavailable"))
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}
