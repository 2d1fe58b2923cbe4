package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// tripIDParam binds the {tripId} path segment.
func tripIDParam(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "tripId", chi.URLParam(r, "tripId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false})
	if err != nil {
		return 0, fmt.Errorf("invalid tripId: %w", err)
	}
	return id, nil
}

// paginationParams binds the optional ?page= and ?limit= query parameters.
func paginationParams(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid limit: %w", err)
	}
	return domain.NewPaginationParams(page, limit), nil
}

// formatParam binds the optional ?format= query parameter.
func formatParam(r *http.Request) (string, error) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		return "", fmt.Errorf("invalid format: %w", err)
	}
	if format == nil {
		return "", nil
	}
	return *format, nil
}

// writeParamError answers a malformed path or query parameter.
func writeParamError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
}
