package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/eld-logbook/internal/metrics"
)

// NewMetricsHandler returns middleware that records request counts and
// latency labelled by the chi route pattern, keeping label cardinality bounded.
// A nil m yields a pass-through middleware.
func NewMetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			// The pattern is only complete once routing has finished.
			m.ObserveRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}
