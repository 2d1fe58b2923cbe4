package middleware

import (
	"fmt"
	"net/http"
)

// NewMaxBodySizeHandler returns a middleware that limits request bodies to
// limit bytes. A request whose Content-Length already exceeds the limit is
// answered with 413 without reaching the next handler; otherwise the body is
// wrapped in http.MaxBytesReader so a streamed body fails once it overruns.
// A limit of zero or less disables the check.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				fmt.Fprintf(w, `{"error":{"code":"payload_too_large","message":"request body exceeds %d bytes"}}`, limit)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
