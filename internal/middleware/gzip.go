package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// NewGzipHandler compresses responses for clients that accept gzip. Small
// bodies (under gzhttp's default 1 KiB threshold) are sent as-is.
func NewGzipHandler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	}
}
