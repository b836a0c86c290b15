package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// DefaultMaxRequestSize is the default maximum request body size (64KB).
// Planner payloads are a title and a few enum fields.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize limits the size of request bodies
func MaxRequestSize(maxBytes int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body too large", logger)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
