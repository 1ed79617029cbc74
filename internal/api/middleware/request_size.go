package middleware

import (
	"net/http"
)

// DefaultMaxBodySize is used when no limit is configured.
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits incoming request bodies with http.MaxBytesReader.
// Handlers turn the resulting *http.MaxBytesError into 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
