package middleware

import (
	"net/http"
)

const (
	// DefaultMaxRequestSize caps the request body at 1MB, far above any
	// utterance-plus-draft payload this API accepts.
	DefaultMaxRequestSize int64 = 1 << 20
)

// MaxRequestSize limits request body size. Oversized Content-Length is
// refused up front; bodies without a declared length are capped while
// being read.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}
