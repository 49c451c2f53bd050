package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a request when the caller passes no limit
const DefaultRequestTimeout = 30 * time.Second

// Timeout caps how long a request may run. The limit is enforced twice:
// a deadline on the request context, so downstream calls that honor ctx
// give up in time, and http.TimeoutHandler, which answers 503 when the
// handler overruns anyway.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, "Request Timeout")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			bounded.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
