package middleware

import (
	"net/http"
	"time"
)

// WriteDeadlineMiddleware sets the connection write deadline to d from the
// start of each request, replacing the server-wide WriteTimeout.
// d <= 0 leaves the server deadline untouched.
func WriteDeadlineMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Writers without deadline support (httptest.ResponseRecorder)
			// return http.ErrNotSupported.
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(d))
			next.ServeHTTP(w, r)
		})
	}
}
