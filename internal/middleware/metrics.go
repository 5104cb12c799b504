package middleware

import (
	"net/http"
	"time"

	"github.com/mtpultz/goal-digger/internal/metrics"
)

// Metrics records request count and latency per route pattern. It must wrap
// the ServeMux directly: the mux sets r.Pattern on the request it is given,
// which is only visible here if no middleware in between copied the request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
