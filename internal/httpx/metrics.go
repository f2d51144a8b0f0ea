package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sundayezeilo/linkhub/internal/metrics"
)

// Metrics records request counts, latency and in-flight gauge for the
// wrapped handler. route must be the registered pattern, not the raw
// request path, to keep label cardinality bounded.
func Metrics(route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.HTTPInflightRequests.Inc()
			defer metrics.HTTPInflightRequests.Dec()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			metrics.HTTPRequestsTotal.
				WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).
				Inc()
			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, route).
				Observe(time.Since(start).Seconds())
		})
	}
}
