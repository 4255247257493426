package middleware

import (
	"net/http"
	"time"

	"github.com/ashasetu/ashasetu-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency by chi route pattern; unmatched
// requests share the "unknown" route label.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			pattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				pattern = rc.RoutePattern()
			}
			m.Observe(r.Method, pattern, rec.Status(), time.Since(start))
		})
	}
}
