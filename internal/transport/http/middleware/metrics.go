package httpmw

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/metrics"
	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"

	"github.com/go-chi/chi/v5"
)

// Metrics records one observation per request, labelled by chi route pattern.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := tlog.NewStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(route, r.Method, sw.Status(), time.Since(start))
		})
	}
}
