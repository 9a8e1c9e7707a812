// Package httptransport assembles the public router: the intake vertical
// plus the operational endpoints.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meridian/internal/intake"
	"meridian/pkg/platform/httputil"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// NewRouter wires all public endpoints.
func NewRouter(intakeHandler *intake.Handler, health HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealthz(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	intakeHandler.Register(r)

	return r
}

func handleHealthz(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
