// Package httptransport assembles the HTTP surface: public registration
// and proof upload, the session-gated admin dashboard API, and the
// operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "technoreg/internal/access/handler"
	paymenthandler "technoreg/internal/payment/handler"
	"technoreg/internal/platform/metrics"
	"technoreg/internal/platform/middleware"
	reghandler "technoreg/internal/registration/handler"
	rosterhandler "technoreg/internal/roster/handler"
	"technoreg/pkg/platform/httputil"
)

// HealthChecker reports backend liveness for /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Registrations *reghandler.Handler
	Payments      *paymenthandler.Handler
	Roster        *rosterhandler.Handler
	Access        *accesshandler.Handler
	Auth          middleware.Authenticator
	Metrics       *metrics.Metrics
	Logger        *slog.Logger

	// Optional backends surfaced through /healthz.
	Checks map[string]HealthChecker
}

// NewRouter wires all endpoints with the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMeta)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		deps.Access.Register(r)
		deps.Registrations.Register(r)
		deps.Payments.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireSession(deps.Auth, deps.Logger))
			deps.Registrations.RegisterAdmin(r)
			deps.Payments.RegisterAdmin(r)
			deps.Roster.RegisterAdmin(r)
		})
	})

	r.Get("/healthz", handleHealth(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		report := make(map[string]string, len(checks)+1)
		report["status"] = "ok"
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report["status"] = "degraded"
				report[name] = err.Error()
			} else {
				report[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, report)
	}
}
