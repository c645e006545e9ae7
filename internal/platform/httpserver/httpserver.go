package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bellsc7/hrsyncad/internal/platform/metrics"
	"github.com/bellsc7/hrsyncad/internal/platform/middleware"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
	"github.com/bellsc7/hrsyncad/pkg/platform/httputil"
	"github.com/bellsc7/hrsyncad/pkg/platform/middleware/requesttime"
)

// New builds an HTTP server with sane defaults for this project. Write
// timeout is left unset because a sync request lasts as long as the run.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterOptions carries the shared pieces every route needs.
type RouterOptions struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Clock    clock.Clock
	Checks   map[string]HealthCheck
}

// NewRouter wires the common middleware, /healthz, /metrics and the
// feature routes.
func NewRouter(opts RouterOptions, registrars ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware(opts.Clock))
	r.Use(middleware.Logger(opts.Logger, opts.Metrics))

	r.Get("/healthz", healthHandler(opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}
