// Package httptransport assembles the HTTP surface: module handlers mounted
// on one chi router behind the shared middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cetrack/internal/platform/metrics"
	"cetrack/internal/platform/middleware"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all endpoints. Handlers own their routes (including their
// admin guards); the router owns only the cross-cutting chain and the
// operational endpoints.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestMetadata)
	if m != nil {
		r.Use(middleware.Instrument(m))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
