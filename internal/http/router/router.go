// Package router maps URLs to handlers.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/registration-api/internal/http/handlers/registrations"
	"github.com/aanand-mishra/registration-api/internal/registration"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Coordinator *registration.Coordinator
	Counts      *registration.CountsService
	Gatherer    prometheus.Gatherer

	// RequestTimeout caps the time a handler may spend on one request.
	RequestTimeout time.Duration
}

// New returns the application handler.
//
// Route table:
//
//	POST /api/registrations  submit the form
//	GET  /api/departments    departments with current counts
//	GET  /healthz            liveness
//	GET  /metrics            Prometheus exposition
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Post("/api/registrations", registrations.New(d.Coordinator))
	r.Get("/api/departments", registrations.Departments(d.Counts, d.Coordinator.Rules()))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
