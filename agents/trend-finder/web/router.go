package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trend-finder/shared/monitoring"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h *Handler, health *monitoring.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", health.Health)
	r.Get("/status", health.Status)
	r.Method(http.MethodGet, "/metrics", health.Metrics())

	// Browser UI
	r.Get("/", h.Index)
	r.Post("/submit", h.Submit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/submissions", h.APISubmit)
		r.Get("/state", h.APIState)
	})

	return r
}
