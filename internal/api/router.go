package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"relationship-notes-service/internal/observability/metrics"
)

// NewRouter constructs the HTTP router for the service. Health and
// sign-in are open; everything under /api requires a live session.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Health endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Post("/api/auth/sign-in", h.SignIn)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(h.sessions.Require)

		r.Post("/auth/sign-out", h.SignOut)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.ListContacts)
			r.Post("/", h.CreateContact)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetContact)
				r.Put("/", h.UpdateContact)
				r.Delete("/", h.DeleteContact)
			})
		})

		r.Route("/interactions", func(r chi.Router) {
			r.Get("/", h.ListInteractions)
			r.Post("/", h.CreateInteraction)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.UpdateInteraction)
				r.Delete("/", h.DeleteInteraction)
			})
		})

		r.Post("/ai/generate-notes", h.GenerateNotes)
		r.Get("/dashboard-stats", h.DashboardStats)
	})

	return r
}

// requestMetrics records per-route request counts and latency using the
// chi route pattern so path parameters do not explode the label set.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m := metrics.DefaultMetrics
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
