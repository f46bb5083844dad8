/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/contracts/* Schedule generation and charge listings
  /api/payments/*  Individual payment mutation
  /api/rates/*     The curated euro rate table
  /api/planning/*  Monthly report, CSV export, statistics

SECURITY NOTE:
  No authentication middleware. The service is meant to sit behind the
  municipal intranet gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Schedule routes
		r.Route("/contracts", func(r chi.Router) {
			r.Post("/{id}/schedule", h.GenerateSchedule)
			r.Post("/{id}/schedule/regenerate", h.RegenerateSchedule)
			r.Get("/{id}/payments", h.ListPayments)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Put("/{id}/status", h.UpdatePaymentStatus)
		})

		// Rate table routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.CreateRate)
			r.Delete("/{id}", h.DeleteRate)
		})

		// Planning report routes
		r.Route("/planning", func(r chi.Router) {
			r.Get("/", h.GetPlanning)
			r.Get("/csv", h.ExportPlanningCSV)
			r.Get("/statistics", h.GetStatistics)
		})
	})

	return r
}
