/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. Metrics:    Prometheus counters and latency histograms
  5. CORS:       Cross-origin requests for the mobile/web clients

ROUTE GROUPS:
  /health            Liveness probe
  /metrics           Prometheus scrape endpoint
  /api/auth/*        Session issuance
  /api/*             Coin ledger and catalog

AUTH:
  Ledger routes run behind withUser: bearer tokens are verified, and
  tokenless requests fall back to the demo player (demo-client parity).
  Catalog listings are public, as in the original backend.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/health", h.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/gamecenter", h.AuthGameCenter)

		// Public catalog
		r.Get("/games", h.ListGames)
		r.Get("/challenges", h.ListChallenges)

		// Ledger routes (caller identity required)
		r.Get("/coins/balance", h.withUser(h.GetBalance))
		r.Post("/actions/complete", h.withUser(h.CompleteAction))
		r.Post("/redeem", h.withUser(h.Redeem))
		r.Post("/streak/claim", h.withUser(h.ClaimStreak))
		r.Get("/activity", h.withUser(h.GetActivity))
	})

	return r
}
