// Package server wires the sync core to its HTTP surface: the push and
// pull endpoints of the replication protocol, the balance query, and the
// Prometheus metrics endpoint.
package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitsync/internal/auth"
	"github.com/mmynk/splitsync/internal/ledger"
	"github.com/mmynk/splitsync/internal/middleware"
	"github.com/mmynk/splitsync/internal/service"
)

// Server holds the handlers' dependencies.
type Server struct {
	sync   *service.SyncService
	ledger *ledger.Ledger
}

// New creates a Server over the sync service and ledger.
func New(sync *service.SyncService, led *ledger.Ledger) *Server {
	return &Server{sync: sync, ledger: led}
}

// Router builds the HTTP routing table. Push, pull, and the balance query
// sit behind session auth; metrics are open.
func (s *Server) Router(jwtManager *auth.JWTManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtManager))
		r.Post("/push", s.handlePush)
		r.Post("/pull", s.handlePull)
		r.Get("/groups/{groupID}/owed", s.handleOwed)
	})

	return r
}
