// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"jobcoordinator/internal/config"
	"jobcoordinator/internal/controller/handlers"
	"jobcoordinator/internal/controller/middleware"
	"jobcoordinator/internal/store"
)

// Store is the persistence surface the server needs beyond what the
// coordinator already owns: job lookups for GET /jobs/{id} and a
// liveness check for /readyz.
type Store interface {
	handlers.JobReader
	handlers.Pinger
}

// New creates a new controller server. coord is the admission pipeline;
// catalogStore backs job lookups and readiness; tenants backs
// authentication and tenant creation; metricsHandler serves the Prometheus
// exposition format collected by internal/observability.
func New(addr string, coord handlers.Coordinator, catalogStore Store, tenants store.TenantStore, cfg *config.Config, metricsHandler http.Handler) *Server {
	h := handlers.New(coord, catalogStore, tenants, catalogStore)

	authMW := middleware.AuthMiddleware(tenants)
	rateLimiter := middleware.NewRateLimiter()
	adminMW := middleware.RequireInternalAuth(cfg.AdminSecret)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	mux.Handle("POST /tenants", adminMW(http.HandlerFunc(h.CreateTenant)))

	authenticated := func(next http.HandlerFunc) http.Handler {
		return authMW(rateLimiter.Middleware()(next))
	}
	mux.Handle("POST /jobs", authenticated(h.CreateJob))
	mux.Handle("GET /jobs/{id}", authenticated(h.GetJob))
	mux.Handle("POST /jobs/{id}/kill", authenticated(h.KillJob))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
