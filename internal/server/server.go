// Package server assembles the gateway's HTTP middleware chain and hosts
// the router business handlers mount on.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server owns the router and its middleware ordering. The chain is:
// recover → otel → request id → logging → gateway (public bypass, auth,
// tenant isolation, rate limit). No extra per-request timeout is imposed
// beyond the listener's read/write timeouts; a slow user lookup blocks only
// its own request.
type Server struct {
	Router *chi.Mux

	port   int
	logger *slog.Logger
	http   *http.Server
}

// New builds the middleware chain around gw and registers the built-in
// public endpoints.
func New(port int, logger *slog.Logger, gw *Gateway) *Server {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "gateway")
	})
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(gw.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "consultly-gateway"})
	})

	return &Server{
		Router: r,
		port:   port,
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Info("starting server", slog.Int("port", s.port))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
