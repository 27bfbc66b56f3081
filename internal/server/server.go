package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/middleware"
	"github.com/rs/zerolog"
)

// Registrar is implemented by every handler group.
type Registrar interface {
	Register(mux *http.ServeMux)
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New mounts the handler groups behind CORS and access logging.
func New(addr string, corsOrigins []string, log zerolog.Logger, groups ...Registrar) *Server {
	mux := http.NewServeMux()
	for _, g := range groups {
		g.Register(mux)
	}

	handler := middleware.CORS(corsOrigins, middleware.Logging(log, mux))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
