package transport

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/boardhive/boardhive/internal/config"
)

// HTTPServer represents an HTTP server
type HTTPServer struct {
	cfg         config.HTTPConfig
	handler     http.Handler
	server      *http.Server
	middlewares []func(http.Handler) http.Handler
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		cfg:         cfg,
		handler:     handler,
		middlewares: make([]func(http.Handler) http.Handler, 0),
	}
}

// Use adds middleware to the server
func (s *HTTPServer) Use(middleware func(http.Handler) http.Handler) {
	s.middlewares = append(s.middlewares, middleware)
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	handler := s.handler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", s.cfg.Address)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
