package server

import (
	"context"
	"net/http"
	"time"

	"nutriplan/internal/handlers"
	applog "nutriplan/internal/log"
)

const defaultRateLimit = 100

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr string
	// CORSOrigins lists allowed browser origins; empty disables CORS.
	CORSOrigins []string
	// RateLimitPerMinute caps /api requests per client IP. Negative disables
	// limiting and zero applies the default.
	RateLimitPerMinute int
	API                *handlers.API
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"corsOrigins", len(cfg.CORSOrigins),
		"rateLimitPerMinute", cfg.RateLimitPerMinute,
	)

	if cfg.RateLimitPerMinute == 0 {
		applog.Debug(context.Background(), "rate limit not provided, using default")
		cfg.RateLimitPerMinute = defaultRateLimit
	}

	handler := newRouter(cfg)
	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
