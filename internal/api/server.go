/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - HTTP API
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package api serves the assistant to the kiosk screen over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kiosk-assistant/internal/auth"
	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/logging"
)

// Server timeouts
const (
	ReadHeaderTimeout = 10 * time.Second
	WriteTimeout      = 60 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Answerer answers a kiosk question
type Answerer interface {
	ProcessQuery(ctx context.Context, query string) kbtypes.Answer
}

// Config wires the HTTP API
type Config struct {
	Answerer Answerer
	Store    *kbstore.Store

	// MCP, when set, is mounted at /mcp/v1
	MCP http.Handler

	AuthEnabled bool
	Tokens      *auth.TokenStore

	// RateLimitPerMinute caps questions per client; 0 disables limiting
	RateLimitPerMinute int
}

// Server is the HTTP API server
type Server struct {
	router chi.Router
	cfg    Config
	logger *logging.Logger
}

// NewServer creates and configures the HTTP server
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logging.For("api"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Get(auth.HealthCheckPath, s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.Tokens, s.cfg.AuthEnabled))
		if s.cfg.RateLimitPerMinute > 0 {
			r.Use(NewRateLimiter(s.cfg.RateLimitPerMinute).Middleware)
		}

		r.Post("/api/query", s.handleQuery)
		r.Get("/api/kb/stats", s.handleStats)
		if s.cfg.MCP != nil {
			r.Handle("/mcp/v1", s.cfg.MCP)
		}
	})

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: ReadHeaderTimeout,
		WriteTimeout:      WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
