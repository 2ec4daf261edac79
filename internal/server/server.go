package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/codice/logout-devserver/internal/config"
	"github.com/codice/logout-devserver/internal/logger"
	appmiddleware "github.com/codice/logout-devserver/internal/server/middleware"
	"github.com/codice/logout-devserver/internal/static"
)

type Server struct {
	config *config.ServerEnvironment
	logger *slog.Logger
	router *chi.Mux
	proxy  http.Handler
}

// NewServer configures the router. proxy receives every request that is not
// answered from the static directories.
func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	proxy http.Handler,
) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if proxy == nil {
		return nil, errors.New("request proxy is required")
	}

	server := &Server{
		config: cfg,
		logger: logger,
		router: chi.NewRouter(),
		proxy:  proxy,
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware orders the chain: logging wraps everything so static hits are logged too,
// and the static cascade runs last so its misses reach the catch-all route.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(appmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(static.Cascade(s.config.StaticPrefix, s.config.StaticDirs()...))
}

func (s *Server) registerRoutes() {
	s.router.Handle("/*", s.proxy)

	// methods chi does not route (e.g. WebDAV verbs) still belong to the backend
	s.router.NotFound(s.proxy.ServeHTTP)
	s.router.MethodNotAllowed(s.proxy.ServeHTTP)
}

// Listen binds the configured address and logs the port actually bound
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}

	port := s.config.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	s.logger.Info(fmt.Sprintf("Server listening on port %d", port),
		slog.String("environment", s.config.Environment),
		slog.Int("port", port),
	)

	return ln, nil
}

// Serve handles connections on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:  s.router,
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serverErrors := make(chan error, 1)

	go func() {
		err := httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// Start binds the listener and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
