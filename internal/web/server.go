package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/logger"
	"github.com/ilc-alumni/reconcile/internal/web/handlers"
	"github.com/ilc-alumni/reconcile/internal/web/middleware"
)

const shutdownTimeout = 30 * time.Second

// Server exposes the run history over HTTP
type Server struct {
	config     config.ServerConfig
	store      handlers.RunStore
	log        *logger.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a web server instance
func NewServer(cfg config.ServerConfig, store handlers.RunStore, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{config: cfg, store: store, log: log}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	runsHandler := &handlers.RunsHandler{Store: s.store, Log: s.log}

	requireKey := middleware.APIKey(s.config.APIKey)

	// Registered on the root router so a wrong method answers 405 rather than 404.
	s.router.HandleFunc("/api/health", handlers.Health).Methods("GET")
	s.router.Handle("/api/runs", requireKey(http.HandlerFunc(runsHandler.ListRuns))).Methods("GET")
	s.router.Handle("/api/runs/{id}", requireKey(http.HandlerFunc(runsHandler.GetRun))).Methods("GET")

	s.router.Use(middleware.RequestLogging(s.log))
}

// Serve accepts connections on l until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("history server listening", "addr", l.Addr().String())
		if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		s.log.Info("history server stopped")
		return nil
	})

	return g.Wait()
}

// ListenAndServe listens on the configured address and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, l)
}
