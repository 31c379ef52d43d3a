package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for metrics and liveness.
type Server struct {
	server    *http.Server
	logger    *zap.Logger
	startTime time.Time
	lastCycle atomic.Int64 // unix seconds of the last finished cycle
}

// New creates a new HTTP server listening on addr.
func New(addr string, logger *zap.Logger) *Server {
	s := &Server{logger: logger, startTime: time.Now()}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", s.health)
	return r
}

// MarkCycle records that a cycle just finished.
func (s *Server) MarkCycle(at time.Time) {
	s.lastCycle.Store(at.Unix())
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	LastCycle string `json:"last_cycle,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if last := s.lastCycle.Load(); last > 0 {
		resp.LastCycle = time.Unix(last, 0).UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start blocks until the server stops or fails.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
