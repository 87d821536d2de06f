package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"affibot/internal/attribution"
	"affibot/internal/repo"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies exposes core dependencies to the admin handlers.
type Dependencies struct {
	Store       repo.Store
	Attribution *attribution.Client
}

// Server is the operational sidecar: health, metrics and admin endpoints.
// The bot itself speaks only Telegram.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	deps       Dependencies
}

// New creates an HTTP server listening on addr.
func New(addr string, logger *slog.Logger, deps Dependencies) *Server {
	server := &Server{
		logger: logger.With("component", "http"),
		deps:   deps,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", server.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/admin/reload-report-cache", server.handleReloadReportCache)

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Store == nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		s.logger.Error("readiness ping failed", "error", err)
		http.Error(w, "store unreachable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleReloadReportCache drops all cached attribution payloads so the next
// analysis re-fetches fresh data.
func (s *Server) handleReloadReportCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Attribution == nil {
		http.Error(w, "attribution client unavailable", http.StatusServiceUnavailable)
		return
	}

	dropped, err := s.deps.Attribution.FlushCache(r.Context())
	if err != nil {
		s.logger.Error("failed flushing report cache", "error", err)
		http.Error(w, "failed flushing report cache", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"status":  "ok",
		"dropped": dropped,
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}
