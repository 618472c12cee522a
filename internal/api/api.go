// Package api exposes the read-only Vitrine status server over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vitrinedev/vitrine/internal/supervisor"
	"github.com/vitrinedev/vitrine/internal/version"
)

// StatusProvider supplies supervisor state to the API layer.
type StatusProvider interface {
	Snapshot() supervisor.Status
	IsShuttingDown() bool
}

// Config holds status server configuration.
type Config struct {
	Listen   string
	Username string
	Password string // bcrypt hash
}

// Server is the read-only status HTTP server.
type Server struct {
	status   StatusProvider
	metrics  http.Handler
	logger   *slog.Logger
	mux      *http.ServeMux
	listener net.Listener
	srv      *http.Server

	authUser string
	authPass string // bcrypt hash
}

// NewServer creates a status server. metricsHandler serves /metrics and
// may be nil to disable the endpoint.
func NewServer(cfg Config, status StatusProvider, metricsHandler http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		status:   status,
		metrics:  metricsHandler,
		logger:   logger,
		authUser: cfg.Username,
		authPass: cfg.Password,
	}
	s.mux = s.buildMux()
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Probe endpoints -- no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/v1/status", s.requireAuth(s.handleStatus))
	mux.HandleFunc("GET /api/v1/version", s.requireAuth(s.handleVersion))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.requireAuth(s.metrics.ServeHTTP))
	}

	return mux
}

// Start begins serving on the configured listener address.
func (s *Server) Start(listen string) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("status server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	if s.srv != nil {
		_ = s.srv.Shutdown(ctx)
	}
}

// Addr returns the bound listener address, for tests.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the underlying mux, for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authUser == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.authUser || !checkPassword(s.authPass, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="vitrine"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if s.status.IsShuttingDown() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.status.Snapshot())
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}
