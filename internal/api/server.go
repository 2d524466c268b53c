package api

import (
	"context"
	"net/http"
	"time"

	"github.com/agentdrop/admin-console/internal/auth"
	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/pkg/metrics"
	"github.com/agentdrop/admin-console/internal/tracking"
)

// Deps wires the server. Gate may be nil, in which case every admin route
// answers 401.
type Deps struct {
	Approval  ApprovalService
	Waitlist  WaitlistService
	Analytics AnalyticsService
	Users     UsersService
	Invites   InviteService
	Blog      BlogService

	Gate     *auth.Gate
	Tracking *tracking.Handler
	Health   *HealthChecker
	Metrics  *metrics.Metrics

	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, d Deps) *Server {
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = cfg.AllowedOrigins
	}
	return &Server{
		config:  cfg,
		handler: SetupRoutes(NewHandlers(d), d),
	}
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	read := time.Duration(s.config.ReadTimeoutSeconds) * time.Second
	if read <= 0 {
		read = 30 * time.Second
	}
	write := time.Duration(s.config.WriteTimeoutSeconds) * time.Second
	if write <= 0 {
		write = 60 * time.Second
	}
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadTimeout:       read,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
