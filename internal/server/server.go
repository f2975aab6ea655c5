// Package server assembles the HTTP API: routes, middleware chain, and the
// WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
	"github.com/flipfinder/flipfinder/internal/server/handler"
	"github.com/flipfinder/flipfinder/internal/server/middleware"
	"github.com/flipfinder/flipfinder/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey empty disables authentication.
	APIKey string
	// RateLimitPerMin caps requests per client IP per minute; zero disables
	// rate limiting.
	RateLimitPerMin int
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Listings *handler.ListingHandler
	Arb      *handler.ArbHandler
	Fees     *handler.FeesHandler
	Audit    *handler.AuditHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain. limiter
// may be nil, in which case rate limiting is skipped.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Listing ingest and queries.
	mux.HandleFunc("POST /api/listings/ingest", handlers.Listings.Ingest)
	mux.HandleFunc("GET /api/listings/{marketplace}", handlers.Listings.ListByMarketplace)
	mux.HandleFunc("GET /api/listings/{marketplace}/{id}", handlers.Listings.Get)
	mux.HandleFunc("DELETE /api/listings/{marketplace}/{id}", handlers.Listings.Delete)

	// Arbitrage analysis and results.
	mux.HandleFunc("POST /api/arbitrage/analyze", handlers.Arb.Analyze)
	mux.HandleFunc("GET /api/arbitrage/opportunities", handlers.Arb.ListRecent)
	mux.HandleFunc("GET /api/arbitrage/opportunities/{id}", handlers.Arb.Get)
	mux.HandleFunc("GET /api/arbitrage/summary", handlers.Arb.Summary)

	// Fee schedule.
	mux.HandleFunc("GET /api/fees", handlers.Fees.FeeSchedule)

	// Audit log.
	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.List)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimitPerMin > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start blocks serving requests until the server errors or shuts down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
