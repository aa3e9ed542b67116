// Package server assembles the HTTP and WebSocket API for the arena engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/server/handler"
	"github.com/feedgod/arena/internal/server/middleware"
	"github.com/feedgod/arena/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKeys         map[string]string // bearer key -> identity; empty disables auth
	AdminKey        string
	AdminIdentity   string
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Ledger      *handler.LedgerHandler
	Markets     *handler.MarketHandler
	Bets        *handler.BetHandler
	Claims      *handler.ClaimHandler
	Leaderboard *handler.LeaderboardHandler
	Admin       *handler.AdminHandler
}

// Server is the HTTP + WebSocket API server for the arena engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket
// hub. limiter may be nil, in which case the permissionless endpoints run
// unthrottled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// The permissionless operations (resolve, claim) are throttled per
	// client; everything else relies on auth alone.
	throttle := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return h
		}
		return middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Ledger endpoints.
	mux.HandleFunc("POST /api/deposits", handlers.Ledger.Deposit)
	mux.HandleFunc("POST /api/withdrawals", handlers.Ledger.Withdraw)
	mux.HandleFunc("GET /api/accounts/{id}", handlers.Ledger.GetAccount)

	// Market endpoints.
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.Handle("POST /api/markets/{id}/resolve", throttle(handlers.Markets.ResolveMarket))

	// Wager endpoints.
	mux.HandleFunc("POST /api/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("GET /api/markets/{id}/position", handlers.Bets.GetPosition)
	mux.HandleFunc("GET /api/positions", handlers.Bets.ListPositions)

	// Settlement endpoint.
	mux.Handle("POST /api/claims", throttle(handlers.Claims.Claim))

	// Leaderboard endpoint.
	if handlers.Leaderboard != nil {
		mux.HandleFunc("GET /api/leaderboard", handlers.Leaderboard.Leaderboard)
	}

	// Governance endpoints.
	mux.HandleFunc("POST /api/admin/initialize", handlers.Admin.Initialize)
	mux.HandleFunc("GET /api/admin/state", handlers.Admin.GetState)
	mux.HandleFunc("POST /api/admin/fee", handlers.Admin.UpdateFee)
	mux.HandleFunc("POST /api/admin/authority", handlers.Admin.TransferAuthority)
	mux.HandleFunc("POST /api/admin/archive", handlers.Admin.Archive)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKeys, cfg.AdminKey, cfg.AdminIdentity)(h)
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
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
