package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feedgod/arena/internal/server"
	"github.com/feedgod/arena/internal/server/handler"
	"github.com/feedgod/arena/internal/server/ws"
	"github.com/feedgod/arena/internal/service"
)

// ServeMode starts the HTTP API, the WebSocket hub, and all settlement
// services. It blocks until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	// Services.
	adminSvc := service.NewAdminService(
		deps.ArenaStore, deps.Transactor, deps.LockManager,
		deps.SignalBus, deps.AuditStore, a.logger,
	)
	ledgerSvc := service.NewLedgerService(
		deps.AccountStore, deps.Transactor, deps.LockManager,
		deps.Mover, deps.SignalBus, deps.AuditStore, a.logger,
	)
	marketSvc := service.NewMarketService(
		deps.ArenaStore, deps.MarketStore, deps.Oracle,
		deps.Transactor, deps.LockManager, deps.SignalBus,
		deps.AuditStore, deps.Notifier, a.logger,
	)
	bettingSvc := service.NewBettingService(
		deps.ArenaStore, deps.MarketStore, deps.AccountStore,
		deps.PositionStore, deps.Transactor, deps.LockManager,
		deps.SignalBus, deps.AuditStore, a.logger,
	)
	settlementSvc := service.NewSettlementService(
		deps.ArenaStore, deps.MarketStore, deps.AccountStore,
		deps.PositionStore, deps.Transactor, deps.LockManager,
		deps.Mover, deps.Leaderboard, deps.SignalBus,
		deps.AuditStore, a.logger,
	)

	// WebSocket hub.
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Handlers.
	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(deps.PG, deps.Redis, a.logger),
		Ledger:      handler.NewLedgerHandler(ledgerSvc, a.logger),
		Markets:     handler.NewMarketHandler(marketSvc, a.logger),
		Bets:        handler.NewBetHandler(bettingSvc, a.logger),
		Claims:      handler.NewClaimHandler(settlementSvc, a.logger),
		Leaderboard: handler.NewLeaderboardHandler(deps.Leaderboard, a.logger),
		Admin:       handler.NewAdminHandler(adminSvc, deps.Archiver, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKeys:         a.cfg.Server.APIKeys,
		AdminKey:        a.cfg.Server.AdminKey,
		AdminIdentity:   a.cfg.Arena.Authority,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// ArchiveMode runs a single archival cycle: resolved markets and audit
// entries older than the retention cutoff are uploaded to object storage,
// then the process exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	if deps.Archiver == nil {
		return fmt.Errorf("archive mode: object storage is not configured")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
		slog.Time("cutoff", cutoff),
	)

	markets, err := deps.Archiver.ArchiveMarkets(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive mode: markets: %w", err)
	}

	audit, err := deps.Archiver.ArchiveAudit(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive mode: audit: %w", err)
	}

	a.logger.InfoContext(ctx, "archive complete",
		slog.Int64("markets_archived", markets),
		slog.Int64("audit_archived", audit),
	)
	return nil
}
