package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/feedgod/arena/internal/blob/s3"
	"github.com/feedgod/arena/internal/cache/redis"
	"github.com/feedgod/arena/internal/config"
	"github.com/feedgod/arena/internal/crypto"
	"github.com/feedgod/arena/internal/domain"
	"github.com/feedgod/arena/internal/notify"
	"github.com/feedgod/arena/internal/oracle"
	"github.com/feedgod/arena/internal/store/postgres"
	"github.com/feedgod/arena/internal/transfer"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Clients (kept for health probes)
	PG    *postgres.Client
	Redis *redis.Client

	// Stores
	ArenaStore    domain.ArenaStore
	AccountStore  domain.AccountStore
	MarketStore   domain.MarketStore
	PositionStore domain.PositionStore
	AuditStore    domain.AuditStore
	Transactor    domain.Transactor

	// Redis-backed coordination
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
	Leaderboard domain.Leaderboard

	// External services
	Oracle domain.PriceOracle
	Mover  domain.TokenMover

	// Blob storage (nil unless S3 is configured)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsS3 returns true for modes that require object storage. Serve mode
// works without it; the archive endpoint then answers 501.
func needsS3(mode string) bool {
	return strings.ToLower(mode) == "archive"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.PG = pgClient
	deps.Transactor = pgClient
	deps.ArenaStore = postgres.NewArenaStore(pgClient)
	deps.AccountStore = postgres.NewAccountStore(pgClient)
	deps.MarketStore = postgres.NewMarketStore(pgClient)
	deps.PositionStore = postgres.NewPositionStore(pgClient)
	deps.AuditStore = postgres.NewAuditStore(pgClient)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.Leaderboard = redis.NewLeaderboard(redisClient)

	// --- Price oracle ---
	if cfg.Oracle.BaseURL != "" {
		deps.Oracle = oracle.NewClient(oracle.ClientConfig{
			BaseURL:    cfg.Oracle.BaseURL,
			APIKey:     cfg.Oracle.APIKey,
			Timeout:    cfg.Oracle.Timeout.Duration,
			RetryCount: cfg.Oracle.RetryCount,
		})
	} else {
		logger.Warn("wire: oracle.base_url not set, using in-process static oracle (development only)")
		deps.Oracle = oracle.NewStatic()
	}

	// --- Token transfer gateway ---
	if cfg.Transfer.BaseURL != "" {
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:           cfg.Transfer.Secret,
			EncryptedSecretPath: cfg.Transfer.EncryptedSecretPath,
			SecretPassword:      cfg.Transfer.SecretPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: transfer secret: %w", err)
		}
		deps.Mover = transfer.NewClient(transfer.ClientConfig{
			BaseURL:    cfg.Transfer.BaseURL,
			APIKey:     cfg.Transfer.APIKey,
			Secret:     secret,
			Timeout:    cfg.Transfer.Timeout.Duration,
			RetryCount: cfg.Transfer.RetryCount,
		})
	} else {
		logger.Warn("wire: transfer.base_url not set, token moves will only be logged (development only)")
		deps.Mover = transfer.NewNoop(logger)
	}

	// --- S3 blob storage ---
	if needsS3(cfg.Mode) || cfg.S3.AccessKey != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(
			deps.BlobWriter,
			deps.MarketStore,
			deps.PositionStore,
			deps.AuditStore,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
