package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARENA_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARENA_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Arena ──
	setStr(&cfg.Arena.Authority, "ARENA_AUTHORITY")
	setStr(&cfg.Arena.Treasury, "ARENA_TREASURY")
	setInt(&cfg.Arena.FeeBps, "ARENA_FEE_BPS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARENA_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARENA_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARENA_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARENA_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARENA_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARENA_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARENA_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARENA_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARENA_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARENA_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARENA_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARENA_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARENA_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARENA_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARENA_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARENA_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARENA_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARENA_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARENA_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARENA_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARENA_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARENA_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARENA_S3_FORCE_PATH_STYLE")

	// ── Oracle ──
	setStr(&cfg.Oracle.BaseURL, "ARENA_ORACLE_BASE_URL")
	setStr(&cfg.Oracle.APIKey, "ARENA_ORACLE_API_KEY")
	setDuration(&cfg.Oracle.Timeout, "ARENA_ORACLE_TIMEOUT")
	setInt(&cfg.Oracle.RetryCount, "ARENA_ORACLE_RETRY_COUNT")

	// ── Transfer ──
	setStr(&cfg.Transfer.BaseURL, "ARENA_TRANSFER_BASE_URL")
	setStr(&cfg.Transfer.APIKey, "ARENA_TRANSFER_API_KEY")
	setStr(&cfg.Transfer.Secret, "ARENA_TRANSFER_SECRET")
	setStr(&cfg.Transfer.EncryptedSecretPath, "ARENA_TRANSFER_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Transfer.SecretPassword, "ARENA_TRANSFER_SECRET_PASSWORD")
	setDuration(&cfg.Transfer.Timeout, "ARENA_TRANSFER_TIMEOUT")
	setInt(&cfg.Transfer.RetryCount, "ARENA_TRANSFER_RETRY_COUNT")

	// ── Server ──
	setInt(&cfg.Server.Port, "ARENA_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARENA_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AdminKey, "ARENA_SERVER_ADMIN_KEY")
	setInt(&cfg.Server.RateLimit, "ARENA_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "ARENA_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARENA_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARENA_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARENA_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARENA_NOTIFY_EVENTS")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "ARENA_ARCHIVE_RETENTION_DAYS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARENA_MODE")
	setStr(&cfg.LogLevel, "ARENA_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
