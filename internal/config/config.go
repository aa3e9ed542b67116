// Package config defines the top-level configuration for the arena
// settlement engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARENA_* environment variables.
type Config struct {
	Arena    ArenaConfig    `toml:"arena"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Oracle   OracleConfig   `toml:"oracle"`
	Transfer TransferConfig `toml:"transfer"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Archive  ArchiveConfig  `toml:"archive"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ArenaConfig holds bootstrap parameters for the arena state. They are only
// used by the initialize operation; once the arena exists the database copy
// is authoritative.
type ArenaConfig struct {
	Authority string `toml:"authority"`
	Treasury  string `toml:"treasury"`
	FeeBps    int    `toml:"fee_bps"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// OracleConfig holds the feed aggregator endpoint. When BaseURL is empty the
// engine falls back to the in-process static oracle, which is only suitable
// for development.
type OracleConfig struct {
	BaseURL    string   `toml:"base_url"`
	APIKey     string   `toml:"api_key"`
	Timeout    duration `toml:"timeout"`
	RetryCount int      `toml:"retry_count"`
}

// TransferConfig holds the custody transfer gateway endpoint and signing
// credentials. When BaseURL is empty the engine uses a logging no-op mover,
// which is only suitable for development.
type TransferConfig struct {
	BaseURL             string   `toml:"base_url"`
	APIKey              string   `toml:"api_key"`
	Secret              string   `toml:"secret"`
	EncryptedSecretPath string   `toml:"encrypted_secret_path"`
	SecretPassword      string   `toml:"secret_password"`
	Timeout             duration `toml:"timeout"`
	RetryCount          int      `toml:"retry_count"`
}

// ServerConfig holds HTTP server parameters. APIKeys maps bearer keys to
// user identities; requests signed with the AdminKey act as the authority's
// session.
type ServerConfig struct {
	Port            int               `toml:"port"`
	CORSOrigins     []string          `toml:"cors_origins"`
	APIKeys         map[string]string `toml:"api_keys"`
	AdminKey        string            `toml:"admin_key"`
	RateLimit       int               `toml:"rate_limit"`
	RateLimitWindow duration          `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	RetentionDays int `toml:"retention_days"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Arena: ArenaConfig{
			FeeBps: 500,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arena",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arena-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Oracle: OracleConfig{
			Timeout:    duration{10 * time.Second},
			RetryCount: 3,
		},
		Transfer: TransferConfig{
			Timeout:    duration{15 * time.Second},
			RetryCount: 3,
		},
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       10,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"market_resolved", "market_created"},
		},
		Archive: ArchiveConfig{
			RetentionDays: 90,
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":   true,
	"archive": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, archive)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Arena bootstrap
	if c.Arena.FeeBps < 0 || c.Arena.FeeBps > 1000 {
		errs = append(errs, fmt.Sprintf("arena: fee_bps must be 0-1000, got %d", c.Arena.FeeBps))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only required in archive mode; the server runs without it.
	if strings.ToLower(c.Mode) == "archive" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty in archive mode")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty in archive mode")
		}
	}

	// Transfer — credentials must accompany a configured gateway.
	if c.Transfer.BaseURL != "" {
		if c.Transfer.APIKey == "" {
			errs = append(errs, "transfer: api_key is required when base_url is set")
		}
		if c.Transfer.Secret == "" && c.Transfer.EncryptedSecretPath == "" {
			errs = append(errs, "transfer: either secret or encrypted_secret_path must be set when base_url is set")
		}
		if c.Transfer.EncryptedSecretPath != "" && c.Transfer.SecretPassword == "" {
			errs = append(errs, "transfer: secret_password is required when encrypted_secret_path is set")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 1 {
		errs = append(errs, "server: rate_limit must be >= 1")
	}
	if c.Server.RateLimitWindow.Duration <= 0 {
		errs = append(errs, "server: rate_limit_window must be > 0")
	}

	// Archive
	if c.Archive.RetentionDays < 1 {
		errs = append(errs, "archive: retention_days must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
