package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "replay"
	cfg.Arena.FeeBps = 1001
	cfg.Server.Port = 99999
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "fee_bps")
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "redis")
}

func TestValidate_S3RequiredOnlyInArchiveMode(t *testing.T) {
	cfg := Defaults()
	cfg.S3.Endpoint = ""
	cfg.S3.Bucket = ""
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "archive"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3")
}

func TestValidate_TransferCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Transfer.BaseURL = "https://gateway.example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg.Transfer.APIKey = "k"
	cfg.Transfer.Secret = "s"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TOMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "serve"
log_level = "debug"

[arena]
authority = "authority"
treasury = "treasury"
fee_bps = 250

[server]
port = 9000
rate_limit_window = "30s"
`), 0o600))

	t.Setenv("ARENA_SERVER_PORT", "9100")
	t.Setenv("ARENA_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.Arena.FeeBps)
	assert.Equal(t, "30s", cfg.Server.RateLimitWindow.Duration.String())

	// Environment wins over the file.
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestRedactedConfig_HidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "pg-secret"
	cfg.Redis.Password = "redis-secret"
	cfg.Transfer.Secret = "signing-secret"
	cfg.Server.AdminKey = "admin-key"
	cfg.Server.APIKeys = map[string]string{"bearer-key": "alice"}

	red := RedactedConfig(&cfg)
	assert.NotEqual(t, "pg-secret", red.Postgres.Password)
	assert.NotEqual(t, "redis-secret", red.Redis.Password)
	assert.NotEqual(t, "signing-secret", red.Transfer.Secret)
	assert.NotEqual(t, "admin-key", red.Server.AdminKey)
	for key := range red.Server.APIKeys {
		assert.NotContains(t, key, "bearer-key")
	}
}
