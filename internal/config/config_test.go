package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "campus")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "campus_events")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRejectsBadBcryptCost(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "2")

	_, err := Load()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestLoadRegistrationConfig(t *testing.T) {
	t.Setenv("REGISTRATION_OP_TIMEOUT", "2s")
	t.Setenv("REGISTRATION_MAX_ATTEMPTS", "0")

	cfg, err := LoadRegistrationConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.OpTimeout)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryBackoff)
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "route_query", cfg.KeyStrategy)
}

func TestMailConfig(t *testing.T) {
	t.Setenv("SMTP_USER", "noreply@campus.edu")

	cfg, err := LoadMailConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "noreply@campus.edu", cfg.Sender())
}

func TestRedisAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "x:1"}.Address())
	assert.Equal(t, "x:1", RedisConfig{Addr: "x:1"}.Address())
}
