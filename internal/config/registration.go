package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// RegistrationConfig bounds store calls made by the registration engine.
type RegistrationConfig struct {
	OpTimeout     time.Duration `env:"REGISTRATION_OP_TIMEOUT" env-default:"5s"`
	MaxAttempts   int           `env:"REGISTRATION_MAX_ATTEMPTS" env-default:"3"`
	RetryBackoff  time.Duration `env:"REGISTRATION_RETRY_BACKOFF" env-default:"50ms"`
	NotifyTimeout time.Duration `env:"REGISTRATION_NOTIFY_TIMEOUT" env-default:"10s"`
}

// LoadRegistrationConfig reads RegistrationConfig from the environment.
func LoadRegistrationConfig() (RegistrationConfig, error) {
	var cfg RegistrationConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return RegistrationConfig{}, fmt.Errorf("read registration config: %w", err)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return cfg, nil
}

// StatsConfig controls the dashboard snapshot cache and its refresh job.
type StatsConfig struct {
	CacheTTL        time.Duration `env:"STATS_CACHE_TTL" env-default:"30s"`
	RefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL" env-default:"1m"`
	Prefix          string        `env:"STATS_CACHE_PREFIX" env-default:"stats"`
	TokenPurgeEvery time.Duration `env:"TOKEN_PURGE_INTERVAL" env-default:"1h"`
}

// LoadStatsConfig reads StatsConfig from the environment.
func LoadStatsConfig() (StatsConfig, error) {
	var cfg StatsConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return StatsConfig{}, fmt.Errorf("read stats config: %w", err)
	}
	return cfg, nil
}
