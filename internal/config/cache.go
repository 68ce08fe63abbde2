package config

import (
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  KeyStrategy determines which parts of the request contribute
// to the cache key.
type CacheConfig struct {
	Enabled      bool            `env:"CACHE_ENABLED" env-default:"true"`
	MethodList   []string        `env:"CACHE_METHODS" env-default:"GET" env-separator:","`
	Methods      map[string]bool
	TTL          time.Duration   `env:"CACHE_TTL" env-default:"30s"`
	KeyStrategy  string          `env:"CACHE_KEY_STRATEGY" env-default:"route_query"`
	Prefix       string          `env:"CACHE_PREFIX" env-default:"cache"`
	MaxBodyBytes int             `env:"CACHE_MAX_BODY_BYTES" env-default:"1048576"`
}

// LoadCacheConfig reads CacheConfig from the environment.  A malformed
// value disables caching rather than failing startup.
func LoadCacheConfig() CacheConfig {
	var cfg CacheConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return CacheConfig{Enabled: false, Methods: map[string]bool{}}
	}
	cfg.Methods = parseMethods(cfg.MethodList)
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
