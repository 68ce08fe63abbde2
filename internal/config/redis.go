package config

// Redis backs rate limiting, HTTP response caching and the stats snapshot
// cache.  If the server cannot be reached at startup NewRedisClient
// returns nil and callers degrade by disabling those features.

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis connection.  REDIS_HOST and REDIS_PORT
// take precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	TLS      bool   `env:"REDIS_TLS" env-default:"false"`
}

// Address resolves the host:port to dial.
func (c RedisConfig) Address() string {
	if c.Host != "" && c.Port != "" {
		return net.JoinHostPort(c.Host, c.Port)
	}
	return c.Addr
}

// NewRedisClient builds a client from the environment and pings it.  The
// returned client is nil if the configuration is invalid or the server is
// unreachable.
func NewRedisClient() *redis.Client {
	var cfg RedisConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Address(),
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
