// Package redis opens go-redis clients with startup retries. The service
// uses Redis only as a cache; when REDIS_URL is empty the caller skips it.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrEmptyURL     = errors.New("redis: empty connection URL")
	ErrParseURL     = errors.New("redis: failed to parse connection URL")
	ErrConnect      = errors.New("redis: failed to connect")
	ErrHealthcheck  = errors.New("redis: healthcheck failed")
	ErrNotConnected = errors.New("redis: client is nil")
)

// Config holds client settings, read with the REDIS_ prefix.
type Config struct {
	URL           string        `env:"URL"`
	PoolSize      int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns  int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout   time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout   time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout  time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
}

// Enabled reports whether a URL is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// Options converts cfg into go-redis options.
func (c Config) Options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, ErrEmptyURL
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return nil, ErrParseURL
	}

	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, errors.Join(ErrParseURL, err)
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		opts.MinIdleConns = c.MinIdleConns
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	return opts, nil
}

// Open connects and pings, retrying with linear back-off.
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := range max(cfg.RetryAttempts, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrConnect, ctx.Err())
			case <-time.After(time.Duration(attempt) * cfg.RetryInterval):
			}
		}

		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()
	}

	return nil, errors.Join(ErrConnect, lastErr)
}

// Healthcheck returns a readiness check that pings client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrNotConnected
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheck, err)
		}
		return nil
	}
}

// Shutdown returns a hook that closes client.
func Shutdown(client redis.UniversalClient) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
