// Package db connects to Postgres through pgxpool and applies goose
// migrations. Supabase exposes a plain Postgres endpoint, so nothing here is
// Supabase specific.
//
// Settings are read with the DB_ prefix:
//
//	DB_URL             connection URL (required)
//	DB_MAX_CONNS       pool size (default 10)
//	DB_MIN_CONNS       idle connections kept open (default 2)
//	DB_RETRY_ATTEMPTS  connection attempts at startup (default 3)
//	DB_RETRY_INTERVAL  base back-off between attempts (default 2s)
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrParseConfig      = errors.New("db: invalid connection settings")
	ErrConnect          = errors.New("db: failed to connect")
	ErrHealthcheck      = errors.New("db: healthcheck failed")
	ErrMigrate          = errors.New("db: migration failed")
	ErrUnknownDirection = errors.New("db: unknown migration command")
)

// Config holds pool settings.
type Config struct {
	URL               string        `env:"URL,required"`
	MigrationsTable   string        `env:"MIGRATIONS_TABLE" envDefault:"schema_migrations"`
	MaxConns          int32         `env:"MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"MIN_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
}

// Connect opens a pool and pings it, retrying with linear back-off.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
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

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = err
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			continue
		}
		return pool, nil
	}

	return nil, errors.Join(ErrConnect, lastErr)
}

// Healthcheck returns a readiness check that pings the pool.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheck, err)
		}
		return nil
	}
}

// Shutdown returns a hook that closes the pool.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
