package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "latios_cache_hits_total",
		Help: "Cache lookups answered from the cache.",
	}, []string{"cache"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "latios_cache_misses_total",
		Help: "Cache lookups that had to call the loader.",
	}, []string{"cache"})
)

// DefaultLoadTimeout bounds a shared load once it is detached from the
// caller that started it.
const DefaultLoadTimeout = 30 * time.Second

// LoadFunc produces a value on a cache miss together with its ttl.
type LoadFunc[V any] func(ctx context.Context) (V, time.Duration, error)

// Loader wraps a Cache with read-through loading. Concurrent misses for the
// same key share one LoadFunc call.
type Loader[V any] struct {
	cache   Cache[V]
	group   singleflight.Group
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	timeout time.Duration
}

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewLoader creates a loader. name labels the hit and miss metrics.
func NewLoader[V any](name string, c Cache[V], logger *slog.Logger, opts ...LoaderOption) *Loader[V] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := loaderOptions{timeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[V]{cache: c, name: name, timeout: o.timeout, logger: logger}
}

// Get returns the cached value for key or loads, stores and returns it.
// Cache read and write failures are logged and otherwise ignored, so a
// broken cache only costs latency.
func (l *Loader[V]) Get(ctx context.Context, key string, load LoadFunc[V]) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		hitsTotal.WithLabelValues(l.name).Inc()
		return v, nil
	} else if !errors.Is(err, ErrNotFound) {
		l.logger.WarnContext(ctx, "cache read failed", slog.String("cache", l.name), slog.String("error", err.Error()))
	}
	missesTotal.WithLabelValues(l.name).Inc()

	// The shared load outlives any one caller: a caller that goes away
	// stops waiting, the others still get the value and it is cached.
	ch := l.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		v, ttl, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(lctx, key, v, ttl); err != nil {
			l.logger.WarnContext(lctx, "cache write failed", slog.String("cache", l.name), slog.String("error", err.Error()))
		}
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Invalidate removes key from the underlying cache.
func (l *Loader[V]) Invalidate(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, key)
}
