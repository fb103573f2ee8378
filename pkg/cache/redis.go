package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by go-redis.
type Redis[V any] struct {
	client     redis.UniversalClient
	codec      Codec[V]
	prefix     string
	defaultTTL time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix namespaces keys as "prefix:key".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// WithDefaultTTL sets the ttl used when Set receives zero.
func WithDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) { o.defaultTTL = d }
}

// NewRedis creates a Redis cache. A nil codec selects JSON.
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], opts ...RedisOption) *Redis[V] {
	o := &redisOptions{defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(o)
	}
	if codec == nil {
		codec = JSON[V]{}
	}
	return &Redis[V]{client: client, codec: codec, prefix: o.prefix, defaultTTL: o.defaultTTL}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis[V]) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
