// Package cache provides a small generic cache interface with Redis and
// in-process LRU backends, plus a Loader that coalesces concurrent misses.
//
// The service caches iTunes responses: Redis when REDIS_URL is set so every
// replica shares hits, the LRU otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("cache: entry not found")
	ErrMarshal   = errors.New("cache: failed to marshal value")
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")
)

// Cache stores values of type V by string key.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (V, error)
	// Set stores value. A zero ttl means the backend default.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Codec converts values to and from bytes for remote backends.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default codec.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}
