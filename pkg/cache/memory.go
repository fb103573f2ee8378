package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a per-process LRU cache with a single ttl for every entry.
type Memory[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewMemory creates an LRU holding at most size entries for ttl each.
func NewMemory[V any](size int, ttl time.Duration) *Memory[V] {
	if size <= 0 {
		size = 1024
	}
	return &Memory[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	if v, ok := m.lru.Get(key); ok {
		return v, nil
	}
	var zero V
	return zero, ErrNotFound
}

// Set stores value. The per-call ttl is ignored; entries live for the
// cache-wide ttl given to NewMemory.
func (m *Memory[V]) Set(_ context.Context, key string, value V, _ time.Duration) error {
	m.lru.Add(key, value)
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (m *Memory[V]) Len() int { return m.lru.Len() }

var _ Cache[any] = (*Memory[any])(nil)
