package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get on a cache miss
var ErrNotFound = errors.New("key not found in cache")

// Cache is the small key/value surface the services rely on. Implementations
// must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// NopCache never stores anything; every Get is a miss
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, error) { return "", ErrNotFound }

func (NopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NopCache) Delete(context.Context, ...string) error { return nil }
