package cache

import (
	"context"
	"errors"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

var ErrCacheMiss = errors.New("cache miss")

// Cache is a read-through cache: Get loads missing entries, Invalidate drops
// one so the next Get reloads it.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
}
