// Package cache is a small byte cache abstraction with an in-process backend
// (go-cache) and a shared backend (redis).
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
