package redis

import (
	"context"
	"time"

	"github.com/jrsteele09/go-realm-auth/internal/cache"
	rdb "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ cache.Cache = (*Cache)(nil)

// Cache stores values in redis under prefix. Failures degrade to misses.
type Cache struct {
	c      *rdb.Client
	prefix string
	log    zerolog.Logger
}

func New(addr, password string, db int, prefix string, log zerolog.Logger) *Cache {
	return &Cache{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, Password: password, DB: db}),
		prefix: prefix,
		log:    log,
	}
}

// Ping checks the connection.
func (r *Cache) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *Cache) Close() error {
	return r.c.Close()
}

func (r *Cache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Cache) Get(ctx context.Context, k string) ([]byte, bool) {
	b, err := r.c.Get(ctx, r.key(k)).Bytes()
	if err != nil {
		if err != rdb.Nil {
			r.log.Warn().Err(err).Str("key", k).Msg("redis get failed")
		}
		return nil, false
	}
	return b, true
}

func (r *Cache) Set(ctx context.Context, k string, v []byte, ttl time.Duration) {
	if err := r.c.Set(ctx, r.key(k), v, ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", k).Msg("redis set failed")
	}
}

func (r *Cache) Delete(ctx context.Context, k string) {
	if err := r.c.Del(ctx, r.key(k)).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", k).Msg("redis delete failed")
	}
}
