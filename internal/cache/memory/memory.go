package memory

import (
	"context"
	"time"

	"github.com/jrsteele09/go-realm-auth/internal/cache"
	gocache "github.com/patrickmn/go-cache"
)

var _ cache.Cache = (*Cache)(nil)

type Cache struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Cache) Get(_ context.Context, k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Cache) Set(_ context.Context, k string, v []byte, ttl time.Duration) { m.c.Set(k, v, ttl) }
func (m *Cache) Delete(_ context.Context, k string)                           { m.c.Delete(k) }
