package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlCache[T any] struct {
	cache *ttlcache.Cache[string, T]
}

func (c *ttlCache[T]) Get(key string) (T, bool) {
	item := c.cache.Get(key)
	if item == nil {
		var empty T
		return empty, false
	}
	return item.Value(), true
}

func (c *ttlCache[T]) Set(key string, data T) {
	c.cache.Set(key, data, ttlcache.DefaultTTL)
}

func (c *ttlCache[T]) Delete(key string) {
	c.cache.Delete(key)
}

// NewTTLCache returns a cache whose entries expire ttl after insertion.
// Expiry is not extended by reads.
func NewTTLCache[T any](ttl time.Duration) Cache[T] {
	underlying := ttlcache.New[string, T](
		ttlcache.WithTTL[string, T](ttl),
		ttlcache.WithDisableTouchOnHit[string, T](),
	)
	go underlying.Start()
	return &ttlCache[T]{cache: underlying}
}
