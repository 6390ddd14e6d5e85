package cache

import "sync"

// basicCache is a non-expiring in-memory cache for tests and development.
type basicCache[T any] struct {
	cache     map[string]T
	cacheLock sync.Mutex
}

func (c *basicCache[T]) Get(key string) (T, bool) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	value, ok := c.cache[key]
	return value, ok
}

func (c *basicCache[T]) Set(key string, data T) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	c.cache[key] = data
}

func (c *basicCache[T]) Delete(key string) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	delete(c.cache, key)
}

func NewBasicCache[T any]() Cache[T] {
	return &basicCache[T]{
		cache: make(map[string]T),
	}
}
