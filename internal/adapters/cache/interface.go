package cache

// Cache is a string-keyed cache with implementation-defined expiry.
type Cache[T any] interface {
	// Get returns the cached value for key and whether it was present.
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}
