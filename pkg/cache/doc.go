// Package cache stores raw catalog page bodies in Redis.
//
// A full catalog run issues several hundred sequential requests; caching the
// page bodies lets a restarted explorer (or a second process sharing the same
// Redis) reuse pages fetched recently instead of hitting the catalog again.
// The cache is optional: the client works without it.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, time.Hour)
//
//	key := cache.PageKey{Endpoint: "/api/offerta-formativa/cerca-corsi", Page: 3, Query: q}
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the catalog, then:
//		entry, _ = cache.ResponseToEntry(resp, manager.TTL())
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Conditional Requests
//
// When the catalog returns an ETag or Last-Modified header, stale entries are
// revalidated with If-None-Match / If-Modified-Since instead of refetched.
//
// # Metrics
//
//   - catalog_cache_hits_total
//   - catalog_cache_misses_total
//   - catalog_cache_stored_bytes_total
//   - catalog_cache_not_modified_total
//   - catalog_cache_errors_total{operation}
package cache
