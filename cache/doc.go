// Package cache provides the read-through cache used by the guest service.
//
// # Overview
//
// The package exports three pieces:
//
//   - CacheService: get/set/delete, glob invalidation, clear, liveness and stats
//   - Keys: the hierarchical key layout of a resource (list, detail, stats, history)
//   - KeySerializer: builds stable keys from query values
//
// Service is the default CacheService. It encodes values with msgpack and
// delegates storage to a Backend (see internal/cacheinfra for the sturdyc
// and Redis backends).
//
// # Failure Model
//
// The cache is an optimization. Service never returns backend errors: a
// failed Get is a miss and a failed Set, Delete or InvalidatePattern is a
// no-op. Failures are counted in Stats and logged at warn level.
//
// # Basic Usage
//
//	svc := cache.NewService(backend, cache.WithLogger(logger), cache.WithPrefix("guests"))
//	keys := cache.NewKeys("guests", cache.NewDefaultKeySerializer())
//
//	page, err := cache.GetOrFetch(ctx, svc, keys.List(query), 5*time.Minute,
//		func(ctx context.Context) (Page, error) {
//			return store.FindMany(ctx, query)
//		})
//
// # Invalidation
//
// Writers invalidate by namespace pattern rather than by exact key, since a
// write cannot know every list query that included the changed row:
//
//	svc.InvalidatePattern(ctx, keys.Namespace(cache.NamespaceList)) // guests:list:*
//	svc.InvalidatePattern(ctx, keys.All())                          // guests:*
//
// # Key Serialization
//
// The default serializer walks values by reflection. Struct fields are named
// by their json tag and zero fields are skipped; map entries are sorted.
// When the serialized arguments exceed the length limit they are replaced by
// an xxhash digest so the namespace stays visible for pattern matching.
package cache
