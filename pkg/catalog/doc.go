// Package catalog provides the permission catalog and its cache.
//
// # Overview
//
// The backend exposes the full set of permissions as a catalog: a map from a
// stable permission key (e.g. "can_edit_work_hours") to a Definition holding a
// one-character code, a localized name and description, and a category. User
// grants are strings of codes, so every translation between grants and keys
// needs the catalog.
//
// # Fetching
//
// Client calls GET {base}/permissions with the identity token in the
// x-access-token header and the active language in Accept-Language, and
// expects:
//
//	{"status": "success", "permissions": {"sys_admin": {"code": "a", ...}, ...}}
//
// Transport errors, non-2xx statuses, other envelopes and catalogs whose codes
// are not unique single ASCII characters all return an error wrapping
// ErrFetchFailed.
//
// # Caching
//
// Cache persists one record under a single global key:
//
//	{"data": {...}, "timestamp": 1700000000000, "lang": "en"}
//
// A record is usable while its age is at most CacheConfig.Duration (24h by
// default) and its lang equals the active display language. Corrupt or
// expired records are deleted when read. A language mismatch counts as a miss
// without deleting; the following fetch overwrites the record. A record is
// tagged with the language it was fetched in, and a fetch that finishes after
// the language changed is returned to its caller but not written.
//
//	store := catalog.NewMemoryStore()
//	client := catalog.NewClient("https://api.example.com", 10*time.Second)
//	cache := catalog.NewCache(catalog.DefaultCacheConfig(), store, client, lang)
//	perms, err := cache.GetPermissions(ctx, token)
//
// The record can live in Redis (RedisStore), in a SQL table (SQLStore, for
// PostgreSQL or SQLite) or in memory (MemoryStore). On top of the store an
// optional expirable LRU keeps decoded records per language for L1TTL.
//
// Concurrent misses are not de-duplicated: each caller fetches and writes,
// and the last write wins. Every writer derives the same content from the
// same backend state, so this is harmless.
//
// # Invalidation
//
// Clear deletes the record. WatchLanguage subscribes the cache to a
// language.Signal and clears it whenever the display language changes.
package catalog
