// Package cache implements the shared, request-keyed data cache behind every view.
//
// Keys are request descriptors (see [services.PublicWishlistKey]). For each key the
// cache holds the last good value, the last error and whether a fetch is running.
//
// Guarantees:
//   - at most one fetch per key is in flight; concurrent callers attach to it
//   - [Cache.Revalidate] during a fetch schedules exactly one trailing fetch
//   - errors stay until the next success or [Cache.Clear]; nothing retries on a timer
//   - subscribers receive the newest snapshot without ever blocking the cache
//
// Readers therefore see either the snapshot before a mutation or the one after,
// never a mix of two responses.
package cache
