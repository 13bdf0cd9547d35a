// Package store persists cached posters and movie metadata in SQLite.
//
// The Store exposes two record kinds with get/put/delete/iterate operations,
// keyed by content identity: posters by folded title and year, metadata by
// catalog id. Every write is last-writer-wins; metadata upserts guarantee
// that LastUpdated strictly increases for a given id.
//
// All failures are reported as *StorageError so callers can degrade to a
// cache miss with errors.As. Busy databases are retried with bounded backoff
// and poster writes refuse to proceed when the volume is below the configured
// free-space floor.
//
// Schema changes bump schemaVersion in schema.go; users clear the cache to
// adopt the new schema.
package store
