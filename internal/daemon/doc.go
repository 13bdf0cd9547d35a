// Package daemon runs marquee as a long-lived watcher.
//
// It wires configuration, the cache store, the connectivity monitor and the
// enrichment orchestrator into a single lifecycle, using a flock-based lock
// in the data directory to keep one process per cache. The one-shot enrich
// command takes the same lock through AcquireLock.
//
// Keep enrichment logic in the enrichment package; the daemon only handles
// startup, shutdown and status.
package daemon
