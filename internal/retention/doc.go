// Package retention decides when cached records are stale and bounds the
// number of cached posters.
//
// Freshness is age-based with separate windows for metadata and posters.
// Pruning is count-based, runs once before each enrichment run's batch loop,
// and never touches metadata. It is best-effort: failures are logged and the
// run continues.
package retention
