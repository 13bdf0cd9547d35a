// Package enrichment turns the static catalog into enriched movie entries.
//
// An Orchestrator run prunes the poster cache, walks the catalog in
// order-preserving batches, resolves each movie's metadata and poster from
// the cache or from OMDb, and publishes the whole list once after the last
// batch. Entities in a batch are resolved concurrently and each writes only
// its own output slot. A run-state token guards against overlapping runs;
// Restart supersedes the active run, whose results are then dropped.
//
// Published posters are exposed through display references that stay valid
// until the snapshot is superseded or the orchestrator is closed.
package enrichment
