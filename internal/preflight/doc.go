// Package preflight provides readiness checks for the filesystem paths and
// the OMDb service marquee depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunLocal on start and logs any failure; the watcher
//     still starts so cached data stays available.
//   - The CLI "marquee config validate" command prints every result.
//
// The OMDb check is skipped when no API key is configured.
package preflight
