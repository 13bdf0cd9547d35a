// Package omdb provides the OMDb movie-information client used during
// enrichment.
//
// Lookup and DownloadImage return typed errors (ErrNotFound, ErrOffline,
// *TransportError) for callers that need to tell them apart. FetchMetadata
// and FetchImage collapse every failure into "absent" and log transport
// problems, which is what the enrichment pipeline wants. A connectivity
// Checker short-circuits requests while offline, and a short-lived negative
// cache suppresses repeated lookups for titles OMDb does not know.
package omdb
