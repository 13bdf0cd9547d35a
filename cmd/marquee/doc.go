// Command marquee enriches the movie catalog with OMDb metadata and posters
// and manages the local cache behind it.
//
// Subcommands:
//
//	marquee enrich          one enrichment run, printed as a table or JSON
//	marquee show <id>       detail view for a single movie
//	marquee watch           stay running and re-enrich when the network returns
//	marquee catalog ...     list the built-in catalog without enrichment
//	marquee cache ...       inspect, prune, or clear the cache
//	marquee config ...      create or inspect the configuration file
//
// A .env file in the working directory is loaded before configuration, so
// OMDB_API_KEY may live there.
package main
