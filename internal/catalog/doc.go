// Package catalog holds the static movie list that enrichment runs over.
//
// The built-in list is embedded at compile time and can be replaced with a
// JSON file of the same shape. Helpers extract release years, detect
// unreleased titles, and implement the franchise/search filters and sort
// orders used by the CLI.
package catalog
