package store

import (
	"strings"

	"marquee/internal/textutil"
)

// PosterKey derives the content-identity key for a poster: the folded title
// joined with the release year, or "unknown" when the year is missing.
func PosterKey(title, year string) string {
	year = strings.TrimSpace(year)
	if year == "" {
		year = "unknown"
	}
	return textutil.FoldKey(title) + "_" + year
}
