package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortOrder selects how List orders entities.
type SortOrder string

const (
	SortReleaseDate SortOrder = "releaseDate"
	SortNewest      SortOrder = "newest"
	SortOldest      SortOrder = "oldest"
	SortTitle       SortOrder = "title"
)

// ParseSortOrder validates a user-supplied sort name. Empty selects release
// date order.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "releasedate", "release", "release-date":
		return SortReleaseDate, nil
	case "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "title":
		return SortTitle, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want releaseDate, newest, oldest, or title)", value)
	}
}

// Query filters and orders a catalog listing. Empty fields match everything.
type Query struct {
	Franchise string
	Search    string
	Sort      SortOrder
}

// List applies q to entities and returns a new slice.
func List(entities []Entity, q Query) []Entity {
	franchise := strings.TrimSpace(q.Franchise)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		if franchise != "" && !strings.EqualFold(franchise, "all") && entity.Franchise != franchise {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(entity.Title), search) {
			continue
		}
		out = append(out, entity)
	}
	Sort(out, q.Sort)
	return out
}

// Sort orders entities in place. Unreleased or undated entries sort after
// dated ones, except for SortNewest where they lead.
func Sort(entities []Entity, order SortOrder) {
	switch order {
	case SortTitle:
		slices.SortStableFunc(entities, func(a, b Entity) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortNewest:
		slices.SortStableFunc(entities, func(a, b Entity) int {
			return -compareRelease(a, b)
		})
	default:
		slices.SortStableFunc(entities, compareRelease)
	}
}

// Franchises returns the distinct franchise names in ascending order.
func Franchises(entities []Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	out := make([]string, 0)
	for _, entity := range entities {
		if _, ok := seen[entity.Franchise]; ok {
			continue
		}
		seen[entity.Franchise] = struct{}{}
		out = append(out, entity.Franchise)
	}
	slices.Sort(out)
	return out
}

var releaseLayouts = []string{"January 2, 2006", "Jan 2, 2006", "2006-01-02", "January 2006", "2006"}

// ReleaseTime parses the free-form release date. Sentinel and unparseable
// dates report false.
func (e Entity) ReleaseTime() (time.Time, bool) {
	if e.Unreleased() {
		return time.Time{}, false
	}
	value := strings.TrimSpace(e.ReleaseDate)
	for _, layout := range releaseLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func compareRelease(a, b Entity) int {
	ta, okA := a.ReleaseTime()
	tb, okB := b.ReleaseTime()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return ta.Compare(tb)
}
