package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

//go:embed movies.json
var builtinMovies []byte

// Entity is one immutable catalog entry.
type Entity struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate"`
	Franchise   string `json:"franchise"`
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// ExtractYear returns the first run of four digits in a release date.
func ExtractYear(releaseDate string) (string, bool) {
	match := yearPattern.FindString(releaseDate)
	return match, match != ""
}

// IsUnreleasedDate reports whether a release date carries an upcoming or TBA
// sentinel.
func IsUnreleasedDate(releaseDate string) bool {
	lowered := strings.ToLower(releaseDate)
	return strings.Contains(lowered, "upcoming") || strings.Contains(lowered, "tba")
}

// Year returns the entity's release year when one can be extracted.
func (e Entity) Year() (string, bool) {
	return ExtractYear(e.ReleaseDate)
}

// Unreleased reports whether the entity has no confirmed release.
func (e Entity) Unreleased() bool {
	return IsUnreleasedDate(e.ReleaseDate)
}

// YearLabel renders the release year for display: the year, "Upcoming" for
// sentinel dates, or "TBA" when the date is empty.
func (e Entity) YearLabel() string {
	switch {
	case strings.TrimSpace(e.ReleaseDate) == "":
		return "TBA"
	case e.Unreleased():
		return "Upcoming"
	}
	year, _ := e.Year()
	return year
}

// Builtin returns a fresh copy of the embedded movie list.
func Builtin() []Entity {
	entities, err := Parse(builtinMovies)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded movie list is invalid: %v", err))
	}
	return entities
}

// Load reads a catalog JSON file. An empty path returns the built-in list.
func Load(path string) ([]Entity, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	entities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return entities, nil
}

// Parse decodes a JSON array of entities and checks identity constraints.
func Parse(data []byte) ([]Entity, error) {
	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(entities))
	for i, entity := range entities {
		if strings.TrimSpace(entity.Title) == "" {
			return nil, fmt.Errorf("entry %d: title is required", i)
		}
		if _, dup := seen[entity.ID]; dup {
			return nil, fmt.Errorf("entry %d: duplicate id %d", i, entity.ID)
		}
		seen[entity.ID] = struct{}{}
	}
	return entities, nil
}

// ErrNotFound is returned by Find when no entity has the requested id.
var ErrNotFound = errors.New("movie not found in catalog")

// Find returns the entity with the given id.
func Find(entities []Entity, id int) (Entity, error) {
	for _, entity := range entities {
		if entity.ID == id {
			return entity, nil
		}
	}
	return Entity{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
}
