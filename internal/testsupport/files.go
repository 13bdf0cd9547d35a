package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"marquee/internal/catalog"
)

// FakeImage returns size bytes of a repeating pattern seeded by seed. A size
// <= 0 yields a single byte.
func FakeImage(seed byte, size int) []byte {
	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = seed ^ byte(i)
	}
	return buf
}

// WriteCatalog writes entities as a catalog JSON file and returns its path.
func WriteCatalog(t testing.TB, dir string, entities []catalog.Entity) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for catalog: %v", err)
	}
	data, err := json.Marshal(entities)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	path := filepath.Join(dir, "movies.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

// Entities builds n catalog entries titled "Movie 1".."Movie n" released in
// consecutive years from 2001.
func Entities(n int) []catalog.Entity {
	out := make([]catalog.Entity, n)
	for i := range out {
		id := i + 1
		out[i] = catalog.Entity{
			ID:          id,
			Title:       "Movie " + strconv.Itoa(id),
			ReleaseDate: "May 1, " + strconv.Itoa(2000+id),
			Franchise:   "Test",
		}
	}
	return out
}
