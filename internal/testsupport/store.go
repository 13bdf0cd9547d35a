package testsupport

import (
	"context"
	"testing"
	"time"

	"marquee/internal/config"
	"marquee/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedPoster writes a poster record with the given age and returns its key.
func SeedPoster(t testing.TB, st *store.Store, entityID int, title, year string, age time.Duration) string {
	t.Helper()

	key := store.PosterKey(title, year)
	err := st.PutPoster(context.Background(), store.PosterRecord{
		Key:         key,
		EntityID:    entityID,
		Title:       title,
		Year:        year,
		Image:       FakeImage(byte(entityID), 64),
		ContentType: "image/jpeg",
		Timestamp:   time.Now().Add(-age),
	})
	if err != nil {
		t.Fatalf("store.PutPoster: %v", err)
	}
	return key
}

// SeedMetadata writes a metadata record with the given age.
func SeedMetadata(t testing.TB, st *store.Store, rec store.MetadataRecord, age time.Duration) store.MetadataRecord {
	t.Helper()

	rec.LastUpdated = time.Now().Add(-age)
	stored, err := st.PutMetadata(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.PutMetadata: %v", err)
	}
	return stored
}
