package store_test

import (
	"context"
	"errors"
	"testing"

	"marquee/internal/store"
	"marquee/internal/testsupport"
)

func execRaw(st *store.Store, query string) error {
	return st.ExecRaw(query)
}

func TestPutPosterRefusesBelowFreeSpaceFloor(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	st.SetMinFree(1 << 20)
	st.SetStatfs(func(string) (uint64, error) { return 1024, nil })

	err := st.PutPoster(context.Background(), store.PosterRecord{
		Key:   store.PosterKey("Blade", "1998"),
		Image: testsupport.FakeImage(1, 10),
	})
	if !errors.Is(err, store.ErrLowDiskSpace) {
		t.Fatalf("expected ErrLowDiskSpace, got %v", err)
	}
	var se *store.StorageError
	if !errors.As(err, &se) || se.Op != "put poster" {
		t.Fatalf("expected put poster StorageError, got %#v", err)
	}

	st.SetStatfs(func(string) (uint64, error) { return 2 << 20, nil })
	if err := st.PutPoster(context.Background(), store.PosterRecord{
		Key:   store.PosterKey("Blade", "1998"),
		Image: testsupport.FakeImage(1, 10),
	}); err != nil {
		t.Fatalf("PutPoster with enough space: %v", err)
	}
}

func TestStatfsFailureSurfacesAsStorageError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	st.SetMinFree(1)
	st.SetStatfs(func(string) (uint64, error) { return 0, errors.New("io failure") })

	err := st.PutPoster(context.Background(), store.PosterRecord{Key: "k_1", Image: []byte{1}})
	if !store.IsStorageError(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}
