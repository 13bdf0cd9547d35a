package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"marquee/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func omdbServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestCheckOMDb_OK(t *testing.T) {
	base := omdbServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"Response":"True","Title":"Star Wars"}`))
	})

	result := CheckOMDb(context.Background(), base, "good-key", time.Second)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckOMDb_BadKey(t *testing.T) {
	base := omdbServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	})

	result := CheckOMDb(context.Background(), base, "bad-key", time.Second)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckOMDb_KeyErrorInBody(t *testing.T) {
	base := omdbServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"No API key provided."}`))
	})
	if result := CheckOMDb(context.Background(), base, "k", time.Second); result.Passed {
		t.Fatal("expected failure when OMDb rejects the key in the body")
	}
}

func TestCheckOMDb_MissingKey(t *testing.T) {
	result := CheckOMDb(context.Background(), "https://www.omdbapi.com/", "", time.Second)
	if result.Passed || result.Detail != "missing api key" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("disk", dir, 0); !result.Passed {
		t.Fatalf("zero floor should pass: %s", result.Detail)
	}
	if result := CheckFreeSpace("disk", dir, ^uint64(0)); result.Passed {
		t.Fatal("impossible floor should fail")
	}
}

func TestCheckCatalog(t *testing.T) {
	if result := CheckCatalog(""); !result.Passed {
		t.Fatalf("built-in catalog should load: %s", result.Detail)
	}
	bad := filepath.Join(t.TempDir(), "movies.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckCatalog(bad); result.Passed {
		t.Fatal("malformed catalog should fail")
	}
}

func TestRunAllSkipsOMDbWithoutKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.OMDb.APIKey = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results without an api key, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
