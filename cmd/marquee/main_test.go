package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/connectivity"
	"marquee/internal/logging"
	"marquee/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	lookups    atomic.Int32
	downloads  atomic.Int32
	server     *httptest.Server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("OMDB_API_KEY", "")

	env := &cliTestEnv{baseDir: base}
	mux := http.NewServeMux()
	mux.HandleFunc("/posters/", func(w http.ResponseWriter, r *http.Request) {
		env.downloads.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(testsupport.FakeImage(7, 48))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		env.lookups.Add(1)
		title := r.URL.Query().Get("t")
		if title == "Lost Film" {
			fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Response":   "True",
			"Title":      title,
			"Plot":       "About " + title,
			"Director":   "Jane Doe",
			"imdbRating": "8.0",
			"Runtime":    "101 min",
			"Poster":     env.server.URL + "/posters/" + strings.ReplaceAll(title, " ", "_") + ".jpg",
		})
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithOMDb(env.server.URL+"/", "test"))
	cfg.Logging.Level = "error"
	cfg.Paths.CatalogPath = testsupport.WriteCatalog(t, filepath.Join(base, "catalog"), []catalog.Entity{
		{ID: 1, Title: "Space Saga", ReleaseDate: "May 25, 1977", Franchise: "Saga"},
		{ID: 2, Title: "Space Saga II", ReleaseDate: "May 21, 1980", Franchise: "Saga"},
		{ID: 3, Title: "Lost Film", ReleaseDate: "June 1, 1999", Franchise: "Other"},
		{ID: 4, Title: "Saga Returns", ReleaseDate: "TBA", Franchise: "Saga"},
	})
	env.cfg = cfg
	env.configPath = filepath.Join(base, "config.toml")
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := newCommandContext()
	ctx.httpClient = e.server.Client()
	ctx.checker = connectivity.Static(true)
	cmd := newRootCommandWithContext(ctx)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEnrichCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "enrich")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	for _, want := range []string{"Space Saga", "Jane Doe", "fetched", "Upcoming", "4 movies: 2 with metadata, 2 with posters (0 from cache)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if got := env.lookups.Load(); got != 3 {
		t.Fatalf("expected 3 lookups (TBA skipped), got %d", got)
	}

	out, err = env.run(t, "enrich", "--sort", "title")
	if err != nil {
		t.Fatalf("second enrich: %v", err)
	}
	if !strings.Contains(out, "(2 from cache)") {
		t.Fatalf("expected cached posters on second run:\n%s", out)
	}
	if got := env.downloads.Load(); got != 2 {
		t.Fatalf("expected posters downloaded once, got %d downloads", got)
	}
}

func TestEnrichCommandJSONAndExport(t *testing.T) {
	env := setupCLITestEnv(t)
	postersDir := filepath.Join(env.baseDir, "posters")

	out, err := env.run(t, "enrich", "--json", "--franchise", "Saga", "--posters-dir", postersDir)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	var entities []map[string]any
	if err := json.Unmarshal([]byte(out), &entities); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(entities) != 3 {
		t.Fatalf("expected 3 Saga entries, got %d", len(entities))
	}
	if entities[0]["title"] != "Space Saga" || entities[0]["director"] != "Jane Doe" {
		t.Fatalf("unexpected first entry %v", entities[0])
	}
	file, _ := entities[0]["posterFile"].(string)
	if file != filepath.Join(postersDir, "Space Saga (1977).jpg") {
		t.Fatalf("unexpected poster file %q", file)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("poster not exported: %v", err)
	}
}

// writeConfig rewrites the env's config file after cfg was changed.
func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestEnrichAndShowRunWithoutUsableCache(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.Level = "warn"
	env.cfg.Logging.Format = "json"
	env.writeConfig(t)

	// A directory where the database file belongs cannot be opened by SQLite.
	if err := os.MkdirAll(env.cfg.DatabasePath(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out, err := env.run(t, "enrich")
	if err != nil {
		t.Fatalf("enrich without cache: %v", err)
	}
	if !strings.Contains(out, "Jane Doe") || !strings.Contains(out, "2 with metadata, 2 with posters (0 from cache)") {
		t.Fatalf("expected live-fetched results:\n%s", out)
	}
	if got := env.lookups.Load(); got != 3 {
		t.Fatalf("expected 3 live lookups, got %d", got)
	}

	out, err = env.run(t, "show", "1")
	if err != nil {
		t.Fatalf("show without cache: %v", err)
	}
	if !strings.Contains(out, "fetched") {
		t.Fatalf("expected a live poster in show output:\n%s", out)
	}
	if got := env.downloads.Load(); got != 3 {
		t.Fatalf("nothing is cached, so every poster is downloaded again; got %d downloads", got)
	}

	logData, err := os.ReadFile(filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), `"event_type":"cache_storage_error"`) {
		t.Fatalf("expected a cache_storage_error warning in the log:\n%s", logData)
	}

	if _, err := env.run(t, "cache", "stats"); err == nil {
		t.Fatal("cache commands still require a working store")
	}
}

func TestEnrichCommandOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "enrich", "--offline")
	if err != nil {
		t.Fatalf("enrich --offline: %v", err)
	}
	if env.lookups.Load() != 0 || env.downloads.Load() != 0 {
		t.Fatal("offline enrich must not contact OMDb")
	}
	if !strings.Contains(out, "offline mode") {
		t.Fatalf("expected offline summary:\n%s", out)
	}
}

func TestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "show", "2")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Space Saga II (1980)", "Director:   Jane Doe", "About Space Saga II", "image/jpeg, 48 B (fetched)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := env.run(t, "show", "99"); err == nil || !strings.Contains(err.Error(), "not in the catalog") {
		t.Fatalf("expected missing movie error, got %v", err)
	}
}

func TestCatalogCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "catalog", "list", "--search", "saga", "--sort", "title")
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	if !strings.Contains(out, "Saga Returns") || strings.Contains(out, "Lost Film") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	out, err = env.run(t, "catalog", "franchises")
	if err != nil {
		t.Fatalf("catalog franchises: %v", err)
	}
	if strings.TrimSpace(out) != "Other\nSaga" {
		t.Fatalf("unexpected franchises %q", out)
	}
	if env.lookups.Load() != 0 {
		t.Fatal("catalog commands must not contact OMDb")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "enrich"); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	out, err := env.run(t, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(out, "Posters:   2 of 150 max") || !strings.Contains(out, "Metadata:  2 records") {
		t.Fatalf("unexpected stats:\n%s", out)
	}

	out, err = env.run(t, "cache", "list", "--kind", "metadata")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "Jane Doe") {
		t.Fatalf("expected metadata rows:\n%s", out)
	}

	out, err = env.run(t, "cache", "prune", "--max", "1")
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	if !strings.Contains(out, "Evicted 1 posters; 1 remain") {
		t.Fatalf("unexpected prune output: %s", out)
	}

	out, err = env.run(t, "cache", "clear", "--kind", "metadata")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Removed 2 metadata records") {
		t.Fatalf("unexpected clear output: %s", out)
	}
	if _, err := env.run(t, "cache", "clear", "--kind", "bogus"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "new", "config.toml")
	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target in output: %s", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}

	out, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "API reachable") || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "<redacted>") || strings.Contains(out, "api_key = 'test'") {
		t.Fatalf("api key should be redacted:\n%s", out)
	}
}

func TestEnrichRejectsBadSort(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "enrich", "--sort", "sideways"); err == nil {
		t.Fatal("expected sort error")
	}
}
