package testsupport

import (
	"path/filepath"
	"testing"

	"marquee/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Network-facing knobs are disabled: no netlink, no periodic probing, no
// batch delay, and no free-space floor.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.OMDb.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Enrichment.BatchDelayMS = 0
	cfgVal.Storage.MinFreeMiB = 0
	cfgVal.Connectivity.Netlink = false
	cfgVal.Connectivity.ProbeInterval = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOMDb points the test config at a fake OMDb endpoint.
func WithOMDb(baseURL, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.BaseURL = baseURL
		b.cfg.OMDb.APIKey = key
	}
}

// WithBatchSize overrides the enrichment batch size.
func WithBatchSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enrichment.BatchSize = n
	}
}

// WithMaxPosters overrides the poster eviction bound.
func WithMaxPosters(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enrichment.MaxPosters = n
	}
}

// WithCatalog points the config at a catalog file written by WriteCatalog.
func WithCatalog(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.CatalogPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
