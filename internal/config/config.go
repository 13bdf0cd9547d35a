package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"marquee/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	CatalogPath string `toml:"catalog_path"`
}

// OMDb contains configuration for the OMDb movie-information API.
type OMDb struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	RequestTimeout   int    `toml:"request_timeout"`
	NegativeCacheTTL int    `toml:"negative_cache_ttl"`
}

// Enrichment contains batching and freshness settings for enrichment runs.
type Enrichment struct {
	BatchSize       int `toml:"batch_size"`
	BatchDelayMS    int `toml:"batch_delay_ms"`
	MetadataTTLDays int `toml:"metadata_ttl_days"`
	PosterTTLDays   int `toml:"poster_ttl_days"`
	MaxPosters      int `toml:"max_posters"`
}

// Storage contains settings for the persistent cache database.
type Storage struct {
	MinFreeMiB int `toml:"min_free_mib"`
}

// Connectivity contains settings for the online/offline monitor.
type Connectivity struct {
	ProbeAddress  string `toml:"probe_address"`
	ProbeInterval int    `toml:"probe_interval"`
	ProbeTimeout  int    `toml:"probe_timeout"`
	Netlink       bool   `toml:"netlink"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for marquee.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and catalog locations
//   - OMDb: metadata API credentials and timeouts
//   - Enrichment: batch sizing and cache freshness
//   - Storage: database free-space floor
//   - Connectivity: reachability probe and netlink triggers
//   - Logging: log format, level, and retention
type Config struct {
	Paths        Paths        `toml:"paths"`
	OMDb         OMDb         `toml:"omdb"`
	Enrichment   Enrichment   `toml:"enrichment"`
	Storage      Storage      `toml:"storage"`
	Connectivity Connectivity `toml:"connectivity"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/marquee/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("marquee.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite cache location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cache.db")
}

// LockPath returns the single-instance lock file inside the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "marquee.lock")
}

// RequireOMDBKey reports a descriptive error when no API key is configured.
// Only commands that talk to OMDb call it; cache and catalog commands work
// without a key.
func (c *Config) RequireOMDBKey() error {
	if strings.TrimSpace(c.OMDb.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/marquee/config.toml"
	}
	return fmt.Errorf("omdb.api_key is required. Set OMDB_API_KEY env var or edit %s (create with 'marquee config init')", defaultPath)
}

// OMDbTimeout returns the per-request HTTP timeout.
func (c *Config) OMDbTimeout() time.Duration {
	return time.Duration(c.OMDb.RequestTimeout) * time.Second
}

// NegativeCacheTTL returns how long a not-found lookup is remembered.
func (c *Config) NegativeCacheTTL() time.Duration {
	return time.Duration(c.OMDb.NegativeCacheTTL) * time.Second
}

// BatchDelay returns the pause between enrichment batches.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Enrichment.BatchDelayMS) * time.Millisecond
}

// MetadataTTL returns the metadata freshness window.
func (c *Config) MetadataTTL() time.Duration {
	return time.Duration(c.Enrichment.MetadataTTLDays) * 24 * time.Hour
}

// PosterTTL returns the poster freshness window.
func (c *Config) PosterTTL() time.Duration {
	return time.Duration(c.Enrichment.PosterTTLDays) * 24 * time.Hour
}

// MinFreeBytes returns the storage free-space floor in bytes.
func (c *Config) MinFreeBytes() uint64 {
	if c.Storage.MinFreeMiB <= 0 {
		return 0
	}
	return uint64(c.Storage.MinFreeMiB) << 20
}

// ProbeInterval returns the connectivity re-probe interval.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.Connectivity.ProbeInterval) * time.Second
}

// ProbeTimeout returns the connectivity dial timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Connectivity.ProbeTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "marquee")
	}
	return "~/.local/share/marquee"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
