package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. The OMDb API key is checked
// separately by RequireOMDBKey so offline commands work without one.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOMDb(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateConnectivity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateOMDb() error {
	parsed, err := url.Parse(c.OMDb.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("omdb.base_url must be an absolute URL, got %q", c.OMDb.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("omdb.base_url must use http or https, got %q", parsed.Scheme)
	}
	if c.OMDb.RequestTimeout <= 0 {
		return errors.New("omdb.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.Enrichment.BatchSize < 1 {
		return errors.New("enrichment.batch_size must be at least 1")
	}
	if c.Enrichment.BatchDelayMS < 0 {
		return errors.New("enrichment.batch_delay_ms must be non-negative")
	}
	if c.Enrichment.MetadataTTLDays < 1 {
		return errors.New("enrichment.metadata_ttl_days must be at least 1")
	}
	if c.Enrichment.PosterTTLDays < 1 {
		return errors.New("enrichment.poster_ttl_days must be at least 1")
	}
	if c.Enrichment.MaxPosters < 0 {
		return errors.New("enrichment.max_posters must be non-negative (0 disables eviction)")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.MinFreeMiB < 0 {
		return errors.New("storage.min_free_mib must be non-negative")
	}
	return nil
}

func (c *Config) validateConnectivity() error {
	if _, _, err := net.SplitHostPort(c.Connectivity.ProbeAddress); err != nil {
		return fmt.Errorf("connectivity.probe_address must be host:port: %w", err)
	}
	if c.Connectivity.ProbeInterval < 0 {
		return errors.New("connectivity.probe_interval must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
