package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/connectivity"
	"marquee/internal/enrichment"
	"marquee/internal/logging"
	"marquee/internal/omdb"
	"marquee/internal/store"
)

type commandContext struct {
	configFlag string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	// Test hooks for the OMDb transport and the connectivity answer.
	httpClient *http.Client
	checker    omdb.Checker

	closers []func()
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, resolved, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *commandContext) openStore() (*store.Store, error) {
	st, err := store.Open(c.config)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	c.onClose(func() { _ = st.Close() })
	return st, nil
}

// openCache opens the store for commands that still work without one. A
// failure is logged and yields nil, which the orchestrator treats as a cache
// miss for every lookup.
func (c *commandContext) openCache() *store.Store {
	st, err := c.openStore()
	if err != nil {
		logging.WarnWithContext(c.ensureLogger(), "cache unavailable; continuing without it", "cache_storage_error",
			logging.Error(err),
			logging.String("path", c.config.DatabasePath()),
			logging.String(logging.FieldErrorHint, "check paths.data_dir permissions and free space, or move the broken cache file aside"),
			logging.String(logging.FieldImpact, "movies are fetched live and nothing is cached until the store opens"),
		)
		return nil
	}
	return st
}

func (c *commandContext) loadCatalog() ([]catalog.Entity, error) {
	entities, err := catalog.Load(c.config.Paths.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return entities, nil
}

// newClient builds the OMDb client. With offline set no request is issued;
// otherwise checker gates each request.
func (c *commandContext) newClient(checker omdb.Checker, offline bool) (*omdb.Client, error) {
	if err := c.config.RequireOMDBKey(); err != nil && !offline {
		return nil, err
	}
	if offline {
		checker = connectivity.Static(false)
	}
	key := c.config.OMDb.APIKey
	if key == "" {
		key = "offline"
	}
	opts := []omdb.Option{
		omdb.WithTimeout(c.config.OMDbTimeout()),
		omdb.WithNegativeCacheTTL(c.config.NegativeCacheTTL()),
		omdb.WithChecker(checker),
		omdb.WithLogger(c.ensureLogger()),
	}
	if c.httpClient != nil {
		opts = append(opts, omdb.WithHTTPClient(c.httpClient))
	}
	return omdb.New(key, c.config.OMDb.BaseURL, opts...)
}

// probeOnce checks connectivity a single time for one-shot commands.
func (c *commandContext) probeOnce(ctx context.Context, offline bool) omdb.Checker {
	if offline {
		return connectivity.Static(false)
	}
	if c.checker != nil {
		return c.checker
	}
	monitor := connectivity.NewFromConfig(c.config, c.ensureLogger())
	monitor.Probe(ctx)
	return monitor
}

func (c *commandContext) newOrchestrator(st *store.Store, client *omdb.Client) *enrichment.Orchestrator {
	orch := enrichment.New(st, client, enrichment.OptionsFromConfig(c.config, c.ensureLogger()))
	c.onClose(orch.Close)
	return orch
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
