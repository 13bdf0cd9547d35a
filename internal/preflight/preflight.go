package preflight

import (
	"context"

	"marquee/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunLocal executes the checks that need no network access.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Cache disk space", cfg.Paths.DataDir, cfg.MinFreeBytes()),
		CheckCatalog(cfg.Paths.CatalogPath),
	}
}

// RunAll executes the local checks plus the OMDb check when a key is set.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunLocal(cfg)
	if cfg.OMDb.APIKey != "" {
		results = append(results, CheckOMDb(ctx, cfg.OMDb.BaseURL, cfg.OMDb.APIKey, cfg.OMDbTimeout()))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
