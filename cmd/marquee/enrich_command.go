package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/enrichment"
)

type enrichedJSON struct {
	enrichment.EnrichedEntity
	PosterFile string `json:"posterFile,omitempty"`
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var (
		offline    bool
		franchise  string
		search     string
		sortFlag   string
		postersDir string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich the catalog from the cache and OMDb",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg := ctx.config

			order, err := catalog.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			base, err := ctx.loadCatalog()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			lock, err := daemon.AcquireLock(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			st := ctx.openCache()
			client, err := ctx.newClient(ctx.probeOnce(runCtx, offline), offline)
			if err != nil {
				return err
			}
			orch := ctx.newOrchestrator(st, client)

			stop := func() {}
			if !jsonOut {
				stop = startProgress(cmd.ErrOrStderr(), orch)
			}
			enriched, err := orch.Run(runCtx, base)
			stop()
			if err != nil {
				return fmt.Errorf("enrich: %w", err)
			}

			selected := selectEnriched(base, enriched, catalog.Query{Franchise: franchise, Search: search, Sort: order})

			var files map[int]string
			if dir := strings.TrimSpace(postersDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve posters directory: %w", err)
				}
				files, err = exportPosters(expanded, orch, selected)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				out := make([]enrichedJSON, len(selected))
				for i, entity := range selected {
					out[i] = enrichedJSON{EnrichedEntity: entity, PosterFile: files[entity.ID]}
				}
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			if len(selected) == 0 {
				fmt.Fprintln(w, "No movies match the given filters")
				return nil
			}
			fmt.Fprintln(w, renderEnrichedTable(selected))
			fmt.Fprintln(w, enrichSummary(selected, offline))
			if len(files) > 0 {
				fmt.Fprintf(w, "Exported %d posters to %s\n", len(files), postersDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use only cached data; never contact OMDb")
	cmd.Flags().StringVar(&franchise, "franchise", "", "Only show movies from this franchise")
	cmd.Flags().StringVar(&search, "search", "", "Only show titles containing this text")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort order: releaseDate, newest, oldest, or title")
	cmd.Flags().StringVar(&postersDir, "posters-dir", "", "Write resolved posters into this directory")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// selectEnriched applies q to the base list and returns the matching
// enriched entries in the query's order.
func selectEnriched(base []catalog.Entity, enriched []enrichment.EnrichedEntity, q catalog.Query) []enrichment.EnrichedEntity {
	byID := make(map[int]enrichment.EnrichedEntity, len(enriched))
	for _, entity := range enriched {
		byID[entity.ID] = entity
	}
	matches := catalog.List(base, q)
	out := make([]enrichment.EnrichedEntity, 0, len(matches))
	for _, entity := range matches {
		if e, ok := byID[entity.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func renderEnrichedTable(entities []enrichment.EnrichedEntity) string {
	columns := []column{
		right("ID"), wrapped("Title", 40), left("Year"), left("Franchise"),
		right("Rating"), right("Runtime"), wrapped("Director", 24), left("Poster"),
	}
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.Title,
			e.YearLabel(),
			e.Franchise,
			dash(e.Rating),
			dash(e.Runtime),
			dash(e.Director),
			posterState(e),
		})
	}
	return renderTable(columns, rows)
}

func posterState(e enrichment.EnrichedEntity) string {
	switch {
	case !e.PosterRef.Valid():
		return "-"
	case e.CachedPoster:
		return "cached"
	default:
		return "fetched"
	}
}

func enrichSummary(entities []enrichment.EnrichedEntity, offline bool) string {
	var withMeta, withPoster, cached int
	for _, e := range entities {
		if e.HasMetadata() {
			withMeta++
		}
		if e.PosterRef.Valid() {
			withPoster++
		}
		if e.CachedPoster {
			cached++
		}
	}
	summary := fmt.Sprintf("%d movies: %d with metadata, %d with posters (%d from cache)", len(entities), withMeta, withPoster, cached)
	if offline {
		summary += "; offline mode"
	}
	return summary
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
