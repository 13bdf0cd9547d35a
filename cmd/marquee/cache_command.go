package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"marquee/internal/daemon"
	"marquee/internal/retention"
	"marquee/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the poster and metadata cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size, counts, and ages",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			health, healthErr := st.CheckHealth(cmd.Context())
			if jsonOut {
				return writeJSON(cmd, struct {
					store.Stats
					Health store.Health
				}{stats, health})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Database:  %s (%s)\n", stats.Path, humanize.Bytes(uint64(stats.SizeBytes)))
			fmt.Fprintf(w, "Posters:   %d of %d max, %s; %s\n",
				stats.PosterCount, ctx.config.Enrichment.MaxPosters,
				humanize.Bytes(uint64(stats.PosterBytes)), ageRange(stats.OldestPoster, stats.NewestPoster))
			fmt.Fprintf(w, "Metadata:  %d records; %s\n", stats.MetadataCount, ageRange(stats.OldestMetadata, stats.NewestMetadata))
			fmt.Fprintf(w, "Integrity: %s (schema v%d)\n", yesNo(health.IntegrityCheck), health.SchemaVersion)
			if healthErr != nil {
				fmt.Fprintf(w, "Health error: %v\n", healthErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func ageRange(oldest, newest time.Time) string {
	if oldest.IsZero() {
		return "empty"
	}
	return fmt.Sprintf("oldest %s, newest %s", humanize.Time(oldest), humanize.Time(newest))
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached posters or metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			kind, err := store.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			policy := retention.NewPolicy(ctx.config)

			var (
				columns []column
				rows    [][]string
			)
			switch kind {
			case store.KindPosters:
				columns = []column{left("Key"), right("Movie"), wrapped("Title", 40), left("Year"), right("Size"), left("Cached"), left("Fresh")}
				for rec, err := range st.Posters(cmd.Context()) {
					if err != nil {
						return fmt.Errorf("list posters: %w", err)
					}
					rows = append(rows, []string{
						rec.Key,
						strconv.Itoa(rec.EntityID),
						rec.Title,
						dash(rec.Year),
						humanize.Bytes(uint64(len(rec.Image))),
						humanize.Time(rec.Timestamp),
						yesNo(policy.PosterFresh(&rec)),
					})
				}
			case store.KindMetadata:
				columns = []column{right("Movie"), wrapped("Director", 32), right("Rating"), left("Updated"), left("Fresh")}
				for rec, err := range st.Metadata(cmd.Context()) {
					if err != nil {
						return fmt.Errorf("list metadata: %w", err)
					}
					rows = append(rows, []string{
						strconv.Itoa(rec.EntityID),
						dash(rec.Director),
						dash(rec.Rating),
						humanize.Time(rec.LastUpdated),
						yesNo(policy.MetadataFresh(&rec)),
					})
				}
			}

			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No cached %s\n", kind)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", string(store.KindPosters), "Record kind: posters or metadata")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var maxPosters int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Evict the oldest posters beyond the configured bound",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			bound := ctx.config.Enrichment.MaxPosters
			if cmd.Flags().Changed("max") {
				bound = maxPosters
			}
			if bound <= 0 {
				return fmt.Errorf("poster bound must be positive (got %d)", bound)
			}
			lock, err := daemon.AcquireLock(ctx.config.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			deleted := retention.NewPruner(st, ctx.ensureLogger()).Prune(cmd.Context(), bound)
			remaining, err := st.Count(cmd.Context(), store.KindPosters)
			if err != nil {
				return fmt.Errorf("count posters: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d posters; %d remain (bound %d)\n", deleted, remaining, bound)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPosters, "max", 0, "Keep at most this many posters (default enrichment.max_posters)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached records",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			kinds := store.Kinds()
			if kindFlag != "" {
				kind, err := store.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []store.Kind{kind}
			}
			lock, err := daemon.AcquireLock(ctx.config.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			for _, kind := range kinds {
				removed, err := st.Clear(cmd.Context(), kind)
				if err != nil {
					return fmt.Errorf("clear %s: %w", kind, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s records\n", removed, kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only clear this kind: posters or metadata")
	return cmd
}
