package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"marquee/internal/catalog"
	"marquee/internal/enrichment"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var (
		offline bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show enriched details for one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			id, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			base, err := ctx.loadCatalog()
			if err != nil {
				return err
			}
			entity, err := catalog.Find(base, id)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("movie %d is not in the catalog", id)
			}
			if err != nil {
				return err
			}

			st := ctx.openCache()
			client, err := ctx.newClient(ctx.probeOnce(cmd.Context(), offline), offline)
			if err != nil {
				return err
			}
			orch := ctx.newOrchestrator(st, client)

			enriched := orch.EnrichOne(cmd.Context(), entity)
			defer orch.Release(enriched.PosterRef)

			if jsonOut {
				return writeJSON(cmd, enriched)
			}
			var posterBytes int
			var posterType string
			if data, contentType, ok := orch.Poster(enriched.PosterRef); ok {
				posterBytes, posterType = len(data), contentType
			}
			fmt.Fprint(cmd.OutOrStdout(), renderDetail(enriched, posterBytes, posterType))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use only cached data; never contact OMDb")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderDetail(e enrichment.EnrichedEntity, posterBytes int, posterType string) string {
	var b strings.Builder
	title := fmt.Sprintf("%s (%s)", e.Title, e.YearLabel())
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("-", len(title)))

	fields := []struct {
		label string
		value string
	}{
		{label: "ID", value: strconv.Itoa(e.ID)},
		{label: "Franchise", value: e.Franchise},
		{label: "Released", value: e.ReleaseDate},
		{label: "Director", value: e.Director},
		{label: "Actors", value: e.Actors},
		{label: "Genre", value: e.Genre},
		{label: "Runtime", value: e.Runtime},
		{label: "Rating", value: e.Rating},
		{label: "Awards", value: e.Awards},
		{label: "Box office", value: e.BoxOffice},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%-11s %s\n", f.label+":", dash(f.value))
	}

	poster := "placeholder"
	if posterBytes > 0 {
		source := "fetched"
		if e.CachedPoster {
			source = "cached"
		}
		poster = fmt.Sprintf("%s, %s (%s)", posterType, humanize.Bytes(uint64(posterBytes)), source)
	}
	fmt.Fprintf(&b, "%-11s %s\n", "Poster:", poster)

	if e.Plot != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Plot)
	}
	if e.Unreleased() && !e.HasMetadata() {
		fmt.Fprintln(&b, "\nNot yet released; details appear once OMDb lists it.")
	}
	return b.String()
}
