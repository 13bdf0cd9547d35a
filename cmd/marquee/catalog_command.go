package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"marquee/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the movie catalog without enrichment",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogFranchisesCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var (
		franchise string
		search    string
		sortFlag  string
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := catalog.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			base, err := ctx.loadCatalog()
			if err != nil {
				return err
			}
			entities := catalog.List(base, catalog.Query{Franchise: franchise, Search: search, Sort: order})
			if jsonOut {
				return writeJSON(cmd, entities)
			}
			if len(entities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No movies match the given filters")
				return nil
			}
			rows := make([][]string, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, []string{strconv.Itoa(e.ID), e.Title, e.ReleaseDate, e.Franchise})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{right("ID"), left("Title"), left("Released"), left("Franchise")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&franchise, "franchise", "", "Only show movies from this franchise")
	cmd.Flags().StringVar(&search, "search", "", "Only show titles containing this text")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort order: releaseDate, newest, oldest, or title")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newCatalogFranchisesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "franchises",
		Short: "List franchises in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.loadCatalog()
			if err != nil {
				return err
			}
			for _, name := range catalog.Franchises(base) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
