package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newScrapeCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Print the titles currently on the chart",
		Long:  `Fetches and extracts the chart without contacting Jellyseerr.`,
		Example: `  # Show the top 10
  jellyrequest scrape --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if limit > 0 {
				cfg.Chart.Limit = limit
			}

			a := newApp(cfg, cmd.ErrOrStderr())
			defer a.Close()

			candidates := a.source.Titles(cmd.Context())
			if len(candidates) == 0 {
				return fmt.Errorf("no titles found at %s", cfg.Chart.URL)
			}

			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{strconv.Itoa(c.Rank), c.Raw, c.Normalized})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Title", "Normalized"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Override MOVIE_LIMIT")

	return cmd
}
