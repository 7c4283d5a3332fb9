package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jellyrequest/jellyrequest/internal/requester"
)

func newOnceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single batch and exit",
		Long: `Scrapes the chart, processes every title and prints the batch report. Exits
non-zero when the chart yields no titles or any title ends in ERROR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			a := newApp(cfg, cmd.OutOrStdout())
			defer a.Close()

			ctx := cmd.Context()
			a.checkCatalog(ctx)

			report, err := a.service.Run(ctx)
			if err != nil {
				return err
			}
			if n := report.Counts[requester.OutcomeError]; n > 0 {
				return errors.New("batch finished with errors")
			}
			return nil
		},
	}
}
