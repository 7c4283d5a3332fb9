package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jellyrequest/jellyrequest/internal/config"
)

type rootOptions struct {
	configPath string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "jellyrequest",
		Short: "Request IMDb's most popular movies in Jellyseerr",
		Long: `jellyrequest scrapes IMDb's most popular movies chart, skips titles that are
already available or requested, and submits requests for the rest to a
Jellyseerr (or Overseerr) server.

Without a subcommand it behaves like "run": a batch now, then one every
RUN_INTERVAL_DAYS days.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve and decide every title without submitting requests")

	cmd.AddCommand(
		newRunCmd(opts),
		newOnceCmd(opts),
		newScrapeCmd(opts),
		newConfigCmd(opts),
	)

	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dryRun {
		cfg.Requests.DryRun = true
	}
	return cfg, nil
}
