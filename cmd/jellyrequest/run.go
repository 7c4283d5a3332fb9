package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jellyrequest/jellyrequest/internal/api"
	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/scheduler"
	"github.com/jellyrequest/jellyrequest/internal/scheduler/tasks"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a batch now and then on the configured interval",
		Long: `Starts the scheduler and, unless disabled, the status API. A batch runs at
startup and then every RUN_INTERVAL_DAYS days until interrupted.`,
		Example: `  # Run with settings from the environment or .env
  jellyrequest run

  # Run from a config file without submitting requests
  jellyrequest run --config config.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, opts)
		},
	}
}

func runDaemon(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	started := time.Now()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBanner(cfg, started))

	a := newApp(cfg, out)
	defer a.Close()

	a.log.Info().
		Str("version", config.Version).
		Str("revision", config.Revision).
		Str("jellyseerr", cfg.Jellyseerr.URL).
		Int("intervalDays", cfg.Schedule.IntervalDays).
		Int("limit", cfg.Chart.Limit).
		Bool("dryRun", cfg.Requests.DryRun).
		Msg("starting jellyrequest")

	ctx := cmd.Context()
	a.checkCatalog(ctx)

	sched, err := scheduler.New(a.log.Logger)
	if err != nil {
		return err
	}
	if err := tasks.RegisterChartSyncTask(sched, a.service, &cfg.Schedule); err != nil {
		return err
	}

	var server *api.Server
	serverErr := make(chan error, 1)
	if cfg.Server.Enabled {
		server = api.NewServer(cfg, api.Deps{
			Batches:   a.service,
			Scheduler: sched,
			Catalog:   a.catalog,
			Logs:      a.log,
			SyncTask:  tasks.ChartSyncTaskID,
		}, a.log.Logger)

		go func() {
			if err := server.Start(cfg.Server.Address()); err != nil {
				serverErr <- err
			}
		}()
	}

	if err := sched.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.log.Info().Msg("received shutdown signal")
	case err = <-serverErr:
		a.log.Error().Err(err).Msg("HTTP server failed")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			a.log.Warn().Err(serr).Msg("HTTP server shutdown failed")
		}
	}
	if serr := sched.Stop(); serr != nil {
		a.log.Warn().Err(serr).Msg("scheduler shutdown failed")
	}

	a.log.Info().Dur("uptime", time.Since(started)).Msg("stopped")
	return err
}
