package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/chart"
	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/logger"
	"github.com/jellyrequest/jellyrequest/internal/requester"
)

const recentLogEntries = 500

// app wires the services shared by every command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	catalog *jellyseerr.Client
	source  *chart.Source
	service *requester.Service
}

func newApp(cfg *config.Config, out io.Writer) *app {
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		RecentSize: recentLogEntries,
		Out:        out,
	})

	catalog := jellyseerr.NewClient(cfg.Jellyseerr, log.Logger)
	source := chart.NewSource(cfg.Chart, chart.NewHTTPFetcher(cfg.Chart), log.Logger)

	service := requester.NewService(catalog, source, requester.Options{
		Is4K:            cfg.Requests.Is4K,
		DryRun:          cfg.Requests.DryRun,
		RequestPageSize: cfg.Jellyseerr.RequestPageSize,
	}, log.Logger)
	service.SetOutput(out)

	return &app{
		cfg:     cfg,
		log:     log,
		catalog: catalog,
		source:  source,
		service: service,
	}
}

func (a *app) Close() error {
	return a.log.Close()
}

// checkCatalog logs whether the catalog is reachable with the configured key.
// A failure is not fatal: the batch fails open and retries on its next run.
func (a *app) checkCatalog(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	status, err := a.catalog.Status(ctx)
	switch {
	case errors.Is(err, jellyseerr.ErrAPIKeyMissing):
		a.log.Warn().Msg("API_KEY is not set, Jellyseerr will reject requests")
	case err != nil:
		a.log.Warn().Err(err).Str("url", a.cfg.Jellyseerr.URL).Msg("Jellyseerr is not reachable")
	default:
		a.log.Info().Str("url", a.cfg.Jellyseerr.URL).Str("version", status.Version).Msg("connected to Jellyseerr")
	}
}
