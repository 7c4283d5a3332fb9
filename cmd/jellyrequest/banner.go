package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jellyrequest/jellyrequest/internal/config"
)

func renderBanner(cfg *config.Config, started time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleDouble)
	tw.SetTitle("JELLY REQUEST\nIMDb to Jellyseerr Sync")

	mode := "live"
	if cfg.Requests.DryRun {
		mode = "dry run"
	}

	tw.AppendRows([]table.Row{
		{"Started", started.UTC().Format("2006-01-02 15:04:05 UTC")},
		{"Version", config.Version},
		{"Revision", config.Revision},
		{"Jellyseerr", cfg.Jellyseerr.URL},
		{"Chart", fmt.Sprintf("%s (top %d)", cfg.Chart.URL, cfg.Chart.Limit)},
		{"Interval", fmt.Sprintf("every %d day(s)", cfg.Schedule.IntervalDays)},
		{"4K requests", cfg.Requests.Is4K},
		{"Mode", mode},
	})

	return tw.Render()
}
