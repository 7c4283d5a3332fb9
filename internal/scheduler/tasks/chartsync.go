package tasks

import (
	"context"
	"fmt"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/requester"
	"github.com/jellyrequest/jellyrequest/internal/scheduler"
)

const ChartSyncTaskID = "chart-sync"

// BatchRunner runs one chart sync batch.
type BatchRunner interface {
	Run(ctx context.Context) (*requester.Report, error)
}

// RegisterChartSyncTask registers the chart sync task with the scheduler.
func RegisterChartSyncTask(sched *scheduler.Scheduler, runner BatchRunner, cfg *config.ScheduleConfig) error {
	if cfg.IntervalDays <= 0 {
		return fmt.Errorf("chart sync interval must be positive, got %d days", cfg.IntervalDays)
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ChartSyncTaskID,
		Name:        "Chart Sync",
		Description: "Scrape the popular movies chart and request titles missing from the catalog",
		Interval:    cfg.Interval(),
		RunOnStart:  cfg.RunOnStart,
		Func: func(ctx context.Context) error {
			_, err := runner.Run(ctx)
			return err
		},
	})
}
