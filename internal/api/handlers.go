package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/scheduler"
)

const catalogCheckTimeout = 5 * time.Second

type catalogStatus struct {
	Reachable bool   `json:"reachable"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

type statusResponse struct {
	Version    string         `json:"version"`
	Revision   string         `json:"revision"`
	StartTime  string         `json:"startTime"`
	Uptime     string         `json:"uptime"`
	Running    bool           `json:"running"`
	DryRun     bool           `json:"dryRun"`
	ChartURL   string         `json:"chartUrl"`
	MovieLimit int            `json:"movieLimit"`
	Catalog    *catalogStatus `json:"catalog,omitempty"`
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports build info, batch state and catalog reachability.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	resp := statusResponse{
		Version:    config.Version,
		Revision:   config.Revision,
		StartTime:  s.startedAt.Format(time.RFC3339),
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Running:    s.deps.Batches != nil && s.deps.Batches.Running(),
		DryRun:     s.cfg.Requests.DryRun,
		ChartURL:   s.cfg.Chart.URL,
		MovieLimit: s.cfg.Chart.Limit,
	}

	if s.deps.Catalog != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), catalogCheckTimeout)
		defer cancel()

		cs := &catalogStatus{}
		if st, err := s.deps.Catalog.Status(ctx); err != nil {
			cs.Error = err.Error()
		} else {
			cs.Reachable = true
			cs.Version = st.Version
		}
		resp.Catalog = cs
	}

	return c.JSON(http.StatusOK, resp)
}

// getLastRun returns the report of the most recent completed batch.
// GET /api/v1/runs/last
func (s *Server) getLastRun(c echo.Context) error {
	if s.deps.Batches == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no batch has completed yet")
	}
	report := s.deps.Batches.LastReport()
	if report == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no batch has completed yet")
	}
	return c.JSON(http.StatusOK, report)
}

// triggerRun starts the chart sync task outside its schedule.
// POST /api/v1/runs
func (s *Server) triggerRun(c echo.Context) error {
	if s.deps.Scheduler == nil || s.deps.SyncTask == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "scheduler not available")
	}
	if s.deps.Batches != nil && s.deps.Batches.Running() {
		return echo.NewHTTPError(http.StatusConflict, "a batch is already running")
	}

	if err := s.deps.Scheduler.RunNow(s.deps.SyncTask); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrTaskAlreadyRunning):
			return echo.NewHTTPError(http.StatusConflict, "a batch is already running")
		case errors.Is(err, scheduler.ErrTaskNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	s.logger.Info().Str("task", s.deps.SyncTask).Msg("batch triggered via API")
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

// listTasks returns scheduler task info.
// GET /api/v1/tasks
func (s *Server) listTasks(c echo.Context) error {
	if s.deps.Scheduler == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.deps.Scheduler.ListTasks())
}
