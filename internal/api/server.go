//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/requester"
	"github.com/jellyrequest/jellyrequest/internal/scheduler"
)

// BatchService exposes the state of chart sync batches.
type BatchService interface {
	LastReport() *requester.Report
	Running() bool
}

// TaskScheduler lists and triggers scheduled tasks.
type TaskScheduler interface {
	ListTasks() []scheduler.TaskInfo
	RunNow(taskID string) error
}

// CatalogPinger verifies the catalog is reachable.
type CatalogPinger interface {
	Status(ctx context.Context) (*jellyseerr.StatusResponse, error)
}

// Deps are the services the API reports on. Logs may be nil.
type Deps struct {
	Batches   BatchService
	Scheduler TaskScheduler
	Catalog   CatalogPinger
	Logs      LogsProvider
	SyncTask  string
}

// Server serves the read-mostly status API.
type Server struct {
	echo      *echo.Echo
	logger    zerolog.Logger
	cfg       *config.Config
	deps      Deps
	startedAt time.Time
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		logger:    logger.With().Str("component", "api").Logger(),
		cfg:       cfg,
		deps:      deps,
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("64K"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")
	api.GET("/health", s.healthCheck)
	api.GET("/status", s.getStatus)

	runs := api.Group("/runs")
	runs.GET("/last", s.getLastRun)
	runs.POST("", s.triggerRun)

	api.GET("/tasks", s.listTasks)

	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs).RegisterRoutes(api.Group("/logs"))
	}
}

// Start begins listening for HTTP requests. It returns nil after a clean
// Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
