package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/logger"
	"github.com/jellyrequest/jellyrequest/internal/requester"
	"github.com/jellyrequest/jellyrequest/internal/scheduler"
)

type fakeBatches struct {
	last    *requester.Report
	running bool
}

func (f *fakeBatches) LastReport() *requester.Report { return f.last }
func (f *fakeBatches) Running() bool                 { return f.running }

type fakeScheduler struct {
	tasks  []scheduler.TaskInfo
	err    error
	runIDs []string
}

func (f *fakeScheduler) ListTasks() []scheduler.TaskInfo { return f.tasks }

func (f *fakeScheduler) RunNow(taskID string) error {
	if f.err != nil {
		return f.err
	}
	f.runIDs = append(f.runIDs, taskID)
	return nil
}

type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) Status(context.Context) (*jellyseerr.StatusResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &jellyseerr.StatusResponse{Version: "2.1.0"}, nil
}

type fakeLogs struct {
	entries []logger.Entry
	path    string
}

func (f *fakeLogs) RecentLogs() []logger.Entry { return f.entries }
func (f *fakeLogs) FilePath() string           { return f.path }

func newTestServer(deps Deps) *Server {
	cfg := config.Default()
	return NewServer(cfg, deps, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(Deps{})

	rec := do(t, s, http.MethodGet, "/api/v1/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetStatus(t *testing.T) {
	t.Run("catalog reachable", func(t *testing.T) {
		s := newTestServer(Deps{Batches: &fakeBatches{running: true}, Catalog: &fakeCatalog{}})

		rec := do(t, s, http.MethodGet, "/api/v1/status")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Running)
		assert.Equal(t, config.Version, resp.Version)
		require.NotNil(t, resp.Catalog)
		assert.True(t, resp.Catalog.Reachable)
		assert.Equal(t, "2.1.0", resp.Catalog.Version)
	})

	t.Run("catalog down", func(t *testing.T) {
		s := newTestServer(Deps{Catalog: &fakeCatalog{err: errors.New("connection refused")}})

		rec := do(t, s, http.MethodGet, "/api/v1/status")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Catalog)
		assert.False(t, resp.Catalog.Reachable)
		assert.Contains(t, resp.Catalog.Error, "connection refused")
	})
}

func TestGetLastRun(t *testing.T) {
	batches := &fakeBatches{}
	s := newTestServer(Deps{Batches: batches})

	rec := do(t, s, http.MethodGet, "/api/v1/runs/last")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	batches.last = &requester.Report{
		RunID:  "run-1",
		Total:  2,
		Counts: map[requester.Outcome]int{requester.OutcomeNewRequest: 1, requester.OutcomeNotFound: 1},
		Results: []requester.TitleResult{
			{Rank: 1, Title: "Barbie", Outcome: requester.OutcomeNewRequest, Reason: "Requested"},
			{Rank: 2, Title: "Wicked", Outcome: requester.OutcomeNotFound, Reason: "no search results"},
		},
	}

	rec = do(t, s, http.MethodGet, "/api/v1/runs/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var got requester.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, got.Counts[requester.OutcomeNotFound])
	require.Len(t, got.Results, 2)
	assert.Equal(t, "Wicked", got.Results[1].Title)
}

func TestTriggerRun(t *testing.T) {
	tests := []struct {
		name     string
		running  bool
		schedErr error
		want     int
	}{
		{"starts task", false, nil, http.StatusAccepted},
		{"batch running", true, nil, http.StatusConflict},
		{"task running", false, scheduler.ErrTaskAlreadyRunning, http.StatusConflict},
		{"task missing", false, scheduler.ErrTaskNotFound, http.StatusNotFound},
		{"other error", false, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{err: tt.schedErr}
			s := newTestServer(Deps{
				Batches:   &fakeBatches{running: tt.running},
				Scheduler: sched,
				SyncTask:  "chart-sync",
			})

			rec := do(t, s, http.MethodPost, "/api/v1/runs")
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusAccepted {
				assert.Equal(t, []string{"chart-sync"}, sched.runIDs)
			}
		})
	}

	t.Run("no scheduler", func(t *testing.T) {
		rec := do(t, newTestServer(Deps{}), http.MethodPost, "/api/v1/runs")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestListTasks(t *testing.T) {
	next := time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)
	s := newTestServer(Deps{Scheduler: &fakeScheduler{tasks: []scheduler.TaskInfo{
		{ID: "chart-sync", Name: "Chart Sync", Schedule: "every 168h0m0s", NextRun: &next},
	}}})

	rec := do(t, s, http.MethodGet, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []scheduler.TaskInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "chart-sync", tasks[0].ID)
	assert.True(t, next.Equal(*tasks[0].NextRun))

	rec = do(t, newTestServer(Deps{}), http.MethodGet, "/api/v1/tasks")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(Deps{}), http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logger.FileName)
	require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o644))

	logs := &fakeLogs{
		entries: []logger.Entry{{Message: "one"}, {Message: "two"}, {Message: "three"}},
		path:    path,
	}
	s := newTestServer(Deps{Logs: logs})

	rec := do(t, s, http.MethodGet, "/api/v1/logs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []logger.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Message)

	rec = do(t, s, http.MethodGet, "/api/v1/logs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/logs/download")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.Equal([]byte("line\n"), rec.Body.Bytes()))

	logs.path = ""
	rec = do(t, s, http.MethodGet, "/api/v1/logs/download")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogsDisabled(t *testing.T) {
	rec := do(t, newTestServer(Deps{}), http.MethodGet, "/api/v1/logs")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
