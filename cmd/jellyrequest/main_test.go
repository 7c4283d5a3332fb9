package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/testutil"
)

const chartPage = `<html><head>
<script type="application/ld+json">
{"@type":"ItemList","itemListElement":[
 {"@type":"ListItem","item":{"@type":"Movie","name":"Barbie"}},
 {"@type":"ListItem","item":{"@type":"Movie","name":"Dune"}},
 {"@type":"ListItem","item":{"@type":"Movie","name":"Oppenheimer"}},
 {"@type":"ListItem","item":{"@type":"Movie","name":"Wicked"}}
]}
</script></head><body></body></html>`

func newCatalog(t *testing.T) *testutil.Catalog {
	t.Helper()
	c := testutil.NewCatalog(t)
	c.Requests = `[{"id":7,"status":2,"media":{"tmdbId":438631,"status":3}}]`
	c.Searches["Barbie"] = `[{"id":9001,"tmdbId":346698,"mediaType":"movie","title":"Barbie"}]`
	c.Searches["Dune"] = `[{"id":438631,"mediaType":"movie","title":"Dune"}]`
	c.Searches["Oppenheimer"] = `[{"id":872585,"mediaType":"movie","title":"Oppenheimer"}]`
	c.Movies[872585] = `{"id":872585,"title":"Oppenheimer","mediaInfo":{"status":5}}`
	return c
}

func setupEnv(t *testing.T, chartURL, catalogURL string) {
	t.Helper()
	t.Setenv("IMDB_URL", chartURL)
	t.Setenv("JELLYSEERR_URL", catalogURL)
	t.Setenv("API_KEY", "secret")
	t.Setenv("MOVIE_LIMIT", "10")
	t.Setenv("JELLYREQUEST_JELLYSEERR_RATE_LIMIT", "0")
	t.Setenv("JELLYREQUEST_JELLYSEERR_RETRY_BASE_MS", "0")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newChartServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chartPage)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOnceCommand(t *testing.T) {
	chart := newChartServer(t)
	catalog := newCatalog(t)
	setupEnv(t, chart.URL, catalog.URL())

	out, err := execute(t, "once")
	require.NoError(t, err)

	assert.Contains(t, out, "Barbie -> NEW_REQUEST")
	assert.Contains(t, out, "Dune -> SKIP_PROCESSING")
	assert.Contains(t, out, "Oppenheimer -> SKIP_AVAILABLE")
	assert.Contains(t, out, "Wicked -> NOT_FOUND")

	created := catalog.Created()
	require.Len(t, created, 1)
	assert.JSONEq(t, `{"mediaType":"movie","mediaId":9001,"tmdbId":346698,"is4k":true}`, created[0])
}

func TestOnceCommand_DuplicateRejected(t *testing.T) {
	chart := newChartServer(t)
	catalog := newCatalog(t)
	catalog.Reject[346698] = "Request for this media already exists."
	setupEnv(t, chart.URL, catalog.URL())
	t.Setenv("IS_4K_REQUEST", "false")

	out, err := execute(t, "once")
	require.NoError(t, err)

	assert.Contains(t, out, "Barbie -> SKIP_ALREADY_REQUESTED")
	assert.Empty(t, catalog.Created())
}

func TestOnceCommand_DryRun(t *testing.T) {
	chart := newChartServer(t)
	catalog := newCatalog(t)
	setupEnv(t, chart.URL, catalog.URL())

	out, err := execute(t, "once", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Barbie -> NEW_REQUEST (dry run)")
	assert.Empty(t, catalog.Created())
}

func TestOnceCommand_NoTitles(t *testing.T) {
	chart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer chart.Close()
	setupEnv(t, chart.URL, newCatalog(t).URL())

	_, err := execute(t, "once")
	assert.ErrorContains(t, err, "no titles")
}

func TestScrapeCommand(t *testing.T) {
	chart := newChartServer(t)
	setupEnv(t, chart.URL, "http://127.0.0.1:1")

	out, err := execute(t, "scrape", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Barbie")
	assert.Contains(t, out, "Dune")
	assert.NotContains(t, out, "Oppenheimer")
}

func TestConfigCommand_RedactsKey(t *testing.T) {
	setupEnv(t, "https://chart.example", "http://jellyseerr.local:5055/")
	t.Setenv("RUN_INTERVAL_DAYS", "3")

	out, err := execute(t, "config")
	require.NoError(t, err)

	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "url: http://jellyseerr.local:5055\n")
	assert.Contains(t, out, "interval_days: 3")
}

func TestConfigCommand_InvalidConfig(t *testing.T) {
	t.Setenv("MOVIE_LIMIT", "0")

	_, err := execute(t, "config")
	assert.ErrorContains(t, err, "chart.limit")
}

func TestRenderBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Requests.DryRun = true

	banner := renderBanner(cfg, time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC))

	assert.Contains(t, banner, "JELLY REQUEST")
	assert.Contains(t, banner, "2026-10-15 08:30:00 UTC")
	assert.Contains(t, banner, config.Version)
	assert.Contains(t, banner, "dry run")
	assert.Contains(t, banner, fmt.Sprintf("top %d", cfg.Chart.Limit))
}
