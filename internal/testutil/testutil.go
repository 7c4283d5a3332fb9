// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// NewLogger returns a debug-level logger that writes through t.Log.
func NewLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// Catalog is a fake Jellyseerr server. Responses are raw JSON so tests can
// exercise the real decoders. Set fields before the first request.
type Catalog struct {
	APIKey   string
	Version  string
	Requests string            // JSON array returned by GET /api/v1/request
	Searches map[string]string // query -> JSON array of search results
	Movies   map[int]string    // tmdb id -> movie JSON
	Reject   map[int]string    // tmdb id -> body returned with 409 on create

	server  *httptest.Server
	mu      sync.Mutex
	created []string
}

// NewCatalog starts a fake catalog that is closed when the test ends.
func NewCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := &Catalog{
		APIKey:   "secret",
		Version:  "2.1.0",
		Requests: "[]",
		Searches: map[string]string{},
		Movies:   map[int]string{},
		Reject:   map[int]string{},
	}
	c.server = httptest.NewServer(c)
	t.Cleanup(c.server.Close)
	return c
}

// URL returns the server's base URL.
func (c *Catalog) URL() string {
	return c.server.URL
}

// Created returns the bodies of accepted create-request calls.
func (c *Catalog) Created() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.created...)
}

func (c *Catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != c.APIKey {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case path == "/api/v1/status":
		fmt.Fprintf(w, `{"version":%q}`, c.Version)
	case path == "/api/v1/request" && r.Method == http.MethodGet:
		fmt.Fprintf(w, `{"pageInfo":{"page":1},"results":%s}`, c.Requests)
	case path == "/api/v1/request" && r.Method == http.MethodPost:
		c.create(w, r)
	case path == "/api/v1/search":
		results, ok := c.Searches[r.URL.Query().Get("query")]
		if !ok {
			results = "[]"
		}
		fmt.Fprintf(w, `{"page":1,"results":%s}`, results)
	case strings.HasPrefix(path, "/api/v1/movie/"):
		id, err := strconv.Atoi(strings.TrimPrefix(path, "/api/v1/movie/"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		movie, ok := c.Movies[id]
		if !ok {
			movie = fmt.Sprintf(`{"id":%d,"title":"unknown"}`, id)
		}
		io.WriteString(w, movie)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (c *Catalog) create(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var payload struct {
		TmdbID int `json:"tmdbId"`
	}
	_ = json.Unmarshal(body, &payload)

	if msg, ok := c.Reject[payload.TmdbID]; ok {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, `{"message":%q}`, msg)
		return
	}

	c.mu.Lock()
	c.created = append(c.created, string(body))
	c.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, `{"id":1}`)
}
