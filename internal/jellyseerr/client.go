// Package jellyseerr is a client for the Jellyseerr/Overseerr request API.
package jellyseerr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/retry"
)

var (
	ErrAPIKeyMissing = errors.New("jellyseerr API key is not configured")
	ErrAPIError      = errors.New("jellyseerr API error")
	ErrRateLimited   = errors.New("jellyseerr API rate limited")
	ErrNotFound      = errors.New("media not found")
)

const maxBodySnippet = 500

// StatusError is returned for any non-success HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, snippet(e.Body))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrAPIError
	}
}

// IsDuplicateRequest reports whether err is the catalog refusing a request
// because one already exists for the media.
func IsDuplicateRequest(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return strings.Contains(se.Body, DuplicateRequestMessage)
	}
	return strings.Contains(err.Error(), DuplicateRequestMessage)
}

type response struct {
	status int
	body   []byte
}

// Client is a Jellyseerr API client.
type Client struct {
	httpClient *http.Client
	config     config.JellyseerrConfig
	retry      retry.Config
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     zerolog.Logger
}

// NewClient creates a new Jellyseerr client.
func NewClient(cfg config.JellyseerrConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryBaseMs >= 0 {
		retryCfg.InitialDelay = time.Duration(cfg.RetryBaseMs) * time.Millisecond
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		retry:      retryCfg,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger.With().Str("component", "jellyseerr").Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "jellyseerr-api",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors (duplicate request, bad id) say nothing about catalog health.
		IsSuccessful: func(err error) bool {
			return err == nil || !retry.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return c
}

// SetRetryConfig overrides the retry policy.
func (c *Client) SetRetryConfig(cfg retry.Config) {
	c.retry = cfg
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Status fetches the server status and verifies connectivity and credentials.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	var result StatusResponse
	if err := c.getJSON(ctx, "status", "/api/v1/status", "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a free-text catalog search.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	rawQuery := "query=" + encodeQuery(query) + "&page=1"

	var result SearchResponse
	if err := c.getJSON(ctx, "search", "/api/v1/search", rawQuery, &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(result.Results)).
		Msg("search completed")

	return &result, nil
}

// ListRequests fetches one page of existing requests, newest first.
func (c *Client) ListRequests(ctx context.Context, take int) ([]MediaRequest, error) {
	if take <= 0 {
		take = 1000
	}
	params := url.Values{}
	params.Set("take", strconv.Itoa(take))
	params.Set("skip", "0")
	params.Set("filter", "all")
	params.Set("sort", "added")

	var result RequestListResponse
	if err := c.getJSON(ctx, "list requests", "/api/v1/request", params.Encode(), &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("returned", len(result.Results)).
		Int("total", result.PageInfo.Results).
		Msg("fetched existing requests")

	return result.Results, nil
}

// GetMovie fetches a single movie by TMDB id, including its media info.
func (c *Client) GetMovie(ctx context.Context, tmdbID int) (*MovieDetails, error) {
	var result MovieDetails
	path := fmt.Sprintf("/api/v1/movie/%d", tmdbID)
	if err := c.getJSON(ctx, "get movie", path, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateRequest submits a new media request. Any status other than 201 is
// returned as a *StatusError carrying the response body.
func (c *Client) CreateRequest(ctx context.Context, payload CreateRequestPayload) error {
	if payload.MediaType == "" {
		payload.MediaType = MediaTypeMovie
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.do(ctx, "create request", http.MethodPost, "/api/v1/request", "", body)
	if err != nil {
		return err
	}
	if resp.status != http.StatusCreated {
		return &StatusError{Op: "create request", StatusCode: resp.status, Body: string(resp.body)}
	}

	c.logger.Debug().
		Int("tmdbId", payload.TmdbID).
		Int("mediaId", payload.MediaID).
		Bool("is4k", payload.Is4K).
		Msg("request created")

	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path, rawQuery string, result any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, rawQuery, nil)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return &StatusError{Op: op, StatusCode: resp.status, Body: string(resp.body)}
	}
	if err := json.Unmarshal(resp.body, result); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// do performs a request under the rate limiter, circuit breaker and retry
// policy. 2xx-4xx responses other than 429 are returned to the caller as-is.
func (c *Client) do(ctx context.Context, op, method, path, rawQuery string, body []byte) (*response, error) {
	reqURL := c.config.URL + path
	if rawQuery != "" {
		reqURL += "?" + rawQuery
	}

	var out *response
	err := retry.Do(ctx, op, c.retry, c.logger, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.breaker.Execute(func() (*response, error) {
			return c.attempt(ctx, op, method, reqURL, body)
		})
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, op, method, reqURL string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", op).Str("url", reqURL).Msg("HTTP request failed")
		return nil, fmt.Errorf("%s: HTTP request failed: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(data)).
		Str("body", snippet(string(data))).
		Msg("HTTP response")

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return &response{status: resp.StatusCode, body: data}, nil
}

// encodeQuery percent-encodes free text with %20 for spaces; the search
// endpoint rejects '+'.
func encodeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}

func snippet(s string) string {
	if len(s) <= maxBodySnippet {
		return s
	}
	return s[:maxBodySnippet] + "..."
}
