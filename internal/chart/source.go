package chart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/titles"
)

const maxPageBytes = 10 << 20

// Candidate is one scraped title with its 1-based chart rank.
type Candidate struct {
	Raw        string `json:"title"`
	Rank       int    `json:"rank"`
	Normalized string `json:"normalized"`
}

// Fetcher retrieves a page. A non-200 status is reported, not turned into an
// error, so callers can treat it as empty content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (status int, body []byte, err error)
}

// HTTPFetcher fetches pages with a browser-like User-Agent.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher with the configured timeout and User-Agent.
func NewHTTPFetcher(cfg config.ChartConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
	}
}

// Fetch performs a GET and returns the status and body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read page: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Source scrapes the configured chart into ranked candidates.
type Source struct {
	fetcher   Fetcher
	extractor Extractor
	url       string
	limit     int
	logger    zerolog.Logger
}

// NewSource creates a chart source.
func NewSource(cfg config.ChartConfig, fetcher Fetcher, logger zerolog.Logger) *Source {
	return &Source{
		fetcher:   fetcher,
		extractor: Extractor{ItemSelector: cfg.ItemSelector},
		url:       cfg.URL,
		limit:     cfg.Limit,
		logger:    logger.With().Str("component", "chart").Logger(),
	}
}

// Titles fetches the chart and returns up to limit unique candidates. Fetch
// failures and non-200 responses yield an empty slice.
func (s *Source) Titles(ctx context.Context) []Candidate {
	status, body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		s.logger.Error().Err(err).Str("url", s.url).Msg("failed to fetch chart")
		return []Candidate{}
	}

	s.logger.Debug().
		Int("status", status).
		Str("snippet", string(body[:min(len(body), 500)])).
		Msg("chart response")

	if status != http.StatusOK {
		s.logger.Error().Int("status", status).Str("url", s.url).Msg("failed to fetch chart")
		return []Candidate{}
	}

	raw, strategy := s.extractor.Extract(body, s.limit)
	if len(raw) == 0 {
		s.logger.Error().Str("url", s.url).Msg("no titles found on chart page")
		return []Candidate{}
	}

	out := make([]Candidate, len(raw))
	for i, title := range raw {
		out[i] = Candidate{Raw: title, Rank: i + 1, Normalized: titles.Normalize(title)}
	}

	s.logger.Info().
		Str("strategy", string(strategy)).
		Int("count", len(out)).
		Strs("titles", raw).
		Msg("scraped chart")

	return out
}
