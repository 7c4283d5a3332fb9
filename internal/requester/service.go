package requester

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jellyrequest/jellyrequest/internal/chart"
	"github.com/jellyrequest/jellyrequest/internal/decisioning"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/matching"
	"github.com/jellyrequest/jellyrequest/internal/metrics"
	"github.com/jellyrequest/jellyrequest/internal/skiplist"
)

// Catalog is the subset of the Jellyseerr API a batch needs.
type Catalog interface {
	Search(ctx context.Context, query string) (*jellyseerr.SearchResponse, error)
	ListRequests(ctx context.Context, take int) ([]jellyseerr.MediaRequest, error)
	GetMovie(ctx context.Context, tmdbID int) (*jellyseerr.MovieDetails, error)
	CreateRequest(ctx context.Context, payload jellyseerr.CreateRequestPayload) error
}

// TitleSource supplies the ranked titles for a batch.
type TitleSource interface {
	Titles(ctx context.Context) []chart.Candidate
}

// Options tune how requests are submitted.
type Options struct {
	Is4K            bool
	DryRun          bool
	RequestPageSize int
}

// Service runs chart sync batches.
type Service struct {
	catalog Catalog
	source  TitleSource
	opts    Options
	logger  zerolog.Logger
	out     io.Writer
	now     func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	last    *Report
}

// NewService creates a batch service.
func NewService(catalog Catalog, source TitleSource, opts Options, logger zerolog.Logger) *Service {
	if opts.RequestPageSize <= 0 {
		opts.RequestPageSize = 1000
	}
	return &Service{
		catalog: catalog,
		source:  source,
		opts:    opts,
		logger:  logger.With().Str("component", "requester").Logger(),
		out:     os.Stdout,
		now:     time.Now,
	}
}

// SetOutput sets where per-title console lines and the final report are
// written. A nil writer silences console output.
func (s *Service) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.out = w
}

// LastReport returns the report of the most recent completed batch, or nil.
func (s *Service) LastReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Running reports whether a batch is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Run scrapes the chart and processes the titles. It returns ErrNoTitles when
// the chart yields nothing and ErrBatchRunning when another batch holds the
// service.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBatchRunning
	}
	defer s.running.Store(false)

	start := s.now()
	candidates := s.source.Titles(ctx)
	if len(candidates) == 0 {
		s.logger.Error().Msg("no titles scraped from chart, skipping batch")
		metrics.RecordBatch(metrics.ResultNoTitles, nil, s.now().Sub(start), s.now())
		return nil, ErrNoTitles
	}

	report := s.RunBatch(ctx, candidates)

	s.logSummary(report)
	fmt.Fprintln(s.out, RenderReport(report))

	metrics.RecordBatch(metrics.ResultSuccess, report.CountsByName(), report.Duration(), report.FinishedAt)
	metrics.SkipIndexSize.Set(float64(report.IndexedRequests))

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	return report, nil
}

// RunBatch processes candidates sequentially and returns the batch report.
// Every candidate gets exactly one result, whatever happens to it.
func (s *Service) RunBatch(ctx context.Context, candidates []chart.Candidate) *Report {
	report := newReport(uuid.New().String(), s.now())
	report.DryRun = s.opts.DryRun

	index := s.refreshIndex(ctx, report)
	engine := decisioning.NewEngine(index, s.catalog, s.logger)

	s.logger.Info().
		Str("runId", report.RunID).
		Int("titles", len(candidates)).
		Int("indexKeys", index.Len()).
		Bool("dryRun", s.opts.DryRun).
		Msg("starting batch")

	for i, c := range candidates {
		titleStart := s.now()
		res := s.processTitle(ctx, engine, c)
		res.Duration = s.now().Sub(titleStart)
		report.add(res)
		s.logResult(i+1, len(candidates), res)
	}

	report.finish(s.now())
	return report
}

func (s *Service) refreshIndex(ctx context.Context, report *Report) *skiplist.Index {
	records, err := s.catalog.ListRequests(ctx, s.opts.RequestPageSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch existing requests, continuing without skip index")
		return skiplist.Empty()
	}

	index, indexed := skiplist.Build(records)
	report.IndexAvailable = true
	report.IndexedRequests = indexed

	s.logger.Debug().
		Int("records", len(records)).
		Int("indexed", indexed).
		Int("ignored", len(records)-indexed).
		Int("keys", index.Len()).
		Msg("built skip index")

	return index
}

func (s *Service) processTitle(ctx context.Context, engine *decisioning.Engine, c chart.Candidate) (res TitleResult) {
	res = TitleResult{Rank: c.Rank, Title: c.Raw}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("title", c.Raw).Msg("recovered while processing title")
			res.Outcome = OutcomeError
			res.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	resp, err := s.catalog.Search(ctx, c.Raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("title", c.Raw).Msg("search failed")
		res.Outcome = OutcomeNotFound
		res.Reason = "search failed: " + err.Error()
		return res
	}
	if resp == nil || len(resp.Results) == 0 {
		res.Outcome = OutcomeNotFound
		res.Reason = "no search results"
		return res
	}

	match := matching.Resolve(c.Raw, resp)
	if !match.Found {
		res.Outcome = OutcomeNotFound
		res.Reason = "no matching movie in search results"
		return res
	}
	res.Matched = match.Title
	res.TmdbID = match.TmdbID
	res.ImdbID = match.ImdbID

	decision := engine.Decide(ctx, match.TmdbID, match.ImdbID)
	if decision.Skip {
		res.Outcome = skipOutcome(decision.Status)
		res.Reason = decision.Reason
		return res
	}

	if s.opts.DryRun {
		res.Outcome = OutcomeNewRequest
		res.Reason = "dry run"
		return res
	}

	err = s.catalog.CreateRequest(ctx, jellyseerr.CreateRequestPayload{
		MediaType: jellyseerr.MediaTypeMovie,
		MediaID:   match.MediaID,
		TmdbID:    match.TmdbID,
		Is4K:      s.opts.Is4K,
	})
	switch {
	case err == nil:
		res.Outcome = OutcomeNewRequest
		res.Reason = "Requested"
	case jellyseerr.IsDuplicateRequest(err):
		res.Outcome = OutcomeAlreadyRequested
		res.Reason = "Already requested (rejected as duplicate)"
	default:
		res.Outcome = OutcomeError
		res.Reason = err.Error()
	}
	return res
}

func (s *Service) logResult(pos, total int, res TitleResult) {
	var event *zerolog.Event
	switch {
	case res.Outcome == OutcomeError:
		event = s.logger.Error()
	case res.Outcome == OutcomeNotFound:
		event = s.logger.Warn()
	default:
		event = s.logger.Info()
	}
	event.
		Int("rank", res.Rank).
		Str("title", res.Title).
		Str("outcome", string(res.Outcome)).
		Str("reason", res.Reason).
		Int("tmdbId", res.TmdbID).
		Dur("elapsed", res.Duration).
		Msg("title processed")

	fmt.Fprintf(s.out, "[%d/%d] %s -> %s (%s)\n", pos, total, res.Title, res.Outcome, res.Reason)
}

func (s *Service) logSummary(r *Report) {
	s.logger.Info().
		Str("runId", r.RunID).
		Int("total", r.Total).
		Int("new", r.Counts[OutcomeNewRequest]).
		Int("skipped", r.Skipped()).
		Int("notFound", r.Counts[OutcomeNotFound]).
		Int("errors", r.Counts[OutcomeError]).
		Float64("newRequestRate", r.NewRequestRate).
		Float64("duplicatePreventionRate", r.DuplicatePreventionRate).
		Dur("duration", r.Duration()).
		Msg("batch complete")
}
