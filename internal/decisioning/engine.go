// Package decisioning decides whether a resolved movie should be requested or
// skipped as a duplicate.
package decisioning

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/skiplist"
)

// Source identifies which check produced a skip.
type Source string

const (
	SourceProviderIndex Source = "index:provider"
	SourceXrefIndex     Source = "index:xref"
	SourceAvailability  Source = "availability"
)

// AvailabilityChecker looks up a single movie in the catalog.
type AvailabilityChecker interface {
	GetMovie(ctx context.Context, tmdbID int) (*jellyseerr.MovieDetails, error)
}

// Details carries context for a skip decision.
type Details struct {
	Source    Source     `json:"source,omitempty"`
	RequestID int        `json:"requestId,omitempty"`
	Title     string     `json:"title,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	AddedAt   *time.Time `json:"addedAt,omitempty"`
}

// Decision is the outcome of Decide. Status is set only when Skip is true.
type Decision struct {
	Skip    bool            `json:"skip"`
	Reason  string          `json:"reason,omitempty"`
	Status  skiplist.Status `json:"status,omitempty"`
	Details Details         `json:"details"`
}

// Engine checks the skip index first and the live catalog second.
type Engine struct {
	index   *skiplist.Index
	checker AvailabilityChecker
	logger  zerolog.Logger
}

// NewEngine creates a decision engine over a batch's index.
func NewEngine(index *skiplist.Index, checker AvailabilityChecker, logger zerolog.Logger) *Engine {
	if index == nil {
		index = skiplist.Empty()
	}
	return &Engine{
		index:   index,
		checker: checker,
		logger:  logger.With().Str("component", "decisioning").Logger(),
	}
}

// Decide returns a skip decision for the movie, or a non-skip when it is
// eligible for a new request. Index hits short-circuit the live lookup. A
// failed live lookup counts as not available.
func (e *Engine) Decide(ctx context.Context, tmdbID int, imdbID string) Decision {
	if entry, ok := e.index.Provider(tmdbID); ok {
		return fromEntry(entry, SourceProviderIndex)
	}
	if entry, ok := e.index.Xref(imdbID); ok {
		return fromEntry(entry, SourceXrefIndex)
	}

	if e.checker == nil {
		return Decision{}
	}

	movie, err := e.checker.GetMovie(ctx, tmdbID)
	if err != nil {
		e.logger.Warn().Err(err).Int("tmdbId", tmdbID).Msg("availability check failed, treating as not available")
		return Decision{}
	}
	if movie == nil || movie.MediaInfo == nil || movie.MediaInfo.Status.Code != jellyseerr.MediaAvailable {
		return Decision{}
	}

	addedAt := movie.MediaInfo.MediaAddedAt
	if addedAt == nil {
		addedAt = movie.MediaInfo.CreatedAt
	}

	return Decision{
		Skip:   true,
		Reason: skiplist.StatusAvailable.Reason(),
		Status: skiplist.StatusAvailable,
		Details: Details{
			Source:  SourceAvailability,
			Title:   movie.Title,
			AddedAt: addedAt,
		},
	}
}

func fromEntry(entry skiplist.Entry, source Source) Decision {
	return Decision{
		Skip:   true,
		Reason: entry.Reason,
		Status: entry.Status,
		Details: Details{
			Source:    source,
			RequestID: entry.RequestID,
			Title:     entry.Title,
			CreatedAt: entry.CreatedAt,
		},
	}
}
