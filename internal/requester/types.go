// Package requester drives a chart sync batch: it matches every scraped title
// against the catalog, skips duplicates and requests the rest.
package requester

import (
	"errors"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/skiplist"
)

var (
	ErrNoTitles     = errors.New("no titles scraped from chart")
	ErrBatchRunning = errors.New("a batch is already running")
)

// Outcome classifies what happened to one title.
type Outcome string

const (
	OutcomeNewRequest       Outcome = "NEW_REQUEST"
	OutcomeAlreadyRequested Outcome = "SKIP_ALREADY_REQUESTED"
	OutcomeAvailable        Outcome = "SKIP_AVAILABLE"
	OutcomeProcessing       Outcome = "SKIP_PROCESSING"
	OutcomePending          Outcome = "SKIP_PENDING"
	OutcomeDeclined         Outcome = "SKIP_DECLINED"
	OutcomeNotFound         Outcome = "NOT_FOUND"
	OutcomeError            Outcome = "ERROR"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{
	OutcomeNewRequest,
	OutcomeAlreadyRequested,
	OutcomeAvailable,
	OutcomeProcessing,
	OutcomePending,
	OutcomeDeclined,
	OutcomeNotFound,
	OutcomeError,
}

// IsSkip reports whether the outcome is one of the duplicate-prevention buckets.
func (o Outcome) IsSkip() bool {
	switch o {
	case OutcomeAlreadyRequested, OutcomeAvailable, OutcomeProcessing, OutcomePending, OutcomeDeclined:
		return true
	}
	return false
}

// skipOutcome maps a lifecycle status onto its skip bucket. Approved and
// unrecognized statuses land in the generic already-requested bucket.
func skipOutcome(status skiplist.Status) Outcome {
	switch status {
	case skiplist.StatusAvailable:
		return OutcomeAvailable
	case skiplist.StatusProcessing:
		return OutcomeProcessing
	case skiplist.StatusPending:
		return OutcomePending
	case skiplist.StatusDeclined:
		return OutcomeDeclined
	default:
		return OutcomeAlreadyRequested
	}
}

// TitleResult is the decision recorded for one scraped title.
type TitleResult struct {
	Rank     int           `json:"rank"`
	Title    string        `json:"title"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason"`
	Matched  string        `json:"matched,omitempty"`
	TmdbID   int           `json:"tmdbId,omitempty"`
	ImdbID   string        `json:"imdbId,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Report summarizes a batch.
type Report struct {
	RunID                   string          `json:"runId"`
	StartedAt               time.Time       `json:"startedAt"`
	FinishedAt              time.Time       `json:"finishedAt"`
	Total                   int             `json:"total"`
	IndexedRequests         int             `json:"indexedRequests"`
	IndexAvailable          bool            `json:"indexAvailable"`
	DryRun                  bool            `json:"dryRun"`
	Counts                  map[Outcome]int `json:"counts"`
	NewRequestRate          float64         `json:"newRequestRate"`
	DuplicatePreventionRate float64         `json:"duplicatePreventionRate"`
	Results                 []TitleResult   `json:"results"`
}

func newReport(runID string, started time.Time) *Report {
	counts := make(map[Outcome]int, len(Outcomes))
	for _, o := range Outcomes {
		counts[o] = 0
	}
	return &Report{
		RunID:     runID,
		StartedAt: started,
		Counts:    counts,
		Results:   []TitleResult{},
	}
}

func (r *Report) add(res TitleResult) {
	r.Results = append(r.Results, res)
	r.Counts[res.Outcome]++
	r.Total++
}

// Skipped returns the number of titles in any skip bucket.
func (r *Report) Skipped() int {
	n := 0
	for o, c := range r.Counts {
		if o.IsSkip() {
			n += c
		}
	}
	return n
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	r.NewRequestRate = percent(r.Counts[OutcomeNewRequest], r.Total)
	r.DuplicatePreventionRate = percent(r.Skipped(), r.Total)
}

// Duration is the wall time of the batch.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountsByName returns counts keyed by outcome name.
func (r *Report) CountsByName() map[string]int {
	out := make(map[string]int, len(r.Counts))
	for o, c := range r.Counts {
		out[string(o)] = c
	}
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
