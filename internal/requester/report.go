package requester

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxReasonWidth = 60

// RenderReport formats a batch report as a per-title table followed by a
// summary table.
func RenderReport(r *Report) string {
	if r == nil {
		return ""
	}

	rows := make([]table.Row, 0, len(r.Results))
	for _, res := range r.Results {
		tmdb := ""
		if res.TmdbID != 0 {
			tmdb = strconv.Itoa(res.TmdbID)
		}
		rows = append(rows, table.Row{res.Rank, res.Title, string(res.Outcome), tmdb, truncate(res.Reason, maxReasonWidth)})
	}

	titles := newTable(table.Row{"#", "Title", "Outcome", "TMDB", "Reason"}, rows, 1, 4)

	summaryRows := []table.Row{
		{"Run", r.RunID},
		{"Duration", r.Duration().Round(time.Millisecond).String()},
		{"Total titles", r.Total},
		{"Indexed requests", indexLabel(r)},
	}
	for _, o := range Outcomes {
		summaryRows = append(summaryRows, table.Row{string(o), r.Counts[o]})
	}
	summaryRows = append(summaryRows,
		table.Row{"New request rate", fmt.Sprintf("%.1f%%", r.NewRequestRate)},
		table.Row{"Duplicate prevention rate", fmt.Sprintf("%.1f%%", r.DuplicatePreventionRate)},
	)
	if r.DryRun {
		summaryRows = append(summaryRows, table.Row{"Mode", "dry run"})
	}

	summary := newTable(table.Row{"Summary", ""}, summaryRows, 2)

	return titles + "\n" + summary
}

func newTable(header table.Row, rows []table.Row, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	tw.AppendRows(rows)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func indexLabel(r *Report) string {
	if !r.IndexAvailable {
		return "unavailable"
	}
	return strconv.Itoa(r.IndexedRequests)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
