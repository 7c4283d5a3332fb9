// Package matching picks the catalog search result that corresponds to a
// scraped title.
package matching

import (
	"html"
	"strings"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/titles"
)

// Match holds the identifiers of the chosen search result. Found is false when
// nothing qualified; the ids are then zero.
type Match struct {
	Found   bool   `json:"found"`
	Title   string `json:"title,omitempty"`
	ImdbID  string `json:"imdbId,omitempty"`
	MediaID int    `json:"mediaId,omitempty"`
	TmdbID  int    `json:"tmdbId,omitempty"`
}

// Resolve returns the first movie result, in the provider's order, whose
// normalized title contains the normalized scraped title.
func Resolve(scraped string, resp *jellyseerr.SearchResponse) Match {
	if resp == nil || len(resp.Results) == 0 {
		return Match{}
	}

	needle := titles.Normalize(scraped)
	if needle == "" {
		return Match{}
	}

	for _, result := range resp.Results {
		if result.MediaType != jellyseerr.MediaTypeMovie {
			continue
		}

		display := html.UnescapeString(result.DisplayTitle())
		if result.ID == 0 || display == "" {
			continue
		}

		if !strings.Contains(titles.Normalize(display), needle) {
			continue
		}

		return Match{
			Found:   true,
			Title:   display,
			ImdbID:  result.CrossRefID(),
			MediaID: result.ID,
			TmdbID:  result.ProviderID(),
		}
	}

	return Match{}
}
