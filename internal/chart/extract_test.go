package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/titles"
)

func jsonLDPage(items string) []byte {
	return []byte(`<html><head>
<script type="application/ld+json">{"@type":"ItemList","itemListElement":` + items + `}</script>
</head><body></body></html>`)
}

func htmlPage(headings ...string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="ipc-metadata-list">`)
	for _, h := range headings {
		fmt.Fprintf(&b, `<li class="ipc-metadata-list-summary-item"><a href="#"><h3>%s</h3></a></li>`, h)
	}
	b.WriteString(`</ul></body></html>`)
	return []byte(b.String())
}

func TestExtract_JSONLDDedupesAndLimits(t *testing.T) {
	page := jsonLDPage(`[{"name":"Dune"},{"name":"dune!"},{"name":"Oppenheimer"},{"name":"Barbie"}]`)

	assert.Equal(t, []string{"Dune", "Oppenheimer"}, Extract(page, 2))
}

func TestExtract_JSONLDNestedItem(t *testing.T) {
	page := jsonLDPage(`[
		{"@type":"ListItem","item":{"@type":"Movie","name":"Fast &amp; Furious"}},
		{"@type":"ListItem","item":{"@type":"Movie","name":"Fast & Furious"}},
		{"@type":"ListItem","item":{"@type":"Movie","name":"Wicked"}}
	]`)

	got, strategy := Extractor{}.Extract(page, 10)
	assert.Equal(t, StrategyJSONLD, strategy)
	assert.Equal(t, []string{"Fast &amp; Furious", "Wicked"}, got)
}

func TestExtract_SkipsUnrelatedJSONLDBlocks(t *testing.T) {
	page := []byte(`<html><head>
<script type="application/ld+json">{"@type":"WebSite","name":"IMDb"}</script>
<script type="application/ld+json">{"itemListElement":[{"item":{"name":"Sinners"}}]}</script>
</head></html>`)

	assert.Equal(t, []string{"Sinners"}, Extract(page, 5))
}

func TestExtract_MalformedJSONLDFallsBackToHTML(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">{"itemListElement": [</script></head>` +
		string(htmlPage("1. Anora", "2. Conclave"))[len("<html>"):])

	got, strategy := Extractor{}.Extract(page, 5)
	assert.Equal(t, StrategyHTML, strategy)
	assert.Equal(t, []string{"Anora", "Conclave"}, got)
}

func TestExtract_EmptyJSONLDFallsBackToHTML(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">{"itemListElement":[]}</script></head><body>` +
		`<ul class="ipc-metadata-list"><li class="ipc-metadata-list-summary-item"><a><h3>3. Nosferatu</h3></a></li></ul></body></html>`)

	assert.Equal(t, []string{"Nosferatu"}, Extract(page, 5))
}

func TestExtract_HTMLSlicesBeforeDedupe(t *testing.T) {
	page := htmlPage("1. Dune", "2. Dune", "3. Oppenheimer", "4. Barbie")

	// Only the first two headings are considered, and they collapse to one title.
	assert.Equal(t, []string{"Dune"}, Extract(page, 2))
}

func TestExtract_HTMLKeepsTitlesWithoutOrdinal(t *testing.T) {
	page := htmlPage("Mission: Impossible. Final Reckoning", "10. Heretic")

	assert.Equal(t, []string{"Mission: Impossible. Final Reckoning", "Heretic"}, Extract(page, 5))
}

func TestExtract_Nothing(t *testing.T) {
	assert.Empty(t, Extract([]byte(`<html><body><p>nothing here</p></body></html>`), 10))
	assert.Empty(t, Extract(nil, 10))
	assert.Empty(t, Extract(htmlPage("Dune"), 0))
}

func TestExtract_Properties(t *testing.T) {
	var items []string
	for i := 0; i < 40; i++ {
		items = append(items, fmt.Sprintf(`{"name":"Movie %d"}`, i%15))
	}
	page := jsonLDPage("[" + strings.Join(items, ",") + "]")

	for _, limit := range []int{1, 5, 15, 30} {
		got := Extract(page, limit)
		assert.LessOrEqual(t, len(got), limit)

		seen := map[string]bool{}
		for _, title := range got {
			norm := titles.Normalize(title)
			assert.False(t, seen[norm], "duplicate %q", title)
			seen[norm] = true
		}
	}
}

type stubFetcher struct {
	status int
	body   []byte
	err    error
	url    string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (int, []byte, error) {
	f.url = url
	return f.status, f.body, f.err
}

func TestSource_Titles(t *testing.T) {
	cfg := config.ChartConfig{URL: "https://charts.example/moviemeter", Limit: 3}

	t.Run("ranks candidates", func(t *testing.T) {
		fetcher := &stubFetcher{status: 200, body: jsonLDPage(`[{"name":"Dune"},{"name":"The Matrix: Reloaded!"}]`)}
		got := NewSource(cfg, fetcher, zerolog.Nop()).Titles(context.Background())

		require.Len(t, got, 2)
		assert.Equal(t, cfg.URL, fetcher.url)
		assert.Equal(t, Candidate{Raw: "Dune", Rank: 1, Normalized: "dune"}, got[0])
		assert.Equal(t, Candidate{Raw: "The Matrix: Reloaded!", Rank: 2, Normalized: "the matrix reloaded"}, got[1])
	})

	t.Run("non-200 is empty", func(t *testing.T) {
		fetcher := &stubFetcher{status: 503, body: jsonLDPage(`[{"name":"Dune"}]`)}
		assert.Empty(t, NewSource(cfg, fetcher, zerolog.Nop()).Titles(context.Background()))
	})

	t.Run("transport error is empty", func(t *testing.T) {
		fetcher := &stubFetcher{err: errors.New("dial tcp: connection refused")}
		assert.Empty(t, NewSource(cfg, fetcher, zerolog.Nop()).Titles(context.Background()))
	})
}
