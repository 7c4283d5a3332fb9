// Package chart scrapes a popularity chart page into a ranked list of titles.
package chart

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/jellyrequest/jellyrequest/internal/titles"
)

// DefaultItemSelector matches the title headings of the IMDb chart list.
const DefaultItemSelector = "ul.ipc-metadata-list li.ipc-metadata-list-summary-item a h3"

var ordinalPrefix = regexp.MustCompile(`^\d+\.\s+`)

// Strategy names the extraction path that produced a result.
type Strategy string

const (
	StrategyJSONLD Strategy = "json-ld"
	StrategyHTML   Strategy = "html"
	StrategyNone   Strategy = "none"
)

// Extractor turns chart page content into unique titles.
type Extractor struct {
	ItemSelector string
}

// Extract returns at most limit titles from page using the default selector.
func Extract(page []byte, limit int) []string {
	titles, _ := Extractor{}.Extract(page, limit)
	return titles
}

// Extract tries the embedded JSON-LD item list first and falls back to the
// rendered list headings. Titles are unique by normalized form and in
// document order.
func (e Extractor) Extract(page []byte, limit int) ([]string, Strategy) {
	if limit <= 0 || len(page) == 0 {
		return []string{}, StrategyNone
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return []string{}, StrategyNone
	}

	if names := jsonLDNames(doc); len(names) > 0 {
		if out := collect(names, limit); len(out) > 0 {
			return out, StrategyJSONLD
		}
	}

	selector := e.ItemSelector
	if selector == "" {
		selector = DefaultItemSelector
	}

	var texts []string
	doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		text := strings.TrimSpace(s.Text())
		texts = append(texts, ordinalPrefix.ReplaceAllString(text, ""))
		return true
	})

	if out := collect(texts, limit); len(out) > 0 {
		return out, StrategyHTML
	}
	return []string{}, StrategyNone
}

// collect keeps raw titles whose normalized form is new, up to limit.
func collect(raw []string, limit int) []string {
	out := make([]string, 0, min(limit, len(raw)))
	seen := make(map[string]struct{}, len(raw))
	for _, title := range raw {
		title = strings.TrimSpace(title)
		norm := titles.Normalize(title)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, title)
		if len(out) >= limit {
			break
		}
	}
	return out
}

type itemList struct {
	ItemListElement []listElement `json:"itemListElement"`
}

type listElement struct {
	Name string `json:"name"`
	Item *struct {
		Name string `json:"name"`
	} `json:"item"`
}

// jsonLDNames returns item names from the first ld+json block that carries
// an item list. Blocks that fail to parse are ignored.
func jsonLDNames(doc *goquery.Document) []string {
	var names []string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var list itemList
		if err := json.Unmarshal([]byte(s.Text()), &list); err != nil {
			return true
		}
		if list.ItemListElement == nil {
			return true
		}
		for _, el := range list.ItemListElement {
			name := el.Name
			if el.Item != nil && el.Item.Name != "" {
				name = el.Item.Name
			}
			if name != "" {
				names = append(names, name)
			}
		}
		return false
	})
	return names
}
