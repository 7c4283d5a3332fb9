// Package skiplist indexes existing catalog requests by external identifier so
// scraped titles can be checked for duplicates without a call per title.
package skiplist

import (
	"strconv"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
)

const (
	kindProvider = "provider"
	kindXref     = "xref"
)

// ProviderKey is the index key for a TMDB id.
func ProviderKey(tmdbID int) string {
	return kindProvider + ":" + strconv.Itoa(tmdbID)
}

// XrefKey is the index key for an IMDb id.
func XrefKey(imdbID string) string {
	return kindXref + ":" + imdbID
}

// Entry summarizes the request occupying a key.
type Entry struct {
	Reason    string     `json:"reason"`
	RequestID int        `json:"requestId"`
	Title     string     `json:"title,omitempty"`
	Status    Status     `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Is4K      bool       `json:"is4k"`
}

// Index maps identifier keys to the last request seen for them. It is built
// once per batch and read-only afterwards.
type Index struct {
	entries map[string]Entry
}

// Empty returns an index that blocks nothing.
func Empty() *Index {
	return &Index{entries: map[string]Entry{}}
}

// Build indexes every request that is not declined or failed. Later records
// overwrite earlier ones at the same key. The second return value counts the
// indexed records.
func Build(records []jellyseerr.MediaRequest) (*Index, int) {
	idx := &Index{entries: make(map[string]Entry, len(records)*2)}
	indexed := 0

	for _, rec := range records {
		status := StatusOf(rec)
		if status.Terminal() {
			continue
		}
		indexed++

		entry := Entry{
			Reason:    status.Reason(),
			RequestID: rec.ID,
			Status:    status,
			CreatedAt: rec.CreatedAt,
			Is4K:      rec.Is4K,
		}

		if rec.Media == nil {
			continue
		}
		entry.Title = rec.Media.Title

		if rec.Media.TmdbID != nil && *rec.Media.TmdbID != 0 {
			idx.entries[ProviderKey(*rec.Media.TmdbID)] = entry
		}
		if rec.Media.ImdbID != nil && *rec.Media.ImdbID != "" {
			idx.entries[XrefKey(*rec.Media.ImdbID)] = entry
		}
	}

	return idx, indexed
}

// Lookup returns the entry stored under key.
func (i *Index) Lookup(key string) (Entry, bool) {
	if i == nil {
		return Entry{}, false
	}
	e, ok := i.entries[key]
	return e, ok
}

// Provider looks up a TMDB id.
func (i *Index) Provider(tmdbID int) (Entry, bool) {
	return i.Lookup(ProviderKey(tmdbID))
}

// Xref looks up an IMDb id. Empty ids never match.
func (i *Index) Xref(imdbID string) (Entry, bool) {
	if imdbID == "" {
		return Entry{}, false
	}
	return i.Lookup(XrefKey(imdbID))
}

// Len returns the number of keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}
