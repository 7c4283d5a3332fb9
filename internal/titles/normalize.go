// Package titles canonicalizes scraped and catalog movie titles for comparison.
package titles

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize decodes HTML entities, lowercases, drops every rune that is not a
// letter, digit or whitespace, and collapses whitespace to single spaces.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lowered := cases.Lower(language.Und).String(html.UnescapeString(raw))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSpace := false
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}

	return b.String()
}

// Contains reports whether the normalized scraped title occurs inside the
// normalized candidate title. An empty scraped title never matches.
func Contains(candidate, scraped string) bool {
	needle := Normalize(scraped)
	if needle == "" {
		return false
	}
	return strings.Contains(Normalize(candidate), needle)
}
