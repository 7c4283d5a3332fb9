package titles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t\n ", ""},
		{"punctuation", "The Matrix: Reloaded!", "the matrix reloaded"},
		{"html entity", "Fast &amp; Furious", "fast furious"},
		{"numeric entity", "Amélie &#38; Co", "amélie co"},
		{"apostrophe entity", "Ocean&#39;s Eleven", "oceans eleven"},
		{"collapse spaces", "  Mission:   Impossible  -  Dead Reckoning ", "mission impossible dead reckoning"},
		{"digits kept", "2001: A Space Odyssey", "2001 a space odyssey"},
		{"underscore dropped", "foo_bar", "foobar"},
		{"hyphen joins", "Spider-Man", "spiderman"},
		{"unicode lower", "ÉLITE", "élite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"The Matrix: Reloaded!",
		"Fast &amp;amp; Furious",
		"  Ocean&#39;s   Eleven ",
		"WALL·E",
		"Léon: The Professional",
		"Dune: Part Two",
		"İstanbul",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Dune: Part Two", "Dune"))
	assert.True(t, Contains("Fast &amp; Furious 6", "fast furious"))
	assert.False(t, Contains("Dune", "Dune: Part Two"))
	assert.False(t, Contains("Dune", ""))
	assert.False(t, Contains("Dune", "!!!"))
}
