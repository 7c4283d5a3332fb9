package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew_WritesFileAndRecent(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	log := New(Config{Level: "info", Format: "json", Path: dir, RecentSize: 2, Out: &buf})
	defer log.Close()

	log.WithComponent("requester").Info().Str("title", "Dune").Msg("first")
	log.Debug().Msg("filtered")
	log.Info().Msg("second")
	log.Warn().Msg("third")

	assert.Contains(t, buf.String(), `"title":"Dune"`)
	assert.NotContains(t, buf.String(), "filtered")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "third")

	entries := log.Recent().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "third", entries[1].Message)
	assert.Equal(t, "warn", entries[1].Level)
	assert.Equal(t, entries, log.RecentLogs())
	assert.Equal(t, filepath.Join(dir, FileName), log.FilePath())
}

func TestNew_NoFileNoRecent(t *testing.T) {
	log := New(Config{Level: "info", Out: &bytes.Buffer{}})

	assert.Nil(t, log.Recent())
	assert.Nil(t, log.RecentLogs())
	assert.Empty(t, log.FilePath())
	assert.NoError(t, log.Close())
}

func TestRecent_ParsesFields(t *testing.T) {
	r := NewRecent(3)
	_, err := r.Write([]byte(`{"level":"info","component":"chart","title":"Dune","message":"scraped"}`))
	require.NoError(t, err)
	_, err = r.Write([]byte(`not json`))
	require.NoError(t, err)

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "chart", entries[0].Component)
	assert.Equal(t, "Dune", entries[0].Fields["title"])
	assert.Equal(t, 1, r.Len())
}
