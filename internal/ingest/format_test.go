package ingest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/ingest"
)

func TestDisplayTitle(t *testing.T) {
	t.Parallel()

	words := strings.Repeat("abcdefghi ", 9)
	exact := strings.Repeat("x", 70)

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"short title untouched", "Towers rise in Marina", "Towers rise in Marina"},
		{"seventy runes untouched", exact, exact},
		{"cut at last space", words, strings.TrimSuffix(strings.Repeat("abcdefghi ", 7), " ") + "..."},
		{"no space cuts at 67", strings.Repeat("a", 90), strings.Repeat("a", 67) + "..."},
		{"leading space only", " " + strings.Repeat("b", 89), " " + strings.Repeat("b", 66) + "..."},
		{"multibyte runes", strings.Repeat("ع", 90), strings.Repeat("ع", 67) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ingest.DisplayTitle(tt.title))
		})
	}
}

func TestParsePublished(t *testing.T) {
	t.Parallel()

	got, err := ingest.ParsePublished("2024-03-08T10:15:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 8, 10, 15, 0, 0, time.UTC), *got)

	got, err = ingest.ParsePublished("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ingest.ParsePublished("yesterday")
	require.Error(t, err)
	assert.Nil(t, got)

	got, err = ingest.ParsePublished("2024-03-08T10:15:00+04:00")
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestImageFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Towers rise in Marina!", "Towers_rise_in_Marina.jpg"},
		{"  Q&A: rents, fees & more  ", "QA_rents_fees__more.jpg"},
		{"عقارات دبي", "عقارات_دبي.jpg"},
		{"???", "image.jpg"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50) + ".jpg"},
		{"tab\tseparated-words", "tab_separated-words.jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ingest.ImageFilename(tt.title), tt.title)
	}
}
