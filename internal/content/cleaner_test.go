package content_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/content"
)

func TestCleaner_Clean(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"  The council approved the waterfront plan on Tuesday evening.  ",
		"Photo: city archive",
		"Four words only here",
		"SUBSCRIBE NOW to get every housing story delivered daily",
		"Prices in the district rose eleven percent over the year.",
		"",
		"Follow us on every platform for updates about this story",
	}, "\n")

	got := content.NewCleaner().Clean(text)

	assert.Equal(t,
		"The council approved the waterfront plan on Tuesday evening.\n"+
			"Prices in the district rose eleven percent over the year.",
		got,
	)
}

func TestCleaner_ExtraPhrases(t *testing.T) {
	t.Parallel()

	c := content.NewCleaner("Crypto Giveaway", "  ", "horoscope")

	assert.True(t, c.Blocked("Read today's HOROSCOPE for every sign of the zodiac"))
	assert.True(t, c.Blocked("This line mentions a crypto giveaway in passing"))
	assert.True(t, c.Blocked("Learn more about the project on the website"))
	assert.False(t, c.Blocked("The developer confirmed the handover date for phase two"))
}

func TestCleaner_FiveWordLinesSurvive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "one two three four five", content.NewCleaner().Clean("one two three four five\none two three four"))
}

func TestBoilerplatePhrases_ReturnsCopy(t *testing.T) {
	t.Parallel()

	phrases := content.BoilerplatePhrases()
	phrases[0] = "mutated"
	assert.Equal(t, "subscribe now", content.BoilerplatePhrases()[0])
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, content.WordCount("  \n\t"))
	assert.Equal(t, 3, content.WordCount("a  b\nc"))
}
