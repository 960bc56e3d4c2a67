package ingest

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	displayTitleMax = 70
	displayTitleCut = 67
	ellipsis        = "..."

	imageNameMax = 50
	imageExt     = ".jpg"

	// PublishedLayout is the only timestamp format the listing emits.
	PublishedLayout = "2006-01-02T15:04:05Z"
)

// DisplayTitle shortens titles longer than 70 runes, cutting at the last
// space before the limit, or at 67 runes when the prefix has no space.
func DisplayTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= displayTitleMax {
		return title
	}

	head := runes[:displayTitleMax]
	for i := len(head) - 1; i > 0; i-- {
		if head[i] == ' ' {
			return string(head[:i]) + ellipsis
		}
	}
	return string(runes[:displayTitleCut]) + ellipsis
}

// ParsePublished parses a listing timestamp. Empty or malformed input
// yields nil.
func ParsePublished(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // an absent timestamp is not a parse failure
	}
	t, err := time.Parse(PublishedLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// ImageFilename derives an attachment name from an article title.
func ImageFilename(title string) string {
	safe := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, ""))
	safe = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, safe)

	runes := []rune(safe)
	if len(runes) > imageNameMax {
		runes = runes[:imageNameMax]
	}
	if len(runes) == 0 {
		return "image" + imageExt
	}
	return string(runes) + imageExt
}
