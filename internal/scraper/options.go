package scraper

import "net/url"

// Defaults for a scrape pass.
const (
	DefaultTimeframe = "7d"
	DefaultLimit     = 99
)

// Options configures one scrape pass. Start from DefaultOptions and override
// fields.
type Options struct {
	SearchTerm string
	// Timeframe is the aggregator's relative window, e.g. "1d" or "7d".
	Timeframe string
	// Limit caps the number of results before any per-article network call.
	// Zero or less means no cap.
	Limit        int
	PrettyURLs   bool
	FetchContent bool
	UseRSS       bool
	// QueryVars are extra query parameters sent with every request.
	QueryVars map[string]string
	// FilterWords extend the content cleaner's blocklist for this pass.
	FilterWords []string
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Timeframe:    DefaultTimeframe,
		Limit:        DefaultLimit,
		PrettyURLs:   true,
		FetchContent: false,
		UseRSS:       true,
		QueryVars:    map[string]string{},
	}
}

// arabicParams select the Arabic language UAE edition.
var arabicParams = map[string]string{
	"hl":   "ar",
	"gl":   "AE",
	"ceid": "AE:ar",
}

// Query returns the query string parameters shared by the feed and listing
// requests.
func (o Options) Query() url.Values {
	q := url.Values{}
	for k, v := range o.QueryVars {
		q.Set(k, v)
	}
	if ContainsArabic(o.SearchTerm) {
		for k, v := range arabicParams {
			q.Set(k, v)
		}
	}

	timeframe := o.Timeframe
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	q.Set("when", timeframe)

	if o.SearchTerm != "" {
		q.Set("q", o.SearchTerm)
	}
	return q
}

// ContainsArabic reports whether s has a rune in the Arabic block U+0600 to U+06FF.
func ContainsArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}
