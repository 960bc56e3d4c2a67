package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/content"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/feed"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/resolver"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/scraper"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/testutil"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/transport"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newScraper(t *testing.T, agg *testutil.Aggregator, filterWords ...string) *scraper.Scraper {
	t.Helper()

	log := logger.NewNop()
	client := transport.NewClient(transport.ClientConfig{
		Timeout: 5 * time.Second,
		Headers: transport.BrowserHeaders("newsdesk-test"),
		Cookies: []*http.Cookie{transport.ConsentCookie(time.Now())},
	})

	res, err := resolver.New(client, agg.URL, log)
	require.NoError(t, err)

	return scraper.New(scraper.Deps{
		Client:      client,
		Origin:      agg.URL,
		Feed:        feed.NewFetcher(client, log),
		Resolver:    res,
		Extractor:   content.NewExtractor(client, content.Config{}, log, content.WithSleep(noSleep)),
		FilterWords: filterWords,
		Logger:      log,
	})
}

func blocks(n int) []testutil.Block {
	out := make([]testutil.Block, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, testutil.Block{
			Title:       fmt.Sprintf("Headline %d", i),
			ID:          fmt.Sprintf("ID%d", i),
			Redirect:    i%2 == 0,
			Source:      fmt.Sprintf("Outlet %d", i),
			Image:       i%3 != 0,
			PublishedAt: "2024-03-08T10:15:00Z",
		})
	}
	return out
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := scraper.DefaultOptions()
	assert.Equal(t, "7d", opts.Timeframe)
	assert.Equal(t, 99, opts.Limit)
	assert.True(t, opts.PrettyURLs)
	assert.False(t, opts.FetchContent)
	assert.True(t, opts.UseRSS)
	assert.NotNil(t, opts.QueryVars)
	assert.Empty(t, opts.FilterWords)
}

func TestOptions_Query(t *testing.T) {
	t.Parallel()

	opts := scraper.DefaultOptions()
	opts.SearchTerm = "real estate"
	opts.QueryVars = map[string]string{"hl": "en-US", "when": "ignored"}

	q := opts.Query()
	assert.Equal(t, "real estate", q.Get("q"))
	assert.Equal(t, "7d", q.Get("when"))
	assert.Equal(t, "en-US", q.Get("hl"))
	assert.Empty(t, q.Get("ceid"))

	opts.SearchTerm = "عقارات دبي"
	q = opts.Query()
	assert.Equal(t, "ar", q.Get("hl"))
	assert.Equal(t, "AE", q.Get("gl"))
	assert.Equal(t, "AE:ar", q.Get("ceid"))
}

func TestContainsArabic(t *testing.T) {
	t.Parallel()

	assert.True(t, scraper.ContainsArabic("Dubai عقارات"))
	assert.False(t, scraper.ContainsArabic("Dubai property"))
	assert.False(t, scraper.ContainsArabic(""))
}

func TestScrape_LimitsResolvesAndBackfills(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(8), []testutil.FeedItem{
		{Title: "Headline 1", SourceName: "Outlet 1", SourceURL: "https://outlet1.example"},
		{Title: "Headline 2", SourceName: "Outlet 2", SourceURL: "https://outlet2.example"},
	})

	opts := scraper.DefaultOptions()
	opts.SearchTerm = "real estate"
	opts.Limit = 4

	res := newScraper(t, agg).Scrape(context.Background(), opts)

	require.Equal(t, scraper.StatusOK, res.Status)
	require.Len(t, res.Articles, 4)
	assert.Equal(t, 2, res.FeedSources)
	assert.Equal(t, 2, res.Resolved)
	assert.Zero(t, res.WithContent)

	assert.Equal(t, "Headline 1", res.Articles[0].Title)
	assert.Equal(t, domain.LayoutRegular, res.Articles[0].LayoutKind)
	assert.Equal(t, agg.URL+"/articles/ID1", res.Articles[0].Link)
	assert.Equal(t, "https://outlet1.example", res.Articles[0].SourceHomepageURL)
	assert.Equal(t, agg.URL+"/img/0.jpg", res.Articles[0].ImageURL)

	// Redirect references land on the publisher page.
	assert.Equal(t, agg.StoryURL("ID2"), res.Articles[1].Link)
	assert.Equal(t, agg.StoryURL("ID4"), res.Articles[3].Link)
	assert.Empty(t, res.Articles[2].ImageURL)

	// Only the limited set is resolved.
	assert.Len(t, agg.Requests("/read/"), 2)

	listing := agg.Requests("/search")
	require.Len(t, listing, 1)
	assert.Equal(t, "real estate", listing[0].URL.Query().Get("q"))
	assert.Equal(t, "7d", listing[0].URL.Query().Get("when"))
	cookie, err := listing[0].Cookie(transport.ConsentCookieName)
	require.NoError(t, err)
	assert.Contains(t, cookie.Value, "YES+cb.")
	assert.Equal(t, "newsdesk-test", listing[0].Header.Get("User-Agent"))
}

func TestScrape_FetchesContent(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(2), nil)

	opts := scraper.DefaultOptions()
	opts.SearchTerm = "towers"
	opts.FetchContent = true
	opts.UseRSS = false

	res := newScraper(t, agg).Scrape(context.Background(), opts)

	require.Len(t, res.Articles, 2)
	assert.Equal(t, 2, res.WithContent)
	assert.Contains(t, res.Articles[1].BodyText, "Paragraph 1 explains how the project")
	assert.Empty(t, agg.Requests("/rss/"))
}

func TestScrape_FilterWordsSuppressContent(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(1), nil)

	opts := scraper.DefaultOptions()
	opts.FetchContent = true
	opts.FilterWords = []string{"northern edge"}

	res := newScraper(t, agg).Scrape(context.Background(), opts)

	require.Len(t, res.Articles, 1)
	assert.Empty(t, res.Articles[0].BodyText)
	assert.Zero(t, res.WithContent)
}

func TestScrape_PrettyURLsDisabled(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(2), nil)

	opts := scraper.DefaultOptions()
	opts.PrettyURLs = false

	res := newScraper(t, agg).Scrape(context.Background(), opts)

	require.Len(t, res.Articles, 2)
	assert.Equal(t, agg.URL+"/read/ID2", res.Articles[1].Link)
	assert.Empty(t, agg.Requests("/read/"))
}

func TestScrape_ListingFailure(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(3), nil)
	agg.FailListing(http.StatusServiceUnavailable)

	res := newScraper(t, agg).Scrape(context.Background(), scraper.DefaultOptions())

	assert.Equal(t, scraper.StatusListingFailed, res.Status)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Articles)
}

func TestScrape_ArabicTermSetsLocale(t *testing.T) {
	t.Parallel()

	agg := testutil.NewAggregator(t, blocks(1), nil)

	opts := scraper.DefaultOptions()
	opts.SearchTerm = "عقارات"

	newScraper(t, agg).Scrape(context.Background(), opts)

	for _, prefix := range []string{"/search", "/rss/search"} {
		reqs := agg.Requests(prefix)
		require.Len(t, reqs, 1, prefix)
		q := reqs[0].URL.Query()
		assert.Equal(t, "ar", q.Get("hl"), prefix)
		assert.Equal(t, "AE", q.Get("gl"), prefix)
		assert.Equal(t, "AE:ar", q.Get("ceid"), prefix)
	}
}
