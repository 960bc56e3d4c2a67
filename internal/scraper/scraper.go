// Package scraper runs one search against the aggregator: feed lookup,
// listing parse, link resolution and optional full-text extraction.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/content"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/feed"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/listing"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/resolver"
)

const (
	listingPath = "/search"
	feedPath    = "/rss/search"
)

// Status summarizes a pass.
type Status string

const (
	// StatusOK means the listing was fetched; Articles may still be empty.
	StatusOK Status = "ok"
	// StatusListingFailed means the results page could not be fetched or parsed.
	StatusListingFailed Status = "listing_failed"
)

// Result is the outcome of Scrape.
type Result struct {
	Articles    []domain.RawArticle
	Status      Status
	Err         error
	FeedSources int
	Resolved    int
	WithContent int
}

// SourceMapFetcher loads the title to source lookup.
type SourceMapFetcher interface {
	FetchSourceMap(ctx context.Context, feedURL string) feed.SourceMap
}

// URLResolver resolves redirect references.
type URLResolver interface {
	Resolve(ctx context.Context, link string) resolver.Resolution
}

// ContentExtractor fetches article body text.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string, cleaner *content.Cleaner) content.Result
}

// Deps wires a Scraper.
type Deps struct {
	// Client fetches the listing page. It must send the browser identity.
	Client    *http.Client
	Origin    string
	Feed      SourceMapFetcher
	Resolver  URLResolver
	Extractor ContentExtractor
	// FilterWords apply to every pass in addition to Options.FilterWords.
	FilterWords []string
	Logger      logger.Logger
}

// Scraper executes scrape passes sequentially.
type Scraper struct {
	client      *http.Client
	origin      string
	feed        SourceMapFetcher
	parser      *listing.Parser
	resolver    URLResolver
	extractor   ContentExtractor
	filterWords []string
	log         logger.Logger
}

// New creates a Scraper.
func New(d Deps) *Scraper {
	origin := strings.TrimRight(d.Origin, "/")
	return &Scraper{
		client:      d.Client,
		origin:      origin,
		feed:        d.Feed,
		parser:      listing.NewParser(origin),
		resolver:    d.Resolver,
		extractor:   d.Extractor,
		filterWords: d.FilterWords,
		log:         d.Logger.With(logger.Component("scraper")),
	}
}

// ListingURL returns the HTML results URL for opts.
func (s *Scraper) ListingURL(opts Options) string {
	return s.origin + listingPath + "?" + opts.Query().Encode()
}

// FeedURL returns the RSS results URL for opts.
func (s *Scraper) FeedURL(opts Options) string {
	return s.origin + feedPath + "?" + opts.Query().Encode()
}

// Scrape runs one pass. Failures of individual articles never fail the pass.
func (s *Scraper) Scrape(ctx context.Context, opts Options) Result {
	log := s.log.With(logger.String("search_term", opts.SearchTerm))

	var sources feed.SourceMap
	if opts.UseRSS && s.feed != nil {
		sources = s.feed.FetchSourceMap(ctx, s.FeedURL(opts))
	}

	articles, err := s.fetchListing(ctx, s.ListingURL(opts), sources)
	if err != nil {
		log.Warn("Listing fetch failed", logger.Error(err))
		return Result{Status: StatusListingFailed, Err: err, FeedSources: len(sources)}
	}

	res := Result{Status: StatusOK, FeedSources: len(sources)}

	if opts.Limit > 0 && len(articles) > opts.Limit {
		log.Debug("Limiting results",
			logger.Int("found", len(articles)),
			logger.Int("limit", opts.Limit),
		)
		articles = articles[:opts.Limit]
	}

	if opts.PrettyURLs && s.resolver != nil {
		for i := range articles {
			r := s.resolver.Resolve(ctx, articles[i].Link)
			if r.URL != "" {
				articles[i].Link = r.URL
			}
			if r.Method == resolver.MethodRedirect || r.Method == resolver.MethodDecoded {
				res.Resolved++
			}
		}
	}

	if opts.FetchContent && s.extractor != nil {
		cleaner := content.NewCleaner(append(append([]string(nil), s.filterWords...), opts.FilterWords...)...)
		for i := range articles {
			c := s.extractor.Extract(ctx, articles[i].Link, cleaner)
			if c.OK() {
				articles[i].BodyText = c.Text
				res.WithContent++
			}
		}
	}

	res.Articles = make([]domain.RawArticle, 0, len(articles))
	for _, a := range articles {
		if a.Title != "" {
			res.Articles = append(res.Articles, a)
		}
	}

	log.Info("Scrape finished",
		logger.Int("articles", len(res.Articles)),
		logger.Int("feed_sources", res.FeedSources),
		logger.Int("resolved", res.Resolved),
		logger.Int("with_content", res.WithContent),
	)
	return res
}

func (s *Scraper) fetchListing(ctx context.Context, listingURL string, sources feed.SourceMap) ([]domain.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get listing: unexpected status %d", resp.StatusCode)
	}

	return s.parser.Parse(ctx, resp.Body, sources)
}
