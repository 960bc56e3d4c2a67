package feed

import (
	"context"
	"net/http"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// Fetcher downloads and parses the search feed. Source lookup is an
// enrichment, so every failure degrades to an empty map.
type Fetcher struct {
	client *http.Client
	log    logger.Logger
}

// NewFetcher creates a Fetcher using client for requests.
func NewFetcher(client *http.Client, log logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		log:    log.With(logger.Component("feed")),
	}
}

// FetchSourceMap GETs feedURL and parses it. It never returns nil.
func (f *Fetcher) FetchSourceMap(ctx context.Context, feedURL string) SourceMap {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		f.log.Warn("Invalid feed URL", logger.String("url", feedURL), logger.Error(err))
		return SourceMap{}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warn("Feed request failed", logger.String("url", feedURL), logger.Error(err))
		return SourceMap{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.log.Warn("Feed returned non-200 status",
			logger.String("url", feedURL),
			logger.Int("status_code", resp.StatusCode),
		)
		return SourceMap{}
	}

	sources, err := ParseSourceMap(ctx, resp.Body)
	if err != nil {
		f.log.Warn("Feed could not be parsed", logger.String("url", feedURL), logger.Error(err))
		return SourceMap{}
	}

	f.log.Debug("Feed parsed", logger.String("url", feedURL), logger.Int("sources", len(sources)))
	return sources
}
