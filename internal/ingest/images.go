package ingest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/transport"
)

const maxImageBytes = 15 << 20

// HTTPImageFetcher downloads article images on its own client, separate
// from the scraping session.
type HTTPImageFetcher struct {
	client *http.Client
}

// NewImageFetcher builds a fetcher sending image Accept headers, userAgent
// and a Referer of origin + "/".
func NewImageFetcher(userAgent, origin string, timeout time.Duration) *HTTPImageFetcher {
	return &HTTPImageFetcher{
		client: transport.NewClient(transport.ClientConfig{
			Timeout: timeout,
			Headers: transport.ImageHeaders(userAgent, strings.TrimRight(origin, "/")+"/"),
		}),
	}
}

// Fetch implements ImageFetcher.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	return transport.Download(ctx, f.client, imageURL, maxImageBytes)
}
