// Package resolver turns aggregator redirect references into publisher URLs.
package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/transport"
)

// Method records which strategy produced a Resolution.
type Method string

const (
	// MethodUnchanged means the link was not a redirect reference.
	MethodUnchanged Method = "unchanged"
	// MethodRedirect means the aggregator answered with a Location header.
	MethodRedirect Method = "redirect"
	// MethodDecoded means the URL was recovered from the encoded path segment.
	MethodDecoded Method = "decoded"
	// MethodFallback means both strategies failed and the input is returned.
	MethodFallback Method = "fallback"
)

// Resolution is the outcome of resolving one link. URL is never empty unless
// the input was.
type Resolution struct {
	URL    string
	Method Method
	// Err is the redirect check error, if any. It never prevents a Resolution.
	Err error
}

var (
	encodedSegment = regexp.MustCompile(`/(?:read|articles)/([A-Za-z0-9_-]+)`)
	embeddedURL    = regexp.MustCompile(`https?://[^\s"'<>]+`)
	redirectPaths  = []string{"/read/", "/rss/articles/"}
)

// Resolver resolves links that point at the aggregator's redirect endpoints.
type Resolver struct {
	client *http.Client
	host   string
	log    logger.Logger
}

// New returns a Resolver for links on origin's host. client redirects are
// disabled on a private copy.
func New(client *http.Client, origin string, log logger.Logger) (*Resolver, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse aggregator origin: %w", err)
	}

	return &Resolver{
		client: transport.WithoutRedirects(client),
		host:   u.Host,
		log:    log.With(logger.Component("resolver")),
	}, nil
}

// IsRedirectReference reports whether link needs resolving.
func (r *Resolver) IsRedirectReference(link string) bool {
	u, err := url.Parse(link)
	if err != nil || !strings.EqualFold(u.Host, r.host) {
		return false
	}
	for _, prefix := range redirectPaths {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}

// Resolve returns the best-effort canonical URL for link. It never fails.
func (r *Resolver) Resolve(ctx context.Context, link string) Resolution {
	if link == "" || !r.IsRedirectReference(link) {
		return Resolution{URL: link, Method: MethodUnchanged}
	}

	location, hopErr := r.firstHop(ctx, link)
	if location != "" {
		return Resolution{URL: location, Method: MethodRedirect}
	}
	if hopErr != nil {
		r.log.Debug("Redirect check failed",
			logger.String("link", link),
			logger.Error(hopErr),
		)
	}

	if decoded := DecodeEmbeddedURL(link); decoded != "" {
		return Resolution{URL: decoded, Method: MethodDecoded, Err: hopErr}
	}

	return Resolution{URL: link, Method: MethodFallback, Err: hopErr}
}

// firstHop issues a single GET without following redirects and returns the
// Location of a 301/302 answer.
func (r *Resolver) firstHop(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build redirect request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("redirect check %s: %w", link, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusMovedPermanently && resp.StatusCode != http.StatusFound {
		return "", nil
	}

	return resp.Header.Get("Location"), nil
}

// DecodeEmbeddedURL extracts the encoded path segment of link, decodes it as
// padded standard base64 and returns the first http(s) URL inside. Partially
// decodable input is still scanned.
func DecodeEmbeddedURL(link string) string {
	m := encodedSegment.FindStringSubmatch(link)
	if m == nil {
		return ""
	}

	encoded := strings.NewReplacer("-", "+", "_", "/").Replace(m[1])
	if rem := len(encoded) % 4; rem != 0 {
		encoded += strings.Repeat("=", 4-rem)
	}

	buf := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, _ := base64.StdEncoding.Decode(buf, []byte(encoded))

	decoded := strings.ToValidUTF8(string(buf[:n]), "")
	return embeddedURL.FindString(decoded)
}
