// Package sources keeps the publisher registry: one record per display name,
// created on first sighting with a favicon fetched for its homepage.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/attachment"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/transport"
)

// UnknownSource names articles whose publisher could not be identified.
const UnknownSource = "Unknown"

const (
	faviconSize     = "64"
	maxFaviconBytes = 1 << 20
)

// NormalizeHomepage prefixes https:// when raw has no http(s) scheme.
func NormalizeHomepage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

// Host returns the host of a homepage URL, or "" when it has none.
func Host(homepage string) string {
	u, err := url.Parse(NormalizeHomepage(homepage))
	if err != nil {
		return ""
	}
	return u.Host
}

// Name picks the registry key for a scraped article.
func Name(a domain.RawArticle) string {
	if name := strings.TrimSpace(a.SourceLabel); name != "" {
		return name
	}
	if host := Host(a.SourceHomepageURL); host != "" {
		return host
	}
	return UnknownSource
}

// FaviconFilename is the attachment name for host's favicon.
func FaviconFilename(host string) string {
	return strings.ReplaceAll(host, ".", "_") + "_favicon.png"
}

// Favicon is a downloaded icon.
type Favicon struct {
	Host        string
	Filename    string
	Data        []byte
	ContentType string
}

// FaviconFetcher downloads icons from a favicon service.
type FaviconFetcher struct {
	client   *http.Client
	endpoint string
}

// NewFaviconFetcher queries endpoint with ?domain={host}&sz=64.
func NewFaviconFetcher(client *http.Client, endpoint string) *FaviconFetcher {
	return &FaviconFetcher{client: client, endpoint: endpoint}
}

// URL returns the service URL for host.
func (f *FaviconFetcher) URL(host string) string {
	q := url.Values{}
	q.Set("domain", host)
	q.Set("sz", faviconSize)
	return f.endpoint + "?" + q.Encode()
}

// Fetch downloads the favicon for homepage.
func (f *FaviconFetcher) Fetch(ctx context.Context, homepage string) (*Favicon, error) {
	host := Host(homepage)
	if host == "" {
		return nil, fmt.Errorf("homepage %q has no host", homepage)
	}

	data, contentType, err := transport.Download(ctx, f.client, f.URL(host), maxFaviconBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch favicon: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("fetch favicon: empty body")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	return &Favicon{
		Host:        host,
		Filename:    FaviconFilename(host),
		Data:        data,
		ContentType: contentType,
	}, nil
}

// Registry resolves scraped source labels to stored sources.
type Registry struct {
	favicons *FaviconFetcher
	log      logger.Logger
}

// NewRegistry creates a Registry. favicons may be nil, in which case icons
// are never downloaded.
func NewRegistry(favicons *FaviconFetcher, log logger.Logger) *Registry {
	return &Registry{
		favicons: favicons,
		log:      log.With(logger.Component("sources")),
	}
}

// Resolve returns the source for a, creating it inside tx when no source
// has the same name. Favicons of new sources are written to files, which
// may be nil. created reports whether a record was inserted.
func (r *Registry) Resolve(
	ctx context.Context,
	tx store.Tx,
	files attachment.Store,
	a domain.RawArticle,
) (*domain.SourceRecord, bool, error) {
	name := Name(a)

	existing, err := tx.FindSourceByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("find source %q: %w", name, err)
	}

	src := &domain.SourceRecord{
		Name:        name,
		HomepageURL: NormalizeHomepage(a.SourceHomepageURL),
	}
	if src.HomepageURL == "" {
		src.FaviconURL = a.FaviconURL
	}
	err = tx.CreateSource(ctx, src)
	if errors.Is(err, store.ErrDuplicate) {
		// Another writer committed the same name since the lookup.
		existing, err = tx.FindSourceByName(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("find source %q after conflict: %w", name, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create source %q: %w", name, err)
	}

	r.log.Info("Created source",
		logger.String("source_id", src.ID),
		logger.String("name", src.Name),
		logger.String("homepage", src.HomepageURL),
	)

	if src.HomepageURL != "" {
		r.attachFavicon(ctx, tx, files, src)
	}
	return src, true, nil
}

// attachFavicon stores the icon for src. Failures are logged only.
func (r *Registry) attachFavicon(ctx context.Context, tx store.Tx, files attachment.Store, src *domain.SourceRecord) {
	if r.favicons == nil || files == nil {
		return
	}
	log := r.log.With(logger.String("source_id", src.ID), logger.String("homepage", src.HomepageURL))

	icon, err := r.favicons.Fetch(ctx, src.HomepageURL)
	if err != nil {
		log.Warn("Favicon download failed", logger.Error(err))
		return
	}

	fileURL, err := files.Attach(ctx, attachment.File{
		Name:        icon.Filename,
		Data:        icon.Data,
		ContentType: icon.ContentType,
		EntityKind:  attachment.EntitySource,
		EntityID:    src.ID,
	})
	if err != nil {
		log.Warn("Favicon attachment failed", logger.Error(err))
		return
	}

	if err = tx.UpdateSourceFavicon(ctx, src.ID, fileURL); err != nil {
		log.Warn("Favicon update failed", logger.Error(err))
		return
	}
	src.FaviconURL = fileURL
}
