// Package news answers read queries over ingested articles.
package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

// Periods accepted by Filter.Period.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

const (
	weekDays  = 7
	monthDays = 30
)

// ErrInvalidPeriod is returned for an unknown Filter.Period.
var ErrInvalidPeriod = errors.New("invalid period")

// Filter selects articles. Zero fields match everything.
type Filter struct {
	Source string `form:"source"`
	Period string `form:"period"`
	Search string `form:"search"`
}

// Item is one article in a Feed.
type Item struct {
	domain.ArticleRecord
	PublishedAgo string `json:"published_ago"`
}

// Source is the public view of a source.
type Source struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Favicon string `json:"favicon,omitempty"`
}

// Feed is the query result.
type Feed struct {
	News []Item `json:"news"`
	// Sources holds the sources referenced by News, keyed by ID.
	Sources    map[string]Source `json:"sources"`
	AllSources []Source          `json:"all_sources"`
}

// Service runs queries against a NewsReader.
type Service struct {
	reader store.NewsReader
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(reader store.NewsReader, opts ...Option) *Service {
	s := &Service{reader: reader, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns published articles matching f, newest first.
func (s *Service) Query(ctx context.Context, f Filter) (*Feed, error) {
	now := s.now()
	since, err := periodStart(f.Period, now)
	if err != nil {
		return nil, err
	}

	articles, err := s.reader.ListPublishedArticles(ctx, store.ArticleFilter{
		SourceID:      f.Source,
		Since:         since,
		TitleContains: f.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	all, err := s.reader.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	feed := &Feed{
		News:       make([]Item, 0, len(articles)),
		Sources:    make(map[string]Source),
		AllSources: make([]Source, 0, len(all)),
	}

	byID := make(map[string]Source, len(all))
	for _, src := range all {
		view := Source{ID: src.ID, Name: src.Name, Favicon: src.FaviconURL}
		byID[src.ID] = view
		feed.AllSources = append(feed.AllSources, view)
	}

	for _, a := range articles {
		item := Item{ArticleRecord: a}
		if a.PublishedAt != nil {
			item.PublishedAgo = humanize.RelTime(*a.PublishedAt, now, "ago", "from now")
		}
		feed.News = append(feed.News, item)
		if src, ok := byID[a.SourceID]; ok {
			feed.Sources[a.SourceID] = src
		}
	}

	return feed, nil
}

// periodStart returns the lower bound for period, or the zero time when
// period is empty.
func periodStart(period string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "":
		return time.Time{}, nil
	case PeriodToday:
		return today, nil
	case PeriodWeek:
		return today.AddDate(0, 0, -weekDays), nil
	case PeriodMonth:
		return today.AddDate(0, 0, -monthDays), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}
