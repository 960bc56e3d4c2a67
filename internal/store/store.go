// Package store persists sources, articles and search configurations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness rule.
	ErrDuplicate = errors.New("record already exists")
)

// Store is the repository the ingestion run depends on.
type Store interface {
	ListEnabledSearchConfigs(ctx context.Context) ([]domain.SearchConfig, error)
	// Begin opens a unit of work. Writes made through the Tx become visible
	// to other readers only after Commit.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one unit of work, committed once per search configuration.
type Tx interface {
	ArticleExists(ctx context.Context, title string) (bool, error)
	// FindSourceByName returns ErrNotFound when no source has exactly name.
	FindSourceByName(ctx context.Context, name string) (*domain.SourceRecord, error)
	CreateSource(ctx context.Context, src *domain.SourceRecord) error
	UpdateSourceFavicon(ctx context.Context, sourceID, faviconURL string) error
	CreateArticle(ctx context.Context, article *domain.ArticleRecord) error
	SetArticleImage(ctx context.Context, articleID, imageURL string) error
	Commit() error
	// Rollback discards uncommitted writes. It is a no-op after Commit.
	Rollback() error
}

// ArticleFilter narrows ListPublishedArticles. Zero fields match everything.
type ArticleFilter struct {
	SourceID string
	Since    time.Time
	// TitleContains is matched case-insensitively against the display title.
	TitleContains string
}

// NewsReader is the read side used by the query service.
type NewsReader interface {
	// ListPublishedArticles returns articles with a published timestamp,
	// newest first.
	ListPublishedArticles(ctx context.Context, filter ArticleFilter) ([]domain.ArticleRecord, error)
	// ListSources returns every source ordered by name.
	ListSources(ctx context.Context) ([]domain.SourceRecord, error)
}

// ConfigWriter manages search configurations for the CLI and API.
type ConfigWriter interface {
	ListSearchConfigs(ctx context.Context) ([]domain.SearchConfig, error)
	CreateSearchConfig(ctx context.Context, cfg *domain.SearchConfig) error
}

// Repository is everything a backing store provides.
type Repository interface {
	Store
	NewsReader
	ConfigWriter
	Close() error
}
