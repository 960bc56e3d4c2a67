package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/attachment"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/content"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/events"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/feed"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/ingest"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/metrics"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/resolver"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/scraper"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/search"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/sources"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/transport"
)

// App is the fully wired ingestion pipeline.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Store    store.Repository
	Files    attachment.Store
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Sink     *ingest.Sink

	closers []func() error
}

// NewApp connects every backend named in env.Config and builds the sink.
// Callers must Close the App.
func NewApp(ctx context.Context, env *Env) (*App, error) {
	cfg := env.Config
	log := env.Logger

	app := &App{Config: cfg, Logger: log, Registry: prometheus.NewRegistry()}

	repo, err := OpenRepository(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	app.Store = repo
	app.closers = append(app.closers, repo.Close)

	files, err := OpenFiles(ctx, cfg.Storage, log)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Files = files

	app.Metrics = metrics.New(app.Registry)

	deps := ingest.Deps{
		Files:   files,
		Metrics: app.Metrics,
		Defaults: ingest.Defaults{
			Limit:     cfg.Ingest.DefaultLimit,
			Timeframe: cfg.Ingest.DefaultTimeframe,
		},
		Logger: log,
	}

	if deps.Scraper, err = newScraper(cfg, log); err != nil {
		_ = app.Close()
		return nil, err
	}

	agg := cfg.Aggregator
	iconClient := transport.NewClient(transport.ClientConfig{
		Timeout: agg.ImageTimeout,
		Headers: transport.ImageHeaders(agg.UserAgent, strings.TrimRight(agg.Origin, "/")+"/"),
	})
	deps.Sources = sources.NewRegistry(sources.NewFaviconFetcher(iconClient, agg.FaviconEndpoint), log)
	deps.Images = ingest.NewImageFetcher(agg.UserAgent, agg.Origin, agg.ImageTimeout)

	if cfg.Redis.Enabled {
		client, redisErr := events.NewRedisClient(ctx, cfg.Redis)
		if redisErr != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", redisErr)
		}
		app.closers = append(app.closers, client.Close)
		deps.Events = events.NewPublisher(client, cfg.Redis.Stream, log)
		log.Info("Article events enabled", logger.String("stream", cfg.Redis.Stream))
	}

	if cfg.Elasticsearch.Enabled {
		client, esErr := search.NewClient(cfg.Elasticsearch)
		if esErr != nil {
			_ = app.Close()
			return nil, esErr
		}
		indexer := search.NewIndexer(client, cfg.Elasticsearch.Index, log)
		if esErr = indexer.EnsureIndex(ctx); esErr != nil {
			log.Warn("Search index not ready", logger.Error(esErr))
		}
		deps.Index = indexer
	}

	app.Sink = ingest.NewSink(deps)
	return app, nil
}

// Close releases every backend connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newScraper(cfg *config.Config, log logger.Logger) (*scraper.Scraper, error) {
	agg := cfg.Aggregator
	cookies := transport.ConsentCookies(time.Now)
	headers := transport.BrowserHeaders(agg.UserAgent)

	client := transport.NewClient(transport.ClientConfig{
		Timeout:    agg.RequestTimeout,
		Headers:    headers,
		CookieFunc: cookies,
	})
	resolveClient := transport.NewClient(transport.ClientConfig{
		Timeout:    agg.ResolveTimeout,
		Headers:    headers,
		CookieFunc: cookies,
	})

	res, err := resolver.New(resolveClient, agg.Origin, log)
	if err != nil {
		return nil, err
	}

	return scraper.New(scraper.Deps{
		Client:   client,
		Origin:   agg.Origin,
		Feed:     feed.NewFetcher(client, log),
		Resolver: res,
		Extractor: content.NewExtractor(client, content.Config{
			BaseDelay:   cfg.Content.BaseDelay,
			JitterMin:   cfg.Content.JitterMin,
			JitterMax:   cfg.Content.JitterMax,
			MaxAttempts: cfg.Content.MaxAttempts,
			MinWords:    cfg.Content.MinWords,
		}, log),
		FilterWords: cfg.Content.FilterWords,
		Logger:      log,
	}), nil
}

// OpenRepository opens the configured store.
func OpenRepository(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (store.Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory store; data is lost on exit")
		return store.NewMemory(), nil
	case config.DriverPostgres:
		db, err := store.NewPostgresConnection(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Connected to database",
			logger.String("host", cfg.Host),
			logger.String("dbname", cfg.DBName),
		)
		return store.NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenFiles opens the configured attachment store.
func OpenFiles(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (attachment.Store, error) {
	switch cfg.Driver {
	case config.StorageDisk:
		return attachment.NewDisk(cfg.Dir, cfg.PublicBaseURL), nil
	case config.StorageMinIO:
		// A path-only base URL is meant for the disk driver; objects are then
		// addressed through the MinIO endpoint.
		baseURL := cfg.PublicBaseURL
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = ""
		}
		m, err := attachment.NewMinIO(cfg.MinIO, baseURL, log)
		if err != nil {
			return nil, err
		}
		if err = m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
