// Package ingest persists scrape results: one unit of work per enabled
// search configuration, with sources reconciled by name and articles
// deduplicated by title.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/attachment"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/events"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/metrics"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/scraper"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/search"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

// Fallbacks for search configurations that leave fields unset.
const (
	DefaultLimit     = 10
	DefaultTimeframe = "7d"
)

//go:generate mockgen -destination=mocks/mock_ingest.go -package=mocks . Scraper,ImageFetcher,EventPublisher,ArticleIndexer

const defaultImageType = "image/jpeg"

// Scraper runs one scrape pass.
type Scraper interface {
	Scrape(ctx context.Context, opts scraper.Options) scraper.Result
}

// SourceResolver finds or creates the source of an article inside tx,
// writing any favicon to files.
type SourceResolver interface {
	Resolve(ctx context.Context, tx store.Tx, files attachment.Store, a domain.RawArticle) (*domain.SourceRecord, bool, error)
}

// ImageFetcher downloads an image and reports its content type.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

// EventPublisher announces committed articles.
type EventPublisher interface {
	Publish(ctx context.Context, event events.ArticleEvent) error
}

// ArticleIndexer indexes committed articles for search.
type ArticleIndexer interface {
	IndexArticle(ctx context.Context, id string, doc search.Document) error
}

// Trigger describes what started a run.
type Trigger struct {
	Name    string
	RunID   string
	FiredAt time.Time
}

// RunContext is everything a run needs from its caller.
type RunContext struct {
	Store   store.Store
	Trigger Trigger
}

// Outcome of one configuration.
type Outcome string

const (
	OutcomeOK     Outcome = metrics.OutcomeOK
	OutcomeEmpty  Outcome = metrics.OutcomeEmpty
	OutcomeFailed Outcome = metrics.OutcomeFailed
)

// ConfigSummary reports one configuration.
type ConfigSummary struct {
	ConfigID       string
	SearchTerm     string
	Outcome        Outcome
	Scraped        int
	Created        int
	Skipped        int
	SourcesCreated int
	Images         int
	ImageFailures  int
	Duration       time.Duration
	Err            error
}

// Summary reports one run.
type Summary struct {
	Trigger   Trigger
	StartedAt time.Time
	Duration  time.Duration
	Configs   []ConfigSummary
	// Err is set when the configuration list could not be loaded.
	Err error
}

// Created returns the number of articles committed across configurations.
func (s Summary) Created() int {
	n := 0
	for _, c := range s.Configs {
		n += c.Created
	}
	return n
}

// Failed returns the number of configurations that failed.
func (s Summary) Failed() int {
	n := 0
	for _, c := range s.Configs {
		if c.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Deps wires a Sink. Images, Files, Events, Index and Metrics are optional.
type Deps struct {
	Scraper  Scraper
	Sources  SourceResolver
	Images   ImageFetcher
	Files    attachment.Store
	Events   EventPublisher
	Index    ArticleIndexer
	Metrics  *metrics.Metrics
	Defaults Defaults
	Logger   logger.Logger
}

// Defaults fill unset SearchConfig fields.
type Defaults struct {
	Limit     int
	Timeframe string
}

// Sink is the ingestion entry point.
type Sink struct {
	scraper  Scraper
	sources  SourceResolver
	images   ImageFetcher
	files    attachment.Store
	events   EventPublisher
	index    ArticleIndexer
	metrics  *metrics.Metrics
	defaults Defaults
	log      logger.Logger
}

// NewSink creates a Sink.
func NewSink(d Deps) *Sink {
	defaults := d.Defaults
	if defaults.Limit <= 0 {
		defaults.Limit = DefaultLimit
	}
	if defaults.Timeframe == "" {
		defaults.Timeframe = DefaultTimeframe
	}

	return &Sink{
		scraper:  d.Scraper,
		sources:  d.Sources,
		images:   d.Images,
		files:    d.Files,
		events:   d.Events,
		index:    d.Index,
		metrics:  d.Metrics,
		defaults: defaults,
		log:      d.Logger.With(logger.Component("ingest")),
	}
}

// Options maps a search configuration onto scrape options.
func (s *Sink) Options(cfg domain.SearchConfig) scraper.Options {
	opts := scraper.DefaultOptions()
	opts.SearchTerm = cfg.SearchTerm
	opts.PrettyURLs = cfg.FetchFullContent
	opts.FetchContent = cfg.FetchFullContent
	opts.UseRSS = true

	opts.Timeframe = cfg.Timeframe
	if opts.Timeframe == "" {
		opts.Timeframe = s.defaults.Timeframe
	}
	opts.Limit = cfg.ResultLimit
	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	return opts
}

// Run processes every enabled configuration in order. Failures are
// logged and recorded in the summary; they never abort the run.
func (s *Sink) Run(ctx context.Context, rc RunContext) Summary {
	sum := Summary{Trigger: rc.Trigger, StartedAt: time.Now()}
	log := s.log.With(
		logger.String("trigger", rc.Trigger.Name),
		logger.String("run_id", rc.Trigger.RunID),
	)

	if rc.Store == nil {
		sum.Err = errors.New("run context has no store")
		log.Error("Ingestion run aborted", logger.Error(sum.Err))
		return sum
	}

	configs, err := rc.Store.ListEnabledSearchConfigs(ctx)
	if err != nil {
		sum.Err = fmt.Errorf("list search configs: %w", err)
		log.Error("Ingestion run aborted", logger.Error(sum.Err))
		return sum
	}

	log.Info("Ingestion run started", logger.Int("configs", len(configs)))

	for _, cfg := range configs {
		if ctx.Err() != nil {
			log.Warn("Ingestion run interrupted", logger.Error(ctx.Err()))
			break
		}
		cs := s.runConfig(ctx, rc, cfg, log)
		s.metrics.ConfigDone(string(cs.Outcome), cs.Duration)
		sum.Configs = append(sum.Configs, cs)
	}

	sum.Duration = time.Since(sum.StartedAt)
	log.Info("Ingestion run finished",
		logger.Int("configs", len(sum.Configs)),
		logger.Int("failed", sum.Failed()),
		logger.Int("created", sum.Created()),
		logger.Duration("duration", sum.Duration),
	)
	return sum
}

// created pairs a committed article with its source name.
type created struct {
	article    domain.ArticleRecord
	sourceName string
}

func (s *Sink) runConfig(ctx context.Context, rc RunContext, cfg domain.SearchConfig, runLog logger.Logger) ConfigSummary {
	start := time.Now()
	cs := ConfigSummary{ConfigID: cfg.ID, SearchTerm: cfg.SearchTerm}
	log := runLog.With(
		logger.String("config_id", cfg.ID),
		logger.String("search_term", cfg.SearchTerm),
	)

	finish := func(outcome Outcome, err error) ConfigSummary {
		cs.Outcome = outcome
		cs.Err = err
		cs.Duration = time.Since(start)
		if err != nil {
			log.Error("Search configuration failed", logger.Error(err), logger.Duration("duration", cs.Duration))
		}
		return cs
	}

	res := s.scraper.Scrape(ctx, s.Options(cfg))
	if res.Status != scraper.StatusOK {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("scrape status %s", res.Status)
		}
		return finish(OutcomeFailed, err)
	}

	cs.Scraped = len(res.Articles)
	s.metrics.Scraped(cs.Scraped)
	if cs.Scraped == 0 {
		log.Info("No articles found")
		return finish(OutcomeEmpty, nil)
	}

	tx, err := rc.Store.Begin(ctx)
	if err != nil {
		return finish(OutcomeFailed, fmt.Errorf("begin: %w", err))
	}
	uow := unitOfWork{tx: tx}
	if s.files != nil {
		uow.files = attachment.NewBatch(s.files)
	}

	var committed []created
	for _, a := range res.Articles {
		c, persistErr := s.persist(ctx, uow, cfg, a, &cs, log)
		if persistErr != nil {
			uow.rollback(ctx, log)
			return finish(OutcomeFailed, persistErr)
		}
		if c != nil {
			committed = append(committed, *c)
		}
	}

	if err = tx.Commit(); err != nil {
		uow.rollback(ctx, log)
		return finish(OutcomeFailed, fmt.Errorf("commit: %w", err))
	}

	cs.Created = len(committed)
	s.metrics.Created(cs.Created)
	log.Info("Search configuration ingested",
		logger.Int("scraped", cs.Scraped),
		logger.Int("created", cs.Created),
		logger.Int("skipped", cs.Skipped),
		logger.Int("sources_created", cs.SourcesCreated),
	)

	s.announce(ctx, rc.Trigger, committed, log)
	return finish(OutcomeOK, nil)
}

// unitOfWork is one configuration's transaction plus the files written
// for its records.
type unitOfWork struct {
	tx    store.Tx
	files *attachment.Batch
}

// fileStore returns the batch as a Store, or nil when attachments are off.
func (u unitOfWork) fileStore() attachment.Store {
	if u.files == nil {
		return nil
	}
	return u.files
}

// rollback undoes the transaction and removes the files its records
// referenced.
func (u unitOfWork) rollback(ctx context.Context, log logger.Logger) {
	if err := u.tx.Rollback(); err != nil {
		log.Warn("Rollback failed", logger.Error(err))
	}
	if u.files == nil || u.files.Len() == 0 {
		return
	}
	n := u.files.Len()
	// The run context may already be cancelled; cleanup still has to happen.
	if err := u.files.Discard(context.WithoutCancel(ctx)); err != nil {
		log.Warn("Orphaned attachments not removed", logger.Error(err))
		return
	}
	log.Info("Removed attachments of rolled back articles", logger.Int("files", n))
}

// persist stores one article. A nil result with a nil error means the
// article was skipped. Errors are store failures that end the unit of work.
func (s *Sink) persist(
	ctx context.Context,
	uow unitOfWork,
	cfg domain.SearchConfig,
	a domain.RawArticle,
	cs *ConfigSummary,
	log logger.Logger,
) (*created, error) {
	tx := uow.tx
	exists, err := tx.ArticleExists(ctx, a.Title)
	if err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	}
	if exists {
		cs.Skipped++
		s.metrics.Skipped("duplicate")
		log.Debug("Article already stored", logger.String("title", a.Title))
		return nil, nil //nolint:nilnil // skipped article
	}

	src, sourceCreated, err := s.sources.Resolve(ctx, tx, uow.fileStore(), a)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	if sourceCreated {
		cs.SourcesCreated++
	}

	rec := &domain.ArticleRecord{
		Title:        a.Title,
		DisplayTitle: DisplayTitle(a.Title),
		Link:         a.Link,
		SourceID:     src.ID,
		LayoutKind:   a.LayoutKind,
		Category:     cfg.Category,
	}
	published, parseErr := ParsePublished(a.PublishedAt)
	if parseErr != nil {
		log.Warn("Unparseable publish time",
			logger.String("title", a.Title),
			logger.String("published_at", a.PublishedAt),
			logger.Error(parseErr),
		)
	}
	rec.PublishedAt = published
	if a.BodyText != "" {
		body := a.BodyText
		rec.BodyText = &body
	}

	if err = tx.CreateArticle(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			cs.Skipped++
			s.metrics.Skipped("duplicate")
			return nil, nil //nolint:nilnil // lost a race with another writer
		}
		return nil, fmt.Errorf("create article: %w", err)
	}

	if a.ImageURL != "" {
		if s.attachImage(ctx, uow, rec, a.ImageURL, log) {
			cs.Images++
		} else {
			cs.ImageFailures++
		}
	}

	return &created{article: *rec, sourceName: src.Name}, nil
}

// attachImage downloads imageURL and links it to rec. It reports success;
// failures are logged and never undo the article.
func (s *Sink) attachImage(ctx context.Context, uow unitOfWork, rec *domain.ArticleRecord, imageURL string, log logger.Logger) bool {
	if s.images == nil || uow.files == nil {
		return false
	}
	log = log.With(logger.String("article_id", rec.ID), logger.String("image_url", imageURL))

	data, contentType, err := s.images.Fetch(ctx, imageURL)
	if err != nil {
		s.metrics.ImageFailed()
		log.Warn("Image download failed", logger.Error(err))
		return false
	}
	if contentType == "" {
		contentType = defaultImageType
	}

	fileURL, err := uow.files.Attach(ctx, attachment.File{
		Name:        ImageFilename(rec.Title),
		Data:        data,
		ContentType: contentType,
		EntityKind:  attachment.EntityArticle,
		EntityID:    rec.ID,
	})
	if err != nil {
		s.metrics.ImageFailed()
		log.Warn("Image attachment failed", logger.Error(err))
		return false
	}

	if err = uow.tx.SetArticleImage(ctx, rec.ID, fileURL); err != nil {
		s.metrics.ImageFailed()
		log.Warn("Image link failed", logger.Error(err))
		return false
	}
	rec.ImageURL = fileURL
	return true
}

// announce publishes and indexes committed articles. Failures are logged.
func (s *Sink) announce(ctx context.Context, trig Trigger, committed []created, log logger.Logger) {
	for _, c := range committed {
		a := c.article
		if s.events != nil {
			err := s.events.Publish(ctx, events.ArticleEvent{
				EventType:  events.ArticleCreated,
				ArticleID:  a.ID,
				Title:      a.Title,
				Link:       a.Link,
				SourceID:   a.SourceID,
				SourceName: c.sourceName,
				Category:   a.Category,
				Trigger:    trig.Name,
				RunID:      trig.RunID,
			})
			if err != nil {
				log.Warn("Article event not published", logger.String("article_id", a.ID), logger.Error(err))
			}
		}
		if s.index != nil {
			if err := s.index.IndexArticle(ctx, a.ID, search.NewDocument(a, c.sourceName)); err != nil {
				log.Warn("Article not indexed", logger.String("article_id", a.ID), logger.Error(err))
			}
		}
	}
}
