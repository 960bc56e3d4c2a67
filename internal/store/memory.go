package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
)

// Memory is an in-process Repository. Writes staged in a Tx are applied
// atomically on Commit.
type Memory struct {
	mu       sync.RWMutex
	configs  []domain.SearchConfig
	sources  map[string]domain.SourceRecord
	articles map[string]domain.ArticleRecord
	titles   map[string]string
	names    map[string]string
	order    []string
	now      func() time.Time
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sources:  make(map[string]domain.SourceRecord),
		articles: make(map[string]domain.ArticleRecord),
		titles:   make(map[string]string),
		names:    make(map[string]string),
		now:      time.Now,
	}
}

// Close implements Repository.
func (m *Memory) Close() error { return nil }

// ListEnabledSearchConfigs implements Store.
func (m *Memory) ListEnabledSearchConfigs(_ context.Context) ([]domain.SearchConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SearchConfig, 0, len(m.configs))
	for _, c := range m.configs {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListSearchConfigs implements ConfigWriter.
func (m *Memory) ListSearchConfigs(_ context.Context) ([]domain.SearchConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.configs), nil
}

// CreateSearchConfig implements ConfigWriter.
func (m *Memory) CreateSearchConfig(_ context.Context, cfg *domain.SearchConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.CreatedAt = m.now()
	m.configs = append(m.configs, *cfg)
	return nil
}

// Sources returns a snapshot of committed sources ordered by name.
func (m *Memory) Sources() []domain.SourceRecord {
	out, _ := m.ListSources(context.Background())
	return out
}

// Articles returns a snapshot of committed articles in creation order.
func (m *Memory) Articles() []domain.ArticleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ArticleRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.articles[id])
	}
	return out
}

// ListSources implements NewsReader.
func (m *Memory) ListSources(_ context.Context) ([]domain.SourceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SourceRecord, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b domain.SourceRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// ListPublishedArticles implements NewsReader.
func (m *Memory) ListPublishedArticles(_ context.Context, f ArticleFilter) ([]domain.ArticleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(f.TitleContains)
	var out []domain.ArticleRecord
	for _, a := range m.articles {
		if a.PublishedAt == nil {
			continue
		}
		if f.SourceID != "" && a.SourceID != f.SourceID {
			continue
		}
		if !f.Since.IsZero() && a.PublishedAt.Before(f.Since) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(a.DisplayTitle), needle) {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.ArticleRecord) int {
		return b.PublishedAt.Compare(*a.PublishedAt)
	})
	return out, nil
}

// Begin implements Store.
func (m *Memory) Begin(_ context.Context) (Tx, error) {
	return &memTx{
		m:        m,
		sources:  make(map[string]domain.SourceRecord),
		articles: make(map[string]domain.ArticleRecord),
	}, nil
}

type memTx struct {
	m        *Memory
	sources  map[string]domain.SourceRecord
	articles map[string]domain.ArticleRecord
	order    []string
	done     bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memTx) ArticleExists(_ context.Context, title string) (bool, error) {
	if t.done {
		return false, errTxDone
	}
	for _, a := range t.articles {
		if a.Title == title {
			return true, nil
		}
	}

	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	_, ok := t.m.titles[title]
	return ok, nil
}

func (t *memTx) FindSourceByName(_ context.Context, name string) (*domain.SourceRecord, error) {
	if t.done {
		return nil, errTxDone
	}
	for _, s := range t.sources {
		if s.Name == name {
			return &s, nil
		}
	}

	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	id, ok := t.m.names[name]
	if !ok {
		return nil, ErrNotFound
	}
	s := t.m.sources[id]
	return &s, nil
}

func (t *memTx) CreateSource(ctx context.Context, src *domain.SourceRecord) error {
	if _, err := t.FindSourceByName(ctx, src.Name); err == nil {
		return fmt.Errorf("source %q: %w", src.Name, ErrDuplicate)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	src.CreatedAt = t.m.now()
	t.sources[src.ID] = *src
	return nil
}

func (t *memTx) UpdateSourceFavicon(_ context.Context, sourceID, faviconURL string) error {
	if t.done {
		return errTxDone
	}
	if s, ok := t.sources[sourceID]; ok {
		s.FaviconURL = faviconURL
		t.sources[sourceID] = s
		return nil
	}

	t.m.mu.RLock()
	s, ok := t.m.sources[sourceID]
	t.m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("source %s: %w", sourceID, ErrNotFound)
	}
	s.FaviconURL = faviconURL
	t.sources[sourceID] = s
	return nil
}

func (t *memTx) CreateArticle(ctx context.Context, article *domain.ArticleRecord) error {
	exists, err := t.ArticleExists(ctx, article.Title)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("article %q: %w", article.Title, ErrDuplicate)
	}
	if !t.sourceKnown(article.SourceID) {
		return fmt.Errorf("article source %s: %w", article.SourceID, ErrNotFound)
	}

	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	article.CreatedAt = t.m.now()
	t.articles[article.ID] = *article
	t.order = append(t.order, article.ID)
	return nil
}

func (t *memTx) sourceKnown(id string) bool {
	if _, ok := t.sources[id]; ok {
		return true
	}
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	_, ok := t.m.sources[id]
	return ok
}

func (t *memTx) SetArticleImage(_ context.Context, articleID, imageURL string) error {
	if t.done {
		return errTxDone
	}
	if a, ok := t.articles[articleID]; ok {
		a.ImageURL = imageURL
		t.articles[articleID] = a
		return nil
	}

	t.m.mu.RLock()
	a, ok := t.m.articles[articleID]
	t.m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("article %s: %w", articleID, ErrNotFound)
	}
	a.ImageURL = imageURL
	t.articles[articleID] = a
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	for _, a := range t.articles {
		if id, ok := t.m.titles[a.Title]; ok && id != a.ID {
			return fmt.Errorf("article %q: %w", a.Title, ErrDuplicate)
		}
	}

	for id, s := range t.sources {
		t.m.sources[id] = s
		t.m.names[s.Name] = id
	}
	t.m.order = append(t.m.order, t.order...)
	for id, a := range t.articles {
		t.m.articles[id] = a
		t.m.titles[a.Title] = id
	}
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.sources = nil
	t.articles = nil
	return nil
}
