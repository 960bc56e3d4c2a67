package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

func createArticle(t *testing.T, tx store.Tx, title, sourceID string, published *time.Time) *domain.ArticleRecord {
	t.Helper()

	a := &domain.ArticleRecord{Title: title, DisplayTitle: title, SourceID: sourceID, PublishedAt: published}
	require.NoError(t, tx.CreateArticle(context.Background(), a))
	return a
}

func TestMemory_CommitMakesWritesVisible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	src := &domain.SourceRecord{Name: "Gulf News"}
	require.NoError(t, tx.CreateSource(ctx, src))
	createArticle(t, tx, "Towers rise", src.ID, nil)

	exists, err := tx.ArticleExists(ctx, "Towers rise")
	require.NoError(t, err)
	assert.True(t, exists, "staged article is visible inside its unit of work")
	assert.Empty(t, m.Articles(), "nothing is visible before commit")

	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())

	assert.Len(t, m.Articles(), 1)
	assert.Len(t, m.Sources(), 1)
}

func TestMemory_RollbackDiscardsWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	src := &domain.SourceRecord{Name: "Gulf News"}
	require.NoError(t, tx.CreateSource(ctx, src))
	createArticle(t, tx, "Towers rise", src.ID, nil)
	require.NoError(t, tx.Rollback())

	assert.Empty(t, m.Articles())
	assert.Empty(t, m.Sources())
	assert.Error(t, tx.Commit())
}

func TestMemory_Uniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	src := &domain.SourceRecord{Name: "Gulf News"}
	require.NoError(t, tx.CreateSource(ctx, src))
	createArticle(t, tx, "Towers rise", src.ID, nil)
	require.NoError(t, tx.Commit())

	tx, err = m.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = tx.CreateSource(ctx, &domain.SourceRecord{Name: "Gulf News"})
	require.ErrorIs(t, err, store.ErrDuplicate)

	err = tx.CreateArticle(ctx, &domain.ArticleRecord{Title: "Towers rise", SourceID: src.ID})
	require.ErrorIs(t, err, store.ErrDuplicate)

	err = tx.CreateArticle(ctx, &domain.ArticleRecord{Title: "Orphan", SourceID: "nope"})
	require.ErrorIs(t, err, store.ErrNotFound)

	found, err := tx.FindSourceByName(ctx, "Gulf News")
	require.NoError(t, err)
	assert.Equal(t, src.ID, found.ID)

	_, err = tx.FindSourceByName(ctx, "gulf news")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_UpdatesAfterCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	src := &domain.SourceRecord{Name: "Gulf News"}
	require.NoError(t, tx.CreateSource(ctx, src))
	a := createArticle(t, tx, "Towers rise", src.ID, nil)
	require.NoError(t, tx.SetArticleImage(ctx, a.ID, "/files/Towers_rise.jpg"))
	require.NoError(t, tx.UpdateSourceFavicon(ctx, src.ID, "/files/gulfnews_com_favicon.png"))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "/files/Towers_rise.jpg", m.Articles()[0].ImageURL)
	assert.Equal(t, "/files/gulfnews_com_favicon.png", m.Sources()[0].FaviconURL)

	tx, err = m.Begin(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, tx.SetArticleImage(ctx, "missing", "x"), store.ErrNotFound)
	require.ErrorIs(t, tx.UpdateSourceFavicon(ctx, "missing", "x"), store.ErrNotFound)
	require.NoError(t, tx.UpdateSourceFavicon(ctx, src.ID, "/files/new.png"))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "/files/new.png", m.Sources()[0].FaviconURL)
	assert.Len(t, m.Articles(), 1)
}

func TestMemory_ListPublishedArticles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()
	day := func(d int) *time.Time {
		ts := time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
		return &ts
	}

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	gulf := &domain.SourceRecord{Name: "Gulf News"}
	arabian := &domain.SourceRecord{Name: "Arabian Business"}
	require.NoError(t, tx.CreateSource(ctx, gulf))
	require.NoError(t, tx.CreateSource(ctx, arabian))
	createArticle(t, tx, "Marina towers approved", gulf.ID, day(2))
	createArticle(t, tx, "Rents climb in Marina", arabian.ID, day(5))
	createArticle(t, tx, "Villa prices steady", gulf.ID, day(9))
	createArticle(t, tx, "Undated story", gulf.ID, nil)
	require.NoError(t, tx.Commit())

	all, err := m.ListPublishedArticles(ctx, store.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Villa prices steady", all[0].Title)
	assert.Equal(t, "Marina towers approved", all[2].Title)

	marina, err := m.ListPublishedArticles(ctx, store.ArticleFilter{TitleContains: "MARINA"})
	require.NoError(t, err)
	assert.Len(t, marina, 2)

	recentGulf, err := m.ListPublishedArticles(ctx, store.ArticleFilter{SourceID: gulf.ID, Since: *day(3)})
	require.NoError(t, err)
	require.Len(t, recentGulf, 1)
	assert.Equal(t, "Villa prices steady", recentGulf[0].Title)

	sources, err := m.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Arabian Business", sources[0].Name)
}

func TestMemory_SearchConfigs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.CreateSearchConfig(ctx, &domain.SearchConfig{SearchTerm: "real estate", Enabled: true}))
	require.NoError(t, m.CreateSearchConfig(ctx, &domain.SearchConfig{SearchTerm: "paused", Enabled: false}))

	all, err := m.ListSearchConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabled, err := m.ListEnabledSearchConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "real estate", enabled[0].SearchTerm)
	assert.NotEmpty(t, enabled[0].ID)
}
