package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const (
	searchConfigColumns = `id, search_term, result_limit, timeframe, category,
	fetch_full_content, enabled, created_at`
	sourceColumns  = `id, name, homepage_url, favicon_url, created_at`
	articleColumns = `id, title, display_title, link, source_id, published_at,
	layout_kind, category, body_text, image_url, created_at`
)

// NewPostgresConnection opens a pooled connection and verifies it with a ping.
func NewPostgresConnection(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = DefaultConnMaxLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// Postgres is the Repository backed by PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

var _ Repository = (*Postgres)(nil)

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// ListEnabledSearchConfigs implements Store.
func (p *Postgres) ListEnabledSearchConfigs(ctx context.Context) ([]domain.SearchConfig, error) {
	query := `SELECT ` + searchConfigColumns + `
		FROM news_search_configs
		WHERE enabled = TRUE
		ORDER BY created_at ASC`

	var configs []domain.SearchConfig
	if err := p.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("failed to list enabled search configs: %w", err)
	}
	return configs, nil
}

// ListSearchConfigs implements ConfigWriter.
func (p *Postgres) ListSearchConfigs(ctx context.Context) ([]domain.SearchConfig, error) {
	query := `SELECT ` + searchConfigColumns + ` FROM news_search_configs ORDER BY created_at ASC`

	var configs []domain.SearchConfig
	if err := p.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("failed to list search configs: %w", err)
	}
	return configs, nil
}

// CreateSearchConfig implements ConfigWriter.
func (p *Postgres) CreateSearchConfig(ctx context.Context, cfg *domain.SearchConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO news_search_configs (` + searchConfigColumns + `)
		VALUES (:id, :search_term, :result_limit, :timeframe, :category,
			:fetch_full_content, :enabled, :created_at)
	`
	if _, err := p.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("failed to insert search config: %w", err)
	}
	return nil
}

// ListSources implements NewsReader.
func (p *Postgres) ListSources(ctx context.Context) ([]domain.SourceRecord, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources ORDER BY name ASC`

	var sources []domain.SourceRecord
	if err := p.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// ListPublishedArticles implements NewsReader.
func (p *Postgres) ListPublishedArticles(ctx context.Context, f ArticleFilter) ([]domain.ArticleRecord, error) {
	conditions := []string{"published_at IS NOT NULL"}
	var args []any

	if f.SourceID != "" {
		args = append(args, f.SourceID)
		conditions = append(conditions, "source_id = $"+strconv.Itoa(len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conditions = append(conditions, "published_at >= $"+strconv.Itoa(len(args)))
	}
	if f.TitleContains != "" {
		args = append(args, "%"+escapeLike(f.TitleContains)+"%")
		conditions = append(conditions, "display_title ILIKE $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + articleColumns + `
		FROM news_articles
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY published_at DESC`

	var articles []domain.ArticleRecord
	if err := p.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Begin implements Store.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) ArticleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM news_articles WHERE title = $1)`
	if err := t.tx.GetContext(ctx, &exists, query, title); err != nil {
		return false, fmt.Errorf("failed to check article title: %w", err)
	}
	return exists, nil
}

func (t *pgTx) FindSourceByName(ctx context.Context, name string) (*domain.SourceRecord, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources WHERE name = $1`

	var src domain.SourceRecord
	err := t.tx.GetContext(ctx, &src, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find source: %w", err)
	}
	return &src, nil
}

func (t *pgTx) CreateSource(ctx context.Context, src *domain.SourceRecord) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	src.CreatedAt = time.Now().UTC()

	// ON CONFLICT keeps the transaction usable when another writer won.
	query := `
		INSERT INTO news_sources (id, name, homepage_url, favicon_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING
	`
	result, err := t.tx.ExecContext(ctx, query, src.ID, src.Name, src.HomepageURL, src.FaviconURL, src.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", mapPQError(err))
	}
	return execRequireRows(result, nil, fmt.Errorf("source %q: %w", src.Name, ErrDuplicate))
}

func (t *pgTx) UpdateSourceFavicon(ctx context.Context, sourceID, faviconURL string) error {
	query := `UPDATE news_sources SET favicon_url = $2 WHERE id = $1`

	result, err := t.tx.ExecContext(ctx, query, sourceID, faviconURL)
	return execRequireRows(result, err, fmt.Errorf("source %s: %w", sourceID, ErrNotFound))
}

func (t *pgTx) CreateArticle(ctx context.Context, article *domain.ArticleRecord) error {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	article.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO news_articles (` + articleColumns + `)
		VALUES (:id, :title, :display_title, :link, :source_id, :published_at,
			:layout_kind, :category, :body_text, :image_url, :created_at)
		ON CONFLICT (title) DO NOTHING
	`
	result, err := t.tx.NamedExecContext(ctx, query, article)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", mapPQError(err))
	}
	return execRequireRows(result, nil, fmt.Errorf("article %q: %w", article.Title, ErrDuplicate))
}

func (t *pgTx) SetArticleImage(ctx context.Context, articleID, imageURL string) error {
	query := `UPDATE news_articles SET image_url = $2 WHERE id = $1`

	result, err := t.tx.ExecContext(ctx, query, articleID, imageURL)
	return execRequireRows(result, err, fmt.Errorf("article %s: %w", articleID, ErrNotFound))
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// execRequireRows validates that an ExecContext result affected at least one row.
// Returns err if non-nil, or noRowsErr if rowsAffected is 0.
func execRequireRows(result sql.Result, err, noRowsErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return noRowsErr
	}
	return nil
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
