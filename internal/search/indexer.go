// Package search indexes created articles into Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// DefaultIndex is used when no index name is configured.
const DefaultIndex = "news_articles"

const indexTimeout = 10 * time.Second

const articleMapping = `{
  "mappings": {
    "properties": {
      "title":         {"type": "text"},
      "display_title": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "link":          {"type": "keyword"},
      "source_id":     {"type": "keyword"},
      "source_name":   {"type": "keyword"},
      "category":      {"type": "keyword"},
      "layout_kind":   {"type": "keyword"},
      "body_text":     {"type": "text"},
      "image_url":     {"type": "keyword", "index": false},
      "published_at":  {"type": "date"},
      "created_at":    {"type": "date"}
    }
  }
}`

// Document is the indexed form of an article.
type Document struct {
	Title        string     `json:"title"`
	DisplayTitle string     `json:"display_title"`
	Link         string     `json:"link"`
	SourceID     string     `json:"source_id"`
	SourceName   string     `json:"source_name"`
	Category     string     `json:"category,omitempty"`
	LayoutKind   string     `json:"layout_kind"`
	BodyText     string     `json:"body_text,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewDocument builds the document for a persisted article.
func NewDocument(a domain.ArticleRecord, sourceName string) Document {
	doc := Document{
		Title:        a.Title,
		DisplayTitle: a.DisplayTitle,
		Link:         a.Link,
		SourceID:     a.SourceID,
		SourceName:   sourceName,
		Category:     a.Category,
		LayoutKind:   string(a.LayoutKind),
		ImageURL:     a.ImageURL,
		PublishedAt:  a.PublishedAt,
		CreatedAt:    a.CreatedAt,
	}
	if a.BodyText != nil {
		doc.BodyText = *a.BodyText
	}
	return doc
}

// NewClient creates an Elasticsearch client from configuration.
func NewClient(cfg config.ElasticsearchConfig) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// Indexer writes article documents. A nil *Indexer is a no-op.
type Indexer struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewIndexer returns nil when client is nil.
func NewIndexer(client *es.Client, index string, log logger.Logger) *Indexer {
	if client == nil {
		return nil
	}
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index, log: log.With(logger.Component("search"))}
}

// EnsureIndex creates the index with its mapping when it is missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	if i == nil {
		return nil
	}

	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: unexpected status %d", i.index, res.StatusCode)
	}

	res, err = i.client.Indices.Create(
		i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(articleMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if err = responseError(res); err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}

	i.log.Info("Created search index", logger.String("index", i.index))
	return nil
}

// IndexArticle indexes doc under id.
func (i *Indexer) IndexArticle(ctx context.Context, id string, doc Document) error {
	if i == nil {
		return nil
	}
	if id == "" {
		return errors.New("document id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for indexing: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if err = responseError(res); err != nil {
		return fmt.Errorf("failed to index document %s: %w", id, err)
	}

	i.log.Debug("Document indexed",
		logger.String("index", i.index),
		logger.String("doc_id", id),
	)
	return nil
}

const maxErrorBody = 4 << 10

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return fmt.Errorf("elasticsearch status %d: %s", res.StatusCode, bytes.TrimSpace(msg))
}
