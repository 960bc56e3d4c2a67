// Package domain holds the records that flow through the news pipeline.
package domain

import "time"

// LayoutKind is the structural variant of a listing result block.
type LayoutKind string

const (
	LayoutRegular       LayoutKind = "regular"
	LayoutTopicFeatured LayoutKind = "topic-featured"
	LayoutTopicSmall    LayoutKind = "topic-small"
	LayoutUnknown       LayoutKind = "unknown"
)

// RawArticle is one scraped result before persistence. Only Title and Link
// are guaranteed non-empty once the listing parser emits it.
type RawArticle struct {
	Title             string     `json:"title"`
	Link              string     `json:"link"`
	ImageURL          string     `json:"image_url,omitempty"`
	SourceLabel       string     `json:"source_label,omitempty"`
	SourceHomepageURL string     `json:"source_homepage_url,omitempty"`
	FaviconURL        string     `json:"favicon_url,omitempty"`
	PublishedAt       string     `json:"published_at,omitempty"`
	DisplayTimeText   string     `json:"display_time_text,omitempty"`
	LayoutKind        LayoutKind `json:"layout_kind"`
	BodyText          string     `json:"body_text,omitempty"`
}

// ArticleRecord is a persisted article. Title is unique across all records.
type ArticleRecord struct {
	ID           string     `db:"id"            json:"id"`
	Title        string     `db:"title"         json:"title"`
	DisplayTitle string     `db:"display_title" json:"display_title"`
	Link         string     `db:"link"          json:"link"`
	SourceID     string     `db:"source_id"     json:"source_id"`
	PublishedAt  *time.Time `db:"published_at"  json:"published_at,omitempty"`
	LayoutKind   LayoutKind `db:"layout_kind"   json:"layout_kind"`
	Category     string     `db:"category"      json:"category"`
	BodyText     *string    `db:"body_text"     json:"body_text,omitempty"`
	ImageURL     string     `db:"image_url"     json:"image_url,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
}

// SourceRecord is a persisted publisher. Name is unique.
type SourceRecord struct {
	ID          string    `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	HomepageURL string    `db:"homepage_url" json:"homepage_url,omitempty"`
	FaviconURL  string    `db:"favicon_url"  json:"favicon_url,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}
