// Package feed reads the aggregator's RSS search feed into a title to
// source lookup used to enrich listing results.
package feed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"
)

// sourceSeparator splits "Headline - Outlet" feed titles.
const sourceSeparator = " - "

// sourceNameSelector is the styled span the aggregator puts the outlet name in.
const sourceNameSelector = `font[color="#6f6f6f"]`

// SourceInfo is what the feed knows about an article's publisher.
type SourceInfo struct {
	Name string `json:"source_name"`
	URL  string `json:"source_url"`
}

// SourceMap is keyed by the article title with the outlet suffix removed.
type SourceMap map[string]SourceInfo

// ParseSourceMap parses an RSS body. Items with no title, or with neither a
// source name nor a source URL, are skipped. Duplicate titles keep the last
// item seen.
func ParseSourceMap(ctx context.Context, body io.Reader) (SourceMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parser := &rss.Parser{}
	parsed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	sources := make(SourceMap, len(parsed.Items))
	for _, item := range parsed.Items {
		title := StripSourceSuffix(item.Title)
		if title == "" {
			continue
		}

		info := SourceInfo{Name: nameFromDescription(item.Description)}
		if item.Source != nil {
			info.URL = strings.TrimSpace(item.Source.URL)
			if info.Name == "" {
				info.Name = strings.TrimSpace(item.Source.Title)
			}
		}

		if info.Name == "" && info.URL == "" {
			continue
		}
		sources[title] = info
	}

	return sources, nil
}

// StripSourceSuffix drops the final " - Outlet" segment of a feed title.
// Titles without the separator are returned as is.
func StripSourceSuffix(title string) string {
	idx := strings.LastIndex(title, sourceSeparator)
	if idx < 0 {
		return title
	}
	return title[:idx]
}

func nameFromDescription(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(doc.Find(sourceNameSelector).First().Text())
}
