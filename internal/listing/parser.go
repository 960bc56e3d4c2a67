// Package listing parses the aggregator's HTML search results page.
package listing

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/feed"
)

// Selectors for the aggregator's result markup. The class names are
// generated upstream and change occasionally.
const (
	blockSelector        = "article"
	headingSelector      = "h4"
	nestedAnchorSelector = "div > div + div > div a"
	figureSelector       = "figure"
	externalAnchor       = `a[target="_blank"]`
	moreButtonSelector   = "button"
	articleLinkSelector  = `a[href^="./article"]`
	readLinkSelector     = `a[href^="./read"]`
	imageSelector        = "figure img"
	sourceLabelSelector  = "div[data-n-tid]"
	faviconSelector      = "img.qEdqNd"
	timeSelector         = "div:last-child time"

	moreLabelPrefix = "More - "
	relativePrefix  = "./"
)

// Parser extracts RawArticles from a results page.
type Parser struct {
	origin string
}

// NewParser returns a Parser that absolutizes links against origin
// (scheme and host, no trailing slash).
func NewParser(origin string) *Parser {
	return &Parser{origin: strings.TrimRight(origin, "/")}
}

// Parse returns one RawArticle per usable result block, in document order.
// Blocks without a link, with an unknown layout or without a title are
// skipped. sources may be nil.
func (p *Parser) Parse(ctx context.Context, body io.Reader, sources feed.SourceMap) ([]domain.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var articles []domain.RawArticle
	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		article, ok := p.parseBlock(block)
		if !ok {
			return
		}
		backfill(&article, sources)
		articles = append(articles, article)
	})

	return articles, nil
}

func (p *Parser) parseBlock(block *goquery.Selection) (domain.RawArticle, bool) {
	link := p.link(block)
	if link == "" {
		return domain.RawArticle{}, false
	}

	kind := Classify(block)
	title := Title(block, kind)
	if title == "" {
		return domain.RawArticle{}, false
	}

	article := domain.RawArticle{
		Title:       title,
		Link:        link,
		ImageURL:    p.image(block),
		SourceLabel: strings.TrimSpace(block.Find(sourceLabelSelector).First().Text()),
		FaviconURL:  favicon(block),
		LayoutKind:  kind,
	}

	if t := block.Find(timeSelector).First(); t.Length() > 0 {
		article.DisplayTimeText = strings.TrimSpace(t.Text())
		article.PublishedAt = t.AttrOr("datetime", "")
	}

	return article, true
}

// Classify determines the layout of a result block.
func Classify(block *goquery.Selection) domain.LayoutKind {
	switch {
	case block.Find(headingSelector).Length() > 0 || block.Find(nestedAnchorSelector).Length() > 0:
		return domain.LayoutRegular
	case block.Find(figureSelector).Length() > 0:
		return domain.LayoutTopicFeatured
	case block.ChildrenFiltered("a").Length() > 0:
		return domain.LayoutTopicSmall
	default:
		return domain.LayoutUnknown
	}
}

// Title extracts the headline using the selectors that apply to kind.
func Title(block *goquery.Selection, kind domain.LayoutKind) string {
	switch kind {
	case domain.LayoutRegular:
		if h := block.Find(headingSelector).First(); h.Length() > 0 {
			return strings.TrimSpace(h.Text())
		}
		return strings.TrimSpace(block.Find(nestedAnchorSelector).First().Text())
	case domain.LayoutTopicFeatured, domain.LayoutTopicSmall:
		if a := block.Find(externalAnchor).First(); a.Length() > 0 {
			return strings.TrimSpace(a.Text())
		}
		label, _ := block.Find(moreButtonSelector).First().Attr("aria-label")
		return strings.TrimSpace(strings.Replace(label, moreLabelPrefix, "", 1))
	default:
		return ""
	}
}

func (p *Parser) link(block *goquery.Selection) string {
	a := block.Find(articleLinkSelector).First()
	if a.Length() == 0 {
		a = block.Find(readLinkSelector).First()
	}
	href, ok := a.Attr("href")
	if !ok {
		return ""
	}
	return strings.Replace(href, relativePrefix, p.origin+"/", 1)
}

// image prefers the second-to-last srcset token, which is the largest
// candidate URL in "url1 1x, url2 2x" style sets.
func (p *Parser) image(block *goquery.Selection) string {
	img := block.Find(imageSelector).First()
	if img.Length() == 0 {
		return ""
	}

	var src string
	if fields := strings.Fields(img.AttrOr("srcset", "")); len(fields) >= 2 {
		src = fields[len(fields)-2]
	} else {
		src = img.AttrOr("src", "")
	}

	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		src = p.origin + src
	}
	return src
}

func favicon(block *goquery.Selection) string {
	img := block.Find(faviconSelector).First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok {
		return src
	}
	if fields := strings.Fields(img.AttrOr("srcset", "")); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func backfill(article *domain.RawArticle, sources feed.SourceMap) {
	info, ok := sources[article.Title]
	if !ok {
		return
	}
	article.SourceHomepageURL = info.URL
	if article.SourceLabel == "" {
		article.SourceLabel = info.Name
	}
}
