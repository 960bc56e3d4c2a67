// Package testutil provides a fake news aggregator for pipeline tests.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"
)

// Block is one result rendered on the fake listing page.
type Block struct {
	Title string
	// ID becomes the link path: ./read/{ID} when Redirect is set, else ./articles/{ID}.
	ID          string
	Redirect    bool
	Source      string
	Image       bool
	PublishedAt string
}

// FeedItem is one RSS item on the fake feed.
type FeedItem struct {
	Title      string
	SourceName string
	SourceURL  string
}

// Aggregator serves a listing page, an RSS feed, redirect references,
// article pages, images and favicons. Article pages are served both under
// /articles/ and under /story/, where redirect references land.
type Aggregator struct {
	*httptest.Server

	Blocks    []Block
	FeedItems []FeedItem

	mu            sync.Mutex
	requests      []*http.Request
	listingStatus int
	brokenImages  bool
}

// PNG is a 1x1 transparent image.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// NewAggregator starts the fake and registers cleanup on t.
func NewAggregator(t *testing.T, blocks []Block, items []FeedItem) *Aggregator {
	t.Helper()

	a := &Aggregator{Blocks: blocks, FeedItems: items}
	mux := http.NewServeMux()
	mux.HandleFunc("/search", a.listing)
	mux.HandleFunc("/rss/search", a.feed)
	mux.HandleFunc("/read/", a.redirect)
	mux.HandleFunc("/story/", a.story)
	mux.HandleFunc("/articles/", a.story)
	mux.HandleFunc("/img/", a.image)
	mux.HandleFunc("/s2/favicons", a.favicon)

	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, r.Clone(r.Context()))
		a.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(a.Close)
	return a
}

// Requests returns the requests received whose path starts with prefix.
func (a *Aggregator) Requests(prefix string) []*http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*http.Request
	for _, r := range a.requests {
		if strings.HasPrefix(r.URL.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// FailListing makes the listing endpoint answer with status.
func (a *Aggregator) FailListing(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listingStatus = status
}

// BreakImages makes image downloads fail with a 500.
func (a *Aggregator) BreakImages() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.brokenImages = true
}

// StoryURL is where the redirect reference for id lands.
func (a *Aggregator) StoryURL(id string) string {
	return a.URL + "/story/" + id
}

// ArticlePage renders a publisher page with paragraphs long paragraphs.
func ArticlePage(title string, paragraphs int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><article><h1>%s</h1>",
		html.EscapeString(title), html.EscapeString(title))
	for i := 1; i <= paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d explains how the project will add homes, shops and a public "+
			"promenade along the northern edge of the bay over the next three years.</p>", i)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func (a *Aggregator) listing(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	status := a.listingStatus
	a.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	var b strings.Builder
	b.WriteString("<!doctype html><html><body><main>")
	for i, blk := range a.Blocks {
		b.WriteString("<article>")
		if blk.Image {
			fmt.Fprintf(&b, `<figure><img src="/img/%d.jpg"></figure>`, i)
		}
		fmt.Fprintf(&b, `<div><img class="qEdqNd" src="%s/fav/%d.png"><div data-n-tid="1">%s</div></div>`,
			a.URL, i, html.EscapeString(blk.Source))
		fmt.Fprintf(&b, "<h4>%s</h4>", html.EscapeString(blk.Title))
		prefix := "./articles/"
		if blk.Redirect {
			prefix = "./read/"
		}
		fmt.Fprintf(&b, `<a href="%s%s">open</a>`, prefix, url.PathEscape(blk.ID))
		if blk.PublishedAt != "" {
			fmt.Fprintf(&b, `<div><time datetime="%s">recently</time></div>`, blk.PublishedAt)
		}
		b.WriteString("</article>")
	}
	b.WriteString("</main></body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (a *Aggregator) feed(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>results</title>`)
	for _, it := range a.FeedItems {
		desc := html.EscapeString(fmt.Sprintf(`<a href="#">%s</a>&nbsp;<font color="#6f6f6f">%s</font>`,
			html.EscapeString(it.Title), html.EscapeString(it.SourceName)))
		fmt.Fprintf(&b, `<item><title>%s</title><description>%s</description><source url="%s">%s</source></item>`,
			html.EscapeString(it.Title+" - "+it.SourceName), desc,
			html.EscapeString(it.SourceURL), html.EscapeString(it.SourceName))
	}
	b.WriteString("</channel></rss>")

	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = w.Write([]byte(b.String()))
}

func (a *Aggregator) redirect(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/read/")
	w.Header().Set("Location", a.StoryURL(id))
	w.WriteHeader(http.StatusFound)
}

func (a *Aggregator) story(w http.ResponseWriter, r *http.Request) {
	id := path.Base(r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(ArticlePage("Story "+id, 6)))
}

func (a *Aggregator) image(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	broken := a.brokenImages
	a.mu.Unlock()
	if broken {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(PNG)
}

func (a *Aggregator) favicon(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(PNG)
}
