// Package content downloads publisher pages and extracts cleaned article text.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloudflare/ahocorasick"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// Status explains the outcome of an extraction. Only StatusExtracted carries text.
type Status string

const (
	StatusExtracted   Status = "extracted"
	StatusEmpty       Status = "empty"
	StatusBlocked     Status = "blocked"
	StatusTooShort    Status = "too_short"
	StatusRateLimited Status = "rate_limited"
	StatusFailed      Status = "failed"
)

const maxPageBytes = 10 << 20

// blockSelector lists the elements that become one line of text each.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

var verificationPhrases = []string{
	"you are human",
	"are you human",
	"i'm not a robot",
	"recaptcha",
}

// errRateLimited marks a 429 answer from the publisher.
var errRateLimited = errors.New("rate limited")

// Result is the outcome of Extract.
type Result struct {
	Text     string
	Status   Status
	Attempts int
	Err      error
}

// OK reports whether text was extracted.
func (r Result) OK() bool {
	return r.Status == StatusExtracted
}

// Config tunes pacing and quality thresholds.
type Config struct {
	BaseDelay   time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration
	MaxAttempts int
	MinWords    int
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.BaseDelay == 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.JitterMin == 0 && c.JitterMax == 0 {
		c.JitterMin, c.JitterMax = time.Second, 3*time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MinWords <= 0 {
		c.MinWords = 100
	}
	return c
}

// Extractor fetches one article at a time, pausing before every attempt so
// publishers do not rate limit the run.
type Extractor struct {
	client   *http.Client
	cfg      Config
	log      logger.Logger
	policy   *bluemonday.Policy
	verifier *ahocorasick.Matcher
	sleep    func(context.Context, time.Duration) error
	jitter   func(lo, hi time.Duration) time.Duration
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithSleep replaces the pause implementation. Tests record delays with it.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(e *Extractor) { e.sleep = fn }
}

// WithJitter replaces the random delay source.
func WithJitter(fn func(lo, hi time.Duration) time.Duration) Option {
	return func(e *Extractor) { e.jitter = fn }
}

// NewExtractor creates an Extractor.
func NewExtractor(client *http.Client, cfg Config, log logger.Logger, opts ...Option) *Extractor {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "blockquote", "pre", "br")

	e := &Extractor{
		client:   client,
		cfg:      cfg.WithDefaults(),
		log:      log.With(logger.Component("content")),
		policy:   policy,
		verifier: ahocorasick.NewStringMatcher(verificationPhrases),
		sleep:    sleepContext,
		jitter:   uniformJitter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract downloads pageURL and returns its cleaned body text. A nil cleaner
// uses the built-in blocklist.
func (e *Extractor) Extract(ctx context.Context, pageURL string, cleaner *Cleaner) Result {
	if cleaner == nil {
		cleaner = NewCleaner()
	}

	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if err := e.sleep(ctx, e.cfg.BaseDelay+e.jitter(e.cfg.JitterMin, e.cfg.JitterMax)); err != nil {
			return Result{Status: StatusFailed, Attempts: attempt, Err: err}
		}

		page, finalURL, err := e.download(ctx, pageURL)
		if errors.Is(err, errRateLimited) {
			lastErr = err
			if attempt < e.cfg.MaxAttempts-1 {
				wait := e.cfg.BaseDelay * time.Duration(attempt+2)
				e.log.Info("Rate limited, backing off",
					logger.String("url", pageURL),
					logger.Int("attempt", attempt+1),
					logger.Duration("wait", wait),
				)
				if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
					return Result{Status: StatusFailed, Attempts: attempt + 1, Err: sleepErr}
				}
				continue
			}
			break
		}
		if err != nil {
			e.log.Debug("Article download failed", logger.String("url", pageURL), logger.Error(err))
			return Result{Status: StatusFailed, Attempts: attempt + 1, Err: err}
		}

		res := e.evaluate(page, finalURL, cleaner)
		res.Attempts = attempt + 1
		if !res.OK() {
			e.log.Debug("Article content rejected",
				logger.String("url", pageURL),
				logger.String("status", string(res.Status)),
			)
		}
		return res
	}

	return Result{Status: StatusRateLimited, Attempts: e.cfg.MaxAttempts, Err: lastErr}
}

func (e *Extractor) download(ctx context.Context, pageURL string) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("get %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", pageURL, err)
	}

	return body, resp.Request.URL, nil
}

func (e *Extractor) evaluate(page []byte, pageURL *url.URL, cleaner *Cleaner) Result {
	article, err := readability.FromReader(bytes.NewReader(page), pageURL)
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("readability: %w", err)}
	}

	text := e.lines(article.Content)
	if text == "" {
		text = strings.TrimSpace(article.TextContent)
	}
	if text == "" {
		return Result{Status: StatusEmpty}
	}

	if len(e.verifier.Match([]byte(strings.ToLower(text)))) > 0 {
		return Result{Status: StatusBlocked}
	}

	cleaned := cleaner.Clean(text)
	if WordCount(cleaned) < e.cfg.MinWords {
		return Result{Status: StatusTooShort}
	}

	return Result{Text: cleaned, Status: StatusExtracted}
}

// lines sanitizes readability's HTML down to text blocks and returns one
// line per innermost block.
func (e *Extractor) lines(articleHTML string) string {
	safe := e.policy.Sanitize(articleHTML)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(safe))
	if err != nil {
		return ""
	}

	var out []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if line := strings.Join(strings.Fields(s.Text()), " "); line != "" {
			out = append(out, line)
		}
	})
	return strings.Join(out, "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}
