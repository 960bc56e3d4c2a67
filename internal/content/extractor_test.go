package content_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/content"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

const baseDelay = 2 * time.Second

// sleepRecorder captures requested pauses instead of sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func articlePage(paragraphs int, extra ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Waterfront towers</title></head><body><article><h1>Waterfront towers</h1>")
	for i := 1; i <= paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d of the development report explains how the new waterfront towers "+
			"will add homes, shops and a public promenade along the northern edge of the bay.</p>", i)
	}
	for _, p := range extra {
		fmt.Fprintf(&b, "<p>%s</p>", p)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func newExtractor(t *testing.T, srv *httptest.Server, rec *sleepRecorder) *content.Extractor {
	t.Helper()

	return content.NewExtractor(
		srv.Client(),
		content.Config{BaseDelay: baseDelay, JitterMin: time.Second, JitterMax: 3 * time.Second},
		logger.NewNop(),
		content.WithSleep(rec.sleep),
		content.WithJitter(func(lo, _ time.Duration) time.Duration { return lo }),
	)
}

func TestExtract_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(6,
			"Subscribe now to receive the weekly property newsletter in your inbox",
			"Photo: archive",
		)))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	res := newExtractor(t, srv, rec).Extract(context.Background(), srv.URL+"/story", nil)

	require.True(t, res.OK(), "status %s err %v", res.Status, res.Err)
	assert.Equal(t, 1, res.Attempts)
	assert.Contains(t, res.Text, "Paragraph 1 of the development report")
	assert.Contains(t, res.Text, "Paragraph 6 of the development report")
	assert.NotContains(t, strings.ToLower(res.Text), "subscribe now")
	assert.NotContains(t, res.Text, "Photo: archive")
	assert.GreaterOrEqual(t, content.WordCount(res.Text), 100)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.recorded())
}

func TestExtract_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(articlePage(6)))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	res := newExtractor(t, srv, rec).Extract(context.Background(), srv.URL, nil)

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{
		3 * time.Second, 4 * time.Second,
		3 * time.Second, 6 * time.Second,
		3 * time.Second,
	}, rec.recorded())
}

func TestExtract_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	res := newExtractor(t, srv, &sleepRecorder{}).Extract(context.Background(), srv.URL, nil)

	assert.Equal(t, content.StatusRateLimited, res.Status)
	assert.Empty(t, res.Text)
	assert.EqualValues(t, 3, calls.Load())
}

func TestExtract_OtherErrorsDoNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := newExtractor(t, srv, &sleepRecorder{}).Extract(context.Background(), srv.URL, nil)

	assert.Equal(t, content.StatusFailed, res.Status)
	assert.Error(t, res.Err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestExtract_RejectsVerificationWall(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(6,
			"Before you continue reading we need to confirm that you are human and not an automated visitor",
		)))
	}))
	defer srv.Close()

	res := newExtractor(t, srv, &sleepRecorder{}).Extract(context.Background(), srv.URL, nil)

	assert.Equal(t, content.StatusBlocked, res.Status)
	assert.Empty(t, res.Text)
}

func TestExtract_RejectsShortText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(2)))
	}))
	defer srv.Close()

	res := newExtractor(t, srv, &sleepRecorder{}).Extract(context.Background(), srv.URL, nil)

	assert.Equal(t, content.StatusTooShort, res.Status)
	assert.Empty(t, res.Text)
}

func TestExtract_FilterWordsCanEmptyTheText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(6)))
	}))
	defer srv.Close()

	res := newExtractor(t, srv, &sleepRecorder{}).
		Extract(context.Background(), srv.URL, content.NewCleaner("public promenade"))

	assert.Equal(t, content.StatusTooShort, res.Status)
}

func TestExtract_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(6)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := content.NewExtractor(srv.Client(), content.Config{BaseDelay: time.Millisecond}, logger.NewNop())
	res := e.Extract(ctx, srv.URL, nil)

	assert.Equal(t, content.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
}
