package attachment_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/attachment"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

func TestDisk_Attach(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := attachment.NewDisk(dir, "/files/")

	fileURL, err := d.Attach(context.Background(), attachment.File{
		Name:        "Towers_rise.jpg",
		Data:        []byte("jpeg"),
		ContentType: "image/jpeg",
		EntityKind:  attachment.EntityArticle,
		EntityID:    "a-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "/files/public/article/a-1/Towers_rise.jpg", fileURL)

	data, err := os.ReadFile(filepath.Join(dir, "public", "article", "a-1", "Towers_rise.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestDisk_AttachPrivateAndEscaped(t *testing.T) {
	t.Parallel()

	d := attachment.NewDisk(t.TempDir(), "/files")

	fileURL, err := d.Attach(context.Background(), attachment.File{
		Name:       "عقارات دبي.jpg",
		Data:       []byte("x"),
		EntityKind: attachment.EntityArticle,
		EntityID:   "a-2",
		Private:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/files/private/article/a-2/"+url.PathEscape("عقارات دبي.jpg"), fileURL)
}

func TestDisk_AttachRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	d := attachment.NewDisk(t.TempDir(), "/files")
	ctx := context.Background()

	tests := []struct {
		name string
		file attachment.File
	}{
		{"no name", attachment.File{Data: []byte("x"), EntityKind: "article", EntityID: "1"}},
		{"path in name", attachment.File{Name: "../x.jpg", Data: []byte("x"), EntityKind: "article", EntityID: "1"}},
		{"empty data", attachment.File{Name: "x.jpg", EntityKind: "article", EntityID: "1"}},
		{"no owner", attachment.File{Name: "x.jpg", Data: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := d.Attach(ctx, tt.file)
			require.ErrorIs(t, err, attachment.ErrInvalidFile)
		})
	}
}

// fakeS3 accepts bucket HEAD and object PUT and DELETE requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headers map[string]http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		f.mu.Lock()
		delete(f.objects, r.URL.Path)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.URL.Path] = body
		f.headers[r.URL.Path] = r.Header.Clone()
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestMinIO_Attach(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string][]byte{}, headers: map[string]http.Header{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	endpoint, err := url.Parse(srv.URL)
	require.NoError(t, err)

	m, err := attachment.NewMinIO(config.MinIOConfig{
		Endpoint:  endpoint.Host,
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "newsdesk",
	}, "https://cdn.example/newsdesk", logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.EnsureBucket(context.Background()))

	fileURL, err := m.Attach(context.Background(), attachment.File{
		Name:        "gulfnews_com_favicon.png",
		Data:        []byte("png"),
		ContentType: "image/png",
		EntityKind:  attachment.EntitySource,
		EntityID:    "s-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/newsdesk/public/source/s-1/gulfnews_com_favicon.png", fileURL)

	fake.mu.Lock()
	key := "/newsdesk/public/source/s-1/gulfnews_com_favicon.png"
	// Plain-HTTP uploads use a chunked signed payload, so only check containment.
	assert.Contains(t, string(fake.objects[key]), "png")
	assert.Equal(t, "image/png", fake.headers[key].Get("Content-Type"))
	assert.Equal(t, "source", fake.headers[key].Get("X-Amz-Meta-Entity-Kind"))
	fake.mu.Unlock()

	require.NoError(t, m.Remove(context.Background(), attachment.File{
		Name:       "gulfnews_com_favicon.png",
		EntityKind: attachment.EntitySource,
		EntityID:   "s-1",
	}))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.NotContains(t, fake.objects, key)
}

func TestNewMinIO_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := attachment.NewMinIO(config.MinIOConfig{Endpoint: "localhost:9000"}, "", logger.NewNop())
	require.Error(t, err)
}

func TestBatch_DiscardRemovesAttachedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	batch := attachment.NewBatch(attachment.NewDisk(dir, "/files"))

	for _, f := range []attachment.File{
		{Name: "Towers_rise.jpg", Data: []byte("jpeg"), EntityKind: attachment.EntityArticle, EntityID: "a-1"},
		{Name: "gulfnews_com_favicon.png", Data: []byte("png"), EntityKind: attachment.EntitySource, EntityID: "s-1"},
	} {
		_, err := batch.Attach(ctx, f)
		require.NoError(t, err)
	}
	_, err := batch.Attach(ctx, attachment.File{Name: "empty.jpg", EntityKind: attachment.EntityArticle, EntityID: "a-2"})
	require.ErrorIs(t, err, attachment.ErrInvalidFile)
	assert.Equal(t, 2, batch.Len())

	articleImage := filepath.Join(dir, "public", "article", "a-1", "Towers_rise.jpg")
	_, err = os.Stat(articleImage)
	require.NoError(t, err)

	require.NoError(t, batch.Discard(ctx))
	assert.Equal(t, 0, batch.Len())

	_, err = os.Stat(articleImage)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(dir, "public", "source", "s-1", "gulfnews_com_favicon.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, batch.Discard(ctx), "discarding twice is a no-op")
}

func TestDisk_RemoveMissingFile(t *testing.T) {
	t.Parallel()

	d := attachment.NewDisk(t.TempDir(), "/files")
	err := d.Remove(context.Background(), attachment.File{Name: "gone.jpg", EntityKind: attachment.EntityArticle, EntityID: "a-1"})
	require.NoError(t, err)

	err = d.Remove(context.Background(), attachment.File{Name: "../gone.jpg", EntityKind: attachment.EntityArticle, EntityID: "a-1"})
	require.ErrorIs(t, err, attachment.ErrInvalidFile)
}
