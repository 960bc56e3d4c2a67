package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxDownload caps Download bodies.
const DefaultMaxDownload = 10 << 20

// ErrTooLarge is returned when a body exceeds the download limit.
var ErrTooLarge = errors.New("response body too large")

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Download GETs rawURL and returns the body and its Content-Type. Bodies
// larger than limit bytes fail with ErrTooLarge; limit <= 0 uses
// DefaultMaxDownload.
func Download(ctx context.Context, client *http.Client, rawURL string, limit int64) ([]byte, string, error) {
	if limit <= 0 {
		limit = DefaultMaxDownload
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("GET %s: %w", rawURL, ErrTooLarge)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
