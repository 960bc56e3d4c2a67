package attachment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Disk writes attachments below a local directory.
type Disk struct {
	dir     string
	baseURL string
}

// NewDisk returns a Disk rooted at dir. Returned URLs are baseURL joined with
// the file's relative key.
func NewDisk(dir, baseURL string) *Disk {
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Attach implements Store.
func (d *Disk) Attach(ctx context.Context, f File) (string, error) {
	if err := f.validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := f.key()
	target := filepath.Join(d.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close attachment: %w", err)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return "", fmt.Errorf("chmod attachment: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}

	return d.baseURL + "/" + escapeKey(key), nil
}

// Remove implements Store.
func (d *Disk) Remove(_ context.Context, f File) error {
	if err := f.validateOwner(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.dir, filepath.FromSlash(f.key())))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
