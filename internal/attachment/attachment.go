// Package attachment stores downloaded files (article images, favicons) and
// returns the URL they are served from.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Entity kinds files are attached to.
const (
	EntityArticle = "article"
	EntitySource  = "source"
)

// File is one attachment.
type File struct {
	Name        string
	Data        []byte
	ContentType string
	EntityKind  string
	EntityID    string
	Private     bool
}

// Store persists files.
type Store interface {
	// Attach writes f and returns its URL.
	Attach(ctx context.Context, f File) (string, error)
	// Remove deletes a previously attached file. Missing files are not an error.
	Remove(ctx context.Context, f File) error
}

// ErrInvalidFile is returned for files missing a name, data or owner.
var ErrInvalidFile = errors.New("invalid attachment")

func (f File) validate() error {
	if err := f.validateOwner(); err != nil {
		return err
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidFile, f.Name)
	}
	return nil
}

// validateOwner checks everything key depends on.
func (f File) validateOwner() error {
	switch {
	case f.Name == "" || strings.ContainsAny(f.Name, `/\`) || f.Name == "." || f.Name == "..":
		return fmt.Errorf("%w: bad name %q", ErrInvalidFile, f.Name)
	case f.EntityKind == "" || f.EntityID == "":
		return fmt.Errorf("%w: %s has no owner", ErrInvalidFile, f.Name)
	}
	return nil
}

// key is the storage-relative location of f.
func (f File) key() string {
	visibility := "public"
	if f.Private {
		visibility = "private"
	}
	return path.Join(visibility, f.EntityKind, f.EntityID, f.Name)
}

func (f File) contentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return "application/octet-stream"
}
