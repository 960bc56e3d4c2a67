package attachment

import (
	"context"
	"errors"
	"sync"
)

// Batch records the files attached through it so they can be removed when
// the records referencing them are rolled back.
type Batch struct {
	store Store

	mu    sync.Mutex
	files []File
}

// NewBatch wraps store.
func NewBatch(store Store) *Batch {
	return &Batch{store: store}
}

// Attach implements Store.
func (b *Batch) Attach(ctx context.Context, f File) (string, error) {
	fileURL, err := b.store.Attach(ctx, f)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.files = append(b.files, File{Name: f.Name, EntityKind: f.EntityKind, EntityID: f.EntityID, Private: f.Private})
	b.mu.Unlock()
	return fileURL, nil
}

// Remove implements Store.
func (b *Batch) Remove(ctx context.Context, f File) error {
	return b.store.Remove(ctx, f)
}

// Len returns the number of files attached since the last Discard.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// Discard removes every recorded file. All removals are attempted.
func (b *Batch) Discard(ctx context.Context) error {
	b.mu.Lock()
	files := b.files
	b.files = nil
	b.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := b.store.Remove(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
