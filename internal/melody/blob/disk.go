package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores objects as plain files under a root directory. The content
// type is recovered from the key's extension on Open; keys map onto the
// filesystem after sanitisation, so a hostile key cannot escape the root.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed and returns a Disk store.
func NewDisk(root string) (*Disk, error) {
	const op = "blob/NewDisk"

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Save(ctx context.Context, key string, contentType string, r io.Reader) error {
	const op = "blob/disk/Save"

	p, err := d.resolve(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (d *Disk) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	const op = "blob/disk/Open"

	p, err := d.resolve(key)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	ct := mime.TypeByExtension(filepath.Ext(p))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}

func (d *Disk) Remove(ctx context.Context, key string) error {
	const op = "blob/disk/Remove"

	p, err := d.resolve(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// resolve maps a key onto a path under the root and rejects traversal.
func (d *Disk) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.root, clean), nil
}
