package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a Remote backed by a local directory, typically a mounted FTP drop.
type Dir struct {
	root string
}

// NewDir constructs Dir, creating root when missing.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("transfer: directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("transfer: create %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(name string) (string, error) {
	clean := filepath.Base(name)
	if clean != name || clean == "." || clean == ".." {
		return "", fmt.Errorf("transfer: invalid file name %q", name)
	}
	return filepath.Join(d.root, clean), nil
}

// Upload writes data atomically under name.
func (d *Dir) Upload(_ context.Context, name string, data []byte) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// List returns regular file names, skipping hidden files.
func (d *Dir) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Download reads name.
func (d *Dir) Download(_ context.Context, name string) ([]byte, error) {
	target, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete removes name.
func (d *Dir) Delete(_ context.Context, name string) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(target)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
