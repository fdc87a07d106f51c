package io

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
)

// Ext is appended to the store name to form the record file name.
const Ext = ".cache"

// FilePersister stores one record file per cache in a directory.
type FilePersister struct {
	dir string
}

// NewFilePersister creates a persister rooted at dir. The directory is
// created on the first save.
func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{dir: dir}
}

// Path returns the file a record named name is stored in.
func (p *FilePersister) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid cache name %q", name)
	}
	return filepath.Join(p.dir, name+Ext), nil
}

func (p *FilePersister) Load(_ context.Context, name string) ([]byte, error) {
	path, err := p.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (p *FilePersister) Save(_ context.Context, name string, data []byte) error {
	path, err := p.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
