package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// DirStore serves spectrum files from a local directory tree. Names are
// slash-separated paths relative to the root.
type DirStore struct {
	root     string
	suffixes []string
	logger   ports.Logger
}

// NewDirStore creates a store rooted at dir.
func NewDirStore(dir string, logger ports.Logger) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &domain.IOFailure{Op: "open", Name: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.IOFailure{Op: "open", Name: dir, Err: errors.New("not a directory")}
	}
	return &DirStore{root: dir, suffixes: DefaultSuffixes, logger: logger}, nil
}

// List walks the root and returns every spectrum file, sorted.
func (d *DirStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !hasSuffixFold(entry.Name(), d.suffixes) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &domain.IOFailure{Op: "list", Name: d.root, Err: err}
	}
	sort.Strings(names)
	d.logger.Debug("Listed directory", "root", d.root, "files", len(names))
	return names, nil
}

// Fetch reads the named file. Names that escape the root are refused.
func (d *DirStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.resolve(name)
	if err != nil {
		return nil, &domain.IOFailure{Op: "fetch", Name: name, Err: err}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &domain.IOFailure{Op: "fetch", Name: name, Err: err}
	}
	return data, nil
}

func (d *DirStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("name %q is outside the store", name)
	}
	return filepath.Join(d.root, clean), nil
}

// FileSink writes images to the local file system, creating parent
// directories on demand.
type FileSink struct{}

// NewFileSink creates a new file sink.
func NewFileSink() *FileSink {
	return &FileSink{}
}

// Create opens path for writing, truncating any existing file.
func (FileSink) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.IOFailure{Op: "mkdir", Name: filepath.Dir(path), Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &domain.IOFailure{Op: "create", Name: path, Err: err}
	}
	return f, nil
}
