// Package fsys is the narrow filesystem surface the snapshot code runs on.
package fsys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FileRef names a regular file found under a walked root.
type FileRef struct {
	Path    string // platform path, usable with the FS methods
	RelPath string // slash-separated, relative to the walked root
}

// WalkError is a path below a walked root that could not be listed.
type WalkError struct {
	RelPath string
	Err     error
}

// FS abstracts the filesystem operations used by snapshots.
type FS interface {
	ListRegularFiles(root string) ([]FileRef, []WalkError, error)
	ReadAll(path string) ([]byte, error)
	WriteAll(path string, data []byte) error
	WriteAtomic(path string, data []byte) error
	ListSubdirectories(root string) ([]string, error)
	EnsureDirectory(path string) error
	CreateDirectory(path string) error
	RemoveAll(path string) error
	Exists(path string) bool
}

// ErrExist is returned by CreateDirectory when the path is already taken.
var ErrExist = os.ErrExist

// AferoFS implements FS on top of any afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewOS returns an FS backed by the real filesystem.
func NewOS() *AferoFS {
	return New(afero.NewOsFs())
}

// NewMemory returns an empty in-memory FS.
func NewMemory() *AferoFS {
	return New(afero.NewMemMapFs())
}

// ListRegularFiles walks root recursively in lexical order. Directories,
// symlinks and other special files are skipped. Entries below root that
// cannot be read are returned as WalkErrors and the walk goes on; only a
// failure on root itself is an error.
func (a *AferoFS) ListRegularFiles(root string) ([]FileRef, []WalkError, error) {
	info, err := a.fs.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", root)
	}

	var (
		refs    []FileRef
		skipped []WalkError
	)
	err = afero.Walk(a.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if filepath.Clean(path) == filepath.Clean(root) {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			skipped = append(skipped, WalkError{RelPath: filepath.ToSlash(rel), Err: err})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		refs = append(refs, FileRef{Path: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return refs, skipped, nil
}

func (a *AferoFS) ReadAll(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// WriteAll writes data to path, creating parent directories.
func (a *AferoFS) WriteAll(path string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(a.fs, path, data, 0o644)
}

// WriteAtomic writes data through a temp file in the same directory and
// renames it over path.
func (a *AferoFS) WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(a.fs, dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer a.fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return a.fs.Rename(tmpPath, path)
}

// ListSubdirectories returns the sorted names of the directories directly
// under root. A missing root has no subdirectories.
func (a *AferoFS) ListSubdirectories(root string) ([]string, error) {
	infos, err := afero.ReadDir(a.fs, root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// EnsureDirectory creates path and its parents if needed.
func (a *AferoFS) EnsureDirectory(path string) error {
	return a.fs.MkdirAll(path, 0o755)
}

// CreateDirectory creates exactly one new directory and fails with an error
// matching ErrExist if anything already occupies path.
func (a *AferoFS) CreateDirectory(path string) error {
	if err := a.fs.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &os.PathError{Op: "mkdir", Path: path, Err: ErrExist}
		}
		return err
	}
	return nil
}

func (a *AferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

func (a *AferoFS) Exists(path string) bool {
	ok, err := afero.Exists(a.fs, path)
	return err == nil && ok
}
