package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// WriteTree creates files under root. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

// ReadTree returns every regular file under root keyed by slash-separated
// relative path.
func ReadTree(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read tree %s: %v", root, err)
	}
	return files
}

// Paths returns the sorted keys of a tree.
func Paths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// DenyReadFs fails every open of the listed paths with a permission error,
// while directory walks still see them.
type DenyReadFs struct {
	afero.Fs
	Denied map[string]bool
}

// NewDenyReadFs wraps fs and denies reads of paths.
func NewDenyReadFs(fs afero.Fs, paths ...string) *DenyReadFs {
	denied := make(map[string]bool, len(paths))
	for _, p := range paths {
		denied[filepath.Clean(p)] = true
	}
	return &DenyReadFs{Fs: fs, Denied: denied}
}

func (d *DenyReadFs) Open(name string) (afero.File, error) {
	if d.Denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func (d *DenyReadFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if d.Denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

// Clock returns a fixed time source.
func Clock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
