package fsys

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/pders01/snapback/internal/testutil"
)

func backends(t *testing.T) map[string]struct {
	fs   *AferoFS
	root string
} {
	t.Helper()
	return map[string]struct {
		fs   *AferoFS
		root string
	}{
		"memory": {fs: NewMemory(), root: "/work"},
		"os":     {fs: NewOS(), root: t.TempDir()},
	}
}

func TestListRegularFiles(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			files := map[string]string{
				"a.txt":       "alpha",
				"sub/b.txt":   "",
				"sub/c/d.bin": "\x00\x01",
			}
			for rel, content := range files {
				if err := b.fs.WriteAll(filepath.Join(b.root, filepath.FromSlash(rel)), []byte(content)); err != nil {
					t.Fatalf("failed to write %s: %v", rel, err)
				}
			}
			if err := b.fs.EnsureDirectory(filepath.Join(b.root, "empty")); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}

			refs, skipped, err := b.fs.ListRegularFiles(b.root)
			if err != nil {
				t.Fatalf("ListRegularFiles failed: %v", err)
			}
			if len(skipped) != 0 {
				t.Errorf("expected nothing skipped, got %v", skipped)
			}

			var rels []string
			for _, ref := range refs {
				rels = append(rels, ref.RelPath)
				data, err := b.fs.ReadAll(ref.Path)
				if err != nil {
					t.Fatalf("ReadAll(%s) failed: %v", ref.Path, err)
				}
				if string(data) != files[ref.RelPath] {
					t.Errorf("content mismatch for %s: got %q", ref.RelPath, data)
				}
			}

			want := []string{"a.txt", "sub/b.txt", "sub/c/d.bin"}
			if !reflect.DeepEqual(rels, want) {
				t.Errorf("expected %v, got %v", want, rels)
			}
		})
	}
}

func TestListRegularFilesSkipsUnreadableDirectory(t *testing.T) {
	base := afero.NewMemMapFs()
	testutil.WriteTree(t, base, "/work", map[string]string{
		"a.txt":          "a",
		"locked/b.txt":   "b",
		"locked/c/d.txt": "d",
		"z.txt":          "z",
	})
	fs := New(testutil.NewDenyReadFs(base, "/work/locked"))

	refs, skipped, err := fs.ListRegularFiles("/work")
	if err != nil {
		t.Fatalf("ListRegularFiles failed: %v", err)
	}

	var rels []string
	for _, ref := range refs {
		rels = append(rels, ref.RelPath)
	}
	if want := []string{"a.txt", "z.txt"}; !reflect.DeepEqual(rels, want) {
		t.Errorf("expected %v, got %v", want, rels)
	}

	if len(skipped) != 1 {
		t.Fatalf("expected one skipped path, got %v", skipped)
	}
	if skipped[0].RelPath != "locked" {
		t.Errorf("expected locked to be skipped, got %q", skipped[0].RelPath)
	}
	if !errors.Is(skipped[0].Err, os.ErrPermission) {
		t.Errorf("expected permission error, got %v", skipped[0].Err)
	}
}

func TestListRegularFilesUnreadableRoot(t *testing.T) {
	base := afero.NewMemMapFs()
	testutil.WriteTree(t, base, "/work", map[string]string{"a.txt": "a"})
	fs := New(testutil.NewDenyReadFs(base, "/work"))

	_, _, err := fs.ListRegularFiles("/work")
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error for unreadable root, got %v", err)
	}
}

func TestListRegularFilesMissingRoot(t *testing.T) {
	fs := NewMemory()
	if _, _, err := fs.ListRegularFiles("/nope"); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestListSubdirectories(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			missing, err := b.fs.ListSubdirectories(filepath.Join(b.root, "missing"))
			if err != nil {
				t.Fatalf("expected no error for missing root, got %v", err)
			}
			if len(missing) != 0 {
				t.Errorf("expected no entries, got %v", missing)
			}

			for _, d := range []string{"b", "a", "c"} {
				if err := b.fs.EnsureDirectory(filepath.Join(b.root, d)); err != nil {
					t.Fatalf("failed to create dir: %v", err)
				}
			}
			if err := b.fs.WriteAll(filepath.Join(b.root, "stray.txt"), []byte("x")); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}

			got, err := b.fs.ListSubdirectories(b.root)
			if err != nil {
				t.Fatalf("ListSubdirectories failed: %v", err)
			}
			if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestCreateDirectoryIsExclusive(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(b.root, "v1")
			if err := b.fs.EnsureDirectory(b.root); err != nil {
				t.Fatalf("failed to create root: %v", err)
			}
			if err := b.fs.CreateDirectory(dir); err != nil {
				t.Fatalf("first CreateDirectory failed: %v", err)
			}
			err := b.fs.CreateDirectory(dir)
			if !errors.Is(err, ErrExist) {
				t.Fatalf("expected ErrExist, got %v", err)
			}
		})
	}
}

func TestWriteAtomicReplaces(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(b.root, "nested", "manifest.json")
			if err := b.fs.WriteAtomic(path, []byte("one")); err != nil {
				t.Fatalf("first write failed: %v", err)
			}
			if err := b.fs.WriteAtomic(path, []byte("two")); err != nil {
				t.Fatalf("second write failed: %v", err)
			}

			data, err := b.fs.ReadAll(path)
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if string(data) != "two" {
				t.Errorf("expected %q, got %q", "two", data)
			}

			refs, _, err := b.fs.ListRegularFiles(filepath.Dir(path))
			if err != nil {
				t.Fatalf("ListRegularFiles failed: %v", err)
			}
			if len(refs) != 1 {
				t.Errorf("expected temp file to be gone, found %v", refs)
			}
		})
	}
}

func TestRemoveAll(t *testing.T) {
	fs := NewMemory()
	path := "/root/v1/a.lzw"
	if err := fs.WriteAll(path, []byte("x")); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if err := fs.RemoveAll("/root/v1"); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if fs.Exists(path) || fs.Exists("/root/v1") {
		t.Error("expected version directory to be removed")
	}
	if !fs.Exists("/root") {
		t.Error("expected parent to remain")
	}
}
