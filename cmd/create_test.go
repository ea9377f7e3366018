package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/pders01/snapback/internal/models"
	"github.com/pders01/snapback/internal/snapshot"
)

func TestCreateAndRestoreRoundTrip(t *testing.T) {
	env := setupTestEnv(t, map[string]string{
		"a.txt":          "AAAAAAAAAA",
		"sub/b.txt":      "",
		"sub/deep/c.md":  strings.Repeat("snapback ", 200),
		"weird%name.lzw": "escaped on disk",
	})

	version := createVersion(t, env)

	if _, err := os.Stat(filepath.Join(env.Root, version, "a.txt.lzw")); err != nil {
		t.Errorf("expected artifact for a.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.Root, version, "weird%25name%2Elzw.lzw")); err != nil {
		t.Errorf("expected escaped artifact name: %v", err)
	}

	restoreTarget = filepath.Join(env.Dir, "restored")
	if _, err := captureStdout(t, func() error { return runRestore(nil, []string{version}) }); err != nil {
		t.Fatalf("restore command failed: %v", err)
	}

	for _, rel := range []string{"a.txt", "sub/b.txt", "sub/deep/c.md", "weird%name.lzw"} {
		want, err := os.ReadFile(filepath.Join(env.Source, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatal(err)
		}
		got, err := os.ReadFile(filepath.Join(restoreTarget, filepath.FromSlash(rel)))
		if err != nil {
			t.Errorf("%s not restored: %v", rel, err)
			continue
		}
		if string(got) != string(want) {
			t.Errorf("%s: restored content differs", rel)
		}
	}
}

func TestCreatePrintsRatios(t *testing.T) {
	env := setupTestEnv(t, map[string]string{"a.txt": "AAAAAAAAAA"})
	createQuiet = false

	out, err := captureStdout(t, func() error { return runCreate(nil, nil) })
	if err != nil {
		t.Fatalf("create command failed: %v", err)
	}

	if !strings.Contains(out, "a.txt: 10 -> 5 bytes (50.00%)") {
		t.Errorf("expected per-file ratio in output, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ Snapshot created") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
	if len(listVersions(t, env)) != 1 {
		t.Error("expected one version")
	}
}

func TestCreateMissingSource(t *testing.T) {
	env := setupTestEnv(t, nil)
	createSource = filepath.Join(env.Dir, "does-not-exist")

	_, err := captureStdout(t, func() error { return runCreate(nil, nil) })
	if err == nil {
		t.Fatal("expected error for missing source directory")
	}
	if versions := listVersions(t, env); len(versions) != 0 {
		t.Errorf("no version should be created, got %v", versions)
	}
}

func TestCreateWithWorkersFlag(t *testing.T) {
	files := make(map[string]string)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["dir/"+name+".txt"] = strings.Repeat(name, 100)
	}
	env := setupTestEnv(t, files)
	createWorkers = 4

	version := createVersion(t, env)

	m := newManager()
	manifest, err := m.LoadManifest(env.Root, version)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	if len(manifest.Entries) != len(files) {
		t.Errorf("expected %d entries, got %d", len(files), len(manifest.Entries))
	}
}

func TestCreateWithWorkersPerCPU(t *testing.T) {
	env := setupTestEnv(t, map[string]string{"a.txt": "a", "b/c.txt": "c", "b/d.txt": "d"})

	viper.Set("snapshot.workers", -1)
	if got := newManager().Workers; got != -1 {
		t.Errorf("expected snapshot.workers -1 to reach the manager, got %d", got)
	}

	createWorkers = -1
	version := createVersion(t, env)

	manifest, err := newManager().LoadManifest(env.Root, version)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	if manifest.Status != models.StatusComplete || len(manifest.Entries) != 3 {
		t.Errorf("unexpected manifest %+v", manifest)
	}
}

func TestRestoreUnknownVersion(t *testing.T) {
	env := setupTestEnv(t, map[string]string{"a.txt": "a"})
	createVersion(t, env)

	restoreTarget = filepath.Join(env.Dir, "restored")
	_, err := captureStdout(t, func() error { return runRestore(nil, []string{"2000-01-01T000000"}) })
	if !errors.Is(err, snapshot.ErrVersionNotFound) {
		t.Fatalf("expected version not found, got %v", err)
	}
	if _, err := os.Stat(restoreTarget); !os.IsNotExist(err) {
		t.Error("restore target should not be created for an unknown version")
	}
}

func TestRestoreLatestOnEmptyCatalog(t *testing.T) {
	setupTestEnv(t, nil)

	_, err := captureStdout(t, func() error { return runRestore(nil, []string{"latest"}) })
	if !errors.Is(err, snapshot.ErrVersionNotFound) {
		t.Fatalf("expected version not found, got %v", err)
	}
}

func TestRestoreDefaultsToSourceDir(t *testing.T) {
	env := setupTestEnv(t, map[string]string{"a.txt": "original"})
	version := createVersion(t, env)

	if err := os.WriteFile(filepath.Join(env.Source, "a.txt"), []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := captureStdout(t, func() error { return runRestore(nil, []string{version}) }); err != nil {
		t.Fatalf("restore command failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(env.Source, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("expected a.txt to be restored in place, got %q", data)
	}
}

func TestRestoreCorruptArtifactFails(t *testing.T) {
	env := setupTestEnv(t, map[string]string{"a.txt": "fine", "b.txt": "to be damaged"})
	version := createVersion(t, env)

	if err := os.WriteFile(filepath.Join(env.Root, version, "b.txt.lzw"), []byte{0x41, 0xff}, 0644); err != nil {
		t.Fatal(err)
	}

	restoreTarget = filepath.Join(env.Dir, "restored")
	_, err := captureStdout(t, func() error { return runRestore(nil, []string{version}) })
	if err == nil {
		t.Fatal("expected restore with a corrupt artifact to fail")
	}

	if _, err := os.Stat(filepath.Join(restoreTarget, "a.txt")); err != nil {
		t.Errorf("intact files should still be restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(restoreTarget, "b.txt")); !os.IsNotExist(err) {
		t.Error("corrupt file should not be written")
	}
}
