package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pders01/snapback/internal/config"
	"github.com/pders01/snapback/internal/fsys"
	"github.com/pders01/snapback/internal/snapshot"
)

// testEnv is a temp directory with a source tree and a backup root wired
// into the config.
type testEnv struct {
	Dir    string
	Source string
	Root   string
}

func setupTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		Dir:    dir,
		Source: filepath.Join(dir, "data"),
		Root:   filepath.Join(dir, "backup_data"),
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults()
	viper.Set("source.dir", env.Source)
	viper.Set("backup.root", env.Root)

	t.Setenv("HOME", dir)
	log.SetOutput(io.Discard)
	resetFlags()

	if err := os.MkdirAll(env.Source, 0755); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	for rel, content := range files {
		path := filepath.Join(env.Source, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	return env
}

func resetFlags() {
	cfgFile = ""
	verbose = false
	createSource, createWorkers, createQuiet = "", 0, true
	restoreTarget, restoreWorkers = "", 0
	listSince, listJSON, listYAML, listToon = "", false, false, false
	showJSON, showYAML, showToon = false, false, false
	statsJSON, statsYAML, statsToon = false, false, false
	pruneForce, pruneKeepLast, pruneDays = false, -1, -1
	archiveOutput = ""
}

// createVersion runs create and returns the newest version id.
func createVersion(t *testing.T, env *testEnv) string {
	t.Helper()

	if _, err := captureStdout(t, func() error { return runCreate(nil, nil) }); err != nil {
		t.Fatalf("create command failed: %v", err)
	}
	m := snapshot.NewManager(fsys.NewOS())
	version, err := m.Latest(env.Root)
	if err != nil {
		t.Fatalf("no version after create: %v", err)
	}
	return version
}

func listVersions(t *testing.T, env *testEnv) []string {
	t.Helper()

	versions, err := snapshot.NewManager(fsys.NewOS()).ListVersions(env.Root)
	if err != nil {
		t.Fatalf("failed to list versions: %v", err)
	}
	return versions
}

// captureStdout runs fn with os.Stdout redirected and returns what it printed.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()

	runErr := fn()
	w.Close()
	out := <-done
	r.Close()

	return out, runErr
}
