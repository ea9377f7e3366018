// Package snapshot creates, lists, verifies and restores versions of a
// directory tree stored as per-file compressed artifacts.
//
// A backup root holds one directory per version:
//
//	backup_data/
//	  2025-11-14T093005/
//	    manifest.json
//	    a.txt.lzw
//	    sub/b.txt.lzw
//
// Artifact paths come from artifact.Name and invert with artifact.RelPath.
package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/pders01/snapback/internal/artifact"
	"github.com/pders01/snapback/internal/fsys"
	"github.com/pders01/snapback/internal/models"
)

var (
	// ErrVersionNotFound is returned when a version is not in the catalog.
	ErrVersionNotFound = errors.New("version not found")

	// ErrVersionCollision is returned when no free version name is left for
	// the current second.
	ErrVersionCollision = errors.New("version collision")

	// ErrNoManifest is returned for versions written without a manifest.
	ErrNoManifest = errors.New("version has no manifest")

	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrArtifactMissing  = errors.New("artifact missing")
)

// Kind classifies a per-file failure.
type Kind string

const (
	KindIO       Kind = "io"
	KindCorrupt  Kind = "corrupt"
	KindCanceled Kind = "canceled"
)

// FileError is a failure confined to one file or artifact.
type FileError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Result summarizes a create, restore or verify run.
type Result struct {
	Version  string
	Status   models.Status
	Reports  []artifact.Report
	Failures []*FileError
}

// Complete reports whether every file was processed.
func (r *Result) Complete() bool {
	return r.Status == models.StatusComplete
}

// Manager runs snapshot operations against a filesystem.
type Manager struct {
	FS fsys.FS

	// Now is the clock used for version names.
	Now func() time.Time

	// Workers bounds how many files are processed at once. 1 keeps the
	// per-file loop strictly sequential.
	Workers int

	Log     log.FieldLogger
	Metrics metrics.Registry
}

// NewManager returns a sequential Manager using the real clock.
func NewManager(fs fsys.FS) *Manager {
	return &Manager{
		FS:      fs,
		Now:     time.Now,
		Workers: 1,
		Log:     log.StandardLogger(),
		Metrics: metrics.NewRegistry(),
	}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) log() log.FieldLogger {
	if m.Log == nil {
		return log.StandardLogger()
	}
	return m.Log
}

func (m *Manager) registry() metrics.Registry {
	if m.Metrics == nil {
		m.Metrics = metrics.NewRegistry()
	}
	return m.Metrics
}

func (m *Manager) workers() int {
	switch {
	case m.Workers < 0:
		return runtime.NumCPU()
	case m.Workers == 0:
		return 1
	default:
		return m.Workers
	}
}

// forEach calls fn for every ref, sequentially or on a bounded pool.
func (m *Manager) forEach(refs []fsys.FileRef, fn func(fsys.FileRef)) {
	n := m.workers()
	if n <= 1 || len(refs) <= 1 {
		for _, ref := range refs {
			fn(ref)
		}
		return
	}

	p := pool.New().WithMaxGoroutines(n)
	for _, ref := range refs {
		ref := ref
		p.Go(func() { fn(ref) })
	}
	p.Wait()
}

// collector gathers per-file outcomes from concurrent workers.
type collector struct {
	mu       sync.Mutex
	reports  []artifact.Report
	entries  []models.ManifestEntry
	failures []*FileError
}

func (c *collector) ok(report artifact.Report, entry *models.ManifestEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, report)
	if entry != nil {
		c.entries = append(c.entries, *entry)
	}
}

func (c *collector) fail(path string, kind Kind, err error) *FileError {
	fe := &FileError{Path: path, Kind: kind, Err: err}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, fe)
	return fe
}

// result sorts everything by path so output does not depend on scheduling.
func (c *collector) result(version string, canceled bool) *Result {
	sort.Slice(c.reports, func(i, j int) bool { return c.reports[i].Path < c.reports[j].Path })
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Path < c.entries[j].Path })
	sort.Slice(c.failures, func(i, j int) bool { return c.failures[i].Path < c.failures[j].Path })

	status := models.StatusComplete
	switch {
	case canceled:
		status = models.StatusCanceled
	case len(c.failures) > 0:
		status = models.StatusPartial
	}

	return &Result{
		Version:  version,
		Status:   status,
		Reports:  c.reports,
		Failures: c.failures,
	}
}

func versionDir(backupRoot, version string) string {
	return filepath.Join(backupRoot, version)
}
