package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/pders01/snapback/internal/artifact"
	"github.com/pders01/snapback/internal/fsys"
	"github.com/pders01/snapback/internal/models"
)

// Create snapshots every regular file under sourceRoot into a new version
// under backupRoot.
//
// Files that cannot be read or stored, and subdirectories that cannot be
// listed, are recorded in Result.Failures and the walk continues; only an
// unreadable sourceRoot is fatal. The version directory is kept either way. The context
// is checked once before each file, and files skipped after cancellation are
// recorded with KindCanceled. An error is returned only when no version
// could be produced or its manifest could not be written.
func (m *Manager) Create(ctx context.Context, sourceRoot, backupRoot string) (*Result, error) {
	if err := m.FS.EnsureDirectory(backupRoot); err != nil {
		return nil, fmt.Errorf("failed to create backup root %s: %w", backupRoot, err)
	}

	files, skipped, err := m.FS.ListRegularFiles(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	files, skipped = excludeTree(files, skipped, sourceRoot, backupRoot)

	version, dir, err := m.createVersionDir(backupRoot)
	if err != nil {
		return nil, err
	}

	logger := m.log().WithField("version", version)
	logger.Infof("Creating snapshot of %d file(s) from %s", len(files), sourceRoot)

	reg := m.registry()
	filesOK := metrics.GetOrRegisterCounter("snapshot.files.ok", reg)
	filesFailed := metrics.GetOrRegisterCounter("snapshot.files.failed", reg)
	bytesIn := metrics.GetOrRegisterCounter("snapshot.bytes.in", reg)
	bytesOut := metrics.GetOrRegisterCounter("snapshot.bytes.out", reg)
	encodeTimer := metrics.GetOrRegisterTimer("snapshot.encode", reg)

	c := &collector{}
	for _, w := range skipped {
		fe := c.fail(w.RelPath, KindIO, w.Err)
		filesFailed.Inc(1)
		logger.WithError(fe.Err).WithField("path", w.RelPath).Warn("Skipping unreadable path")
	}

	m.forEach(files, func(ref fsys.FileRef) {
		if err := ctx.Err(); err != nil {
			c.fail(ref.RelPath, KindCanceled, err)
			return
		}

		data, err := m.FS.ReadAll(ref.Path)
		if err != nil {
			fe := c.fail(ref.RelPath, KindIO, err)
			filesFailed.Inc(1)
			logger.WithError(fe.Err).WithField("path", ref.RelPath).Warn("Skipping unreadable file")
			return
		}

		start := time.Now()
		compressed, report := artifact.Write(data)
		encodeTimer.UpdateSince(start)
		report.Path = ref.RelPath

		name := artifact.Name(ref.RelPath)
		if err := m.FS.WriteAll(filepath.Join(dir, filepath.FromSlash(name)), compressed); err != nil {
			fe := c.fail(ref.RelPath, KindIO, err)
			filesFailed.Inc(1)
			logger.WithError(fe.Err).WithField("path", ref.RelPath).Warn("Failed to store artifact")
			return
		}

		filesOK.Inc(1)
		bytesIn.Inc(report.OriginalSize)
		bytesOut.Inc(report.CompressedSize)
		logger.WithFields(log.Fields{
			"path":       ref.RelPath,
			"original":   report.OriginalSize,
			"compressed": report.CompressedSize,
		}).Debug("Stored artifact")

		c.ok(report, &models.ManifestEntry{
			Path:           ref.RelPath,
			Artifact:       name,
			OriginalSize:   report.OriginalSize,
			CompressedSize: report.CompressedSize,
			Checksum:       checksum(data),
		})
	})

	result := c.result(version, ctx.Err() != nil)

	manifest := &models.Manifest{
		ID:         uuid.NewString(),
		Version:    version,
		CreatedAt:  m.now().UTC(),
		SourceRoot: sourceRoot,
		Status:     result.Status,
		Entries:    c.entries,
	}
	for _, f := range result.Failures {
		manifest.Failures = append(manifest.Failures, models.FailureRecord{
			Path:    f.Path,
			Kind:    string(f.Kind),
			Message: f.Err.Error(),
		})
	}
	if err := m.writeManifest(dir, manifest); err != nil {
		return result, fmt.Errorf("failed to write manifest for %s: %w", version, err)
	}

	logger.WithFields(log.Fields{
		"status": result.Status,
		"stored": len(result.Reports),
		"failed": len(result.Failures),
	}).Info("Snapshot finished")

	return result, nil
}

// createVersionDir claims a fresh version directory. The directory is
// created exclusively, so an existing version is never reused; a taken name
// moves on to the next ".NN" suffix of the same second.
func (m *Manager) createVersionDir(backupRoot string) (string, string, error) {
	now := m.now()
	for seq := 0; seq <= models.MaxVersionSuffix; seq++ {
		name := models.VersionName(now, seq)
		dir := versionDir(backupRoot, name)

		err := m.FS.CreateDirectory(dir)
		if err == nil {
			return name, dir, nil
		}
		if !errors.Is(err, fsys.ErrExist) {
			return "", "", fmt.Errorf("failed to create version directory %s: %w", dir, err)
		}
	}
	return "", "", fmt.Errorf("%w: all names for %s are taken", ErrVersionCollision, models.VersionName(now, 0))
}

func (m *Manager) writeManifest(dir string, manifest *models.Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return m.FS.WriteAtomic(filepath.Join(dir, models.ManifestFile), data)
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// excludeTree drops files and walk errors that live under skipRoot when it
// is inside root, so a backup root placed inside the source is not
// snapshotted into itself.
func excludeTree(files []fsys.FileRef, skipped []fsys.WalkError, root, skipRoot string) ([]fsys.FileRef, []fsys.WalkError) {
	rel, err := filepath.Rel(root, skipRoot)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return files, skipped
	}
	tree := filepath.ToSlash(rel)
	inTree := func(p string) bool {
		return p == tree || strings.HasPrefix(p, tree+"/")
	}

	keptFiles := files[:0]
	for _, f := range files {
		if !inTree(f.RelPath) {
			keptFiles = append(keptFiles, f)
		}
	}
	keptSkipped := skipped[:0]
	for _, w := range skipped {
		if !inTree(w.RelPath) {
			keptSkipped = append(keptSkipped, w)
		}
	}
	return keptFiles, keptSkipped
}
