package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pders01/snapback/internal/artifact"
	"github.com/pders01/snapback/internal/fsys"
	"github.com/pders01/snapback/internal/models"
)

// sink receives each decoded file during a replay.
type sink func(rel string, data []byte) error

// Restore writes every file of version back under targetRoot, replacing
// files that already exist there. Files in targetRoot that are not part of
// the version are left alone.
//
// An unknown version fails with ErrVersionNotFound before anything is
// written. Otherwise each artifact is handled on its own: undecodable ones
// or ones whose content does not match the manifest checksum are reported
// with KindCorrupt and the rest are still restored.
func (m *Manager) Restore(ctx context.Context, backupRoot, version, targetRoot string) (*Result, error) {
	dir, err := m.resolve(backupRoot, version)
	if err != nil {
		return nil, err
	}

	if err := m.FS.EnsureDirectory(targetRoot); err != nil {
		return nil, fmt.Errorf("failed to create restore target %s: %w", targetRoot, err)
	}

	m.log().WithField("version", version).Infof("Restoring into %s", targetRoot)
	return m.replay(ctx, dir, version, func(rel string, data []byte) error {
		return m.FS.WriteAll(filepath.Join(targetRoot, filepath.FromSlash(rel)), data)
	})
}

// Verify decodes every artifact of a version and checks it against the
// manifest without writing anything.
func (m *Manager) Verify(ctx context.Context, backupRoot, version string) (*Result, error) {
	dir, err := m.resolve(backupRoot, version)
	if err != nil {
		return nil, err
	}
	return m.replay(ctx, dir, version, nil)
}

func (m *Manager) replay(ctx context.Context, dir, version string, out sink) (*Result, error) {
	logger := m.log().WithField("version", version)

	manifest, err := m.readManifest(dir)
	if err != nil {
		if !errors.Is(err, ErrNoManifest) {
			return nil, err
		}
		logger.Warn("Version has no manifest, checksums will not be checked")
	}

	refs, skipped, err := m.FS.ListRegularFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts of %s: %w", version, err)
	}

	var artifacts []fsys.FileRef
	present := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if artifact.IsArtifact(ref.RelPath) {
			artifacts = append(artifacts, ref)
			present[ref.RelPath] = true
		}
	}

	expected := make(map[string]models.ManifestEntry)
	if manifest != nil {
		for _, e := range manifest.Entries {
			expected[e.Path] = e
		}
	}

	c := &collector{}
	for _, w := range skipped {
		fe := c.fail(w.RelPath, KindIO, w.Err)
		logger.WithError(fe.Err).WithField("path", w.RelPath).Warn("Skipping unreadable path")
	}

	m.forEach(artifacts, func(ref fsys.FileRef) {
		rel, err := artifact.RelPath(ref.RelPath)
		if err != nil {
			c.fail(ref.RelPath, KindCorrupt, err)
			return
		}

		if err := ctx.Err(); err != nil {
			c.fail(rel, KindCanceled, err)
			return
		}

		compressed, err := m.FS.ReadAll(ref.Path)
		if err != nil {
			c.fail(rel, KindIO, err)
			return
		}

		data, err := artifact.Read(compressed)
		if err != nil {
			fe := c.fail(rel, KindCorrupt, err)
			logger.WithError(fe.Err).WithField("path", rel).Warn("Corrupt artifact")
			return
		}

		if e, ok := expected[rel]; ok && e.Checksum != "" && e.Checksum != checksum(data) {
			fe := c.fail(rel, KindCorrupt, fmt.Errorf("%w: expected %s", ErrChecksumMismatch, e.Checksum))
			logger.WithError(fe.Err).WithField("path", rel).Warn("Corrupt artifact")
			return
		}

		if out != nil {
			if err := out(rel, data); err != nil {
				c.fail(rel, KindIO, err)
				return
			}
		}

		c.ok(artifact.Report{
			Path:           rel,
			OriginalSize:   int64(len(data)),
			CompressedSize: int64(len(compressed)),
		}, nil)
	})

	for path, e := range expected {
		if !present[e.Artifact] {
			c.fail(path, KindIO, fmt.Errorf("%w: %s", ErrArtifactMissing, e.Artifact))
		}
	}

	return c.result(version, ctx.Err() != nil), nil
}
