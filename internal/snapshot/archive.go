package snapshot

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/gzip"

	"github.com/pders01/snapback/internal/models"
)

// Archive streams a version as a gzip-compressed tar to w. Entries are the
// raw artifacts and the manifest, rooted at a directory named after the
// version, so the archive can be unpacked straight into a backup root.
// It returns the number of files written.
func (m *Manager) Archive(ctx context.Context, backupRoot, version string, w io.Writer) (int, error) {
	dir, err := m.resolve(backupRoot, version)
	if err != nil {
		return 0, err
	}

	refs, skipped, err := m.FS.ListRegularFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list version %s: %w", version, err)
	}
	if len(skipped) > 0 {
		return 0, fmt.Errorf("failed to list version %s: %s: %w", version, skipped[0].RelPath, skipped[0].Err)
	}

	created, _, err := models.ParseVersionName(version)
	if err != nil {
		return 0, err
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	count := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		data, err := m.FS.ReadAll(ref.Path)
		if err != nil {
			return count, fmt.Errorf("failed to read %s: %w", ref.RelPath, err)
		}

		hdr := &tar.Header{
			Name:    path.Join(version, ref.RelPath),
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: created,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return count, fmt.Errorf("failed to write archive header: %w", err)
		}
		if _, err := tw.Write(data); err != nil {
			return count, fmt.Errorf("failed to write archive entry: %w", err)
		}
		count++
	}

	if err := tw.Close(); err != nil {
		return count, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return count, fmt.Errorf("failed to finish archive: %w", err)
	}

	m.log().WithField("version", version).Infof("Archived %d file(s)", count)
	return count, nil
}
