package snapshot

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/pders01/snapback/internal/models"
)

// ListVersions returns the version ids under backupRoot, oldest first.
// Subdirectories whose names are not version names are ignored. A missing
// backup root is an empty catalog.
func (m *Manager) ListVersions(backupRoot string) ([]string, error) {
	names, err := m.FS.ListSubdirectories(backupRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	versions := make([]string, 0, len(names))
	for _, name := range names {
		if !models.IsVersionName(name) {
			m.log().WithField("dir", name).Debug("Ignoring non-version directory")
			continue
		}
		versions = append(versions, name)
	}
	sort.Strings(versions)
	return versions, nil
}

// Latest returns the newest version id.
func (m *Manager) Latest(backupRoot string) (string, error) {
	versions, err := m.ListVersions(backupRoot)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: catalog is empty", ErrVersionNotFound)
	}
	return versions[len(versions)-1], nil
}

// resolve returns the directory of a cataloged version.
func (m *Manager) resolve(backupRoot, version string) (string, error) {
	versions, err := m.ListVersions(backupRoot)
	if err != nil {
		return "", err
	}
	if !slices.Contains(versions, version) {
		return "", fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}
	return versionDir(backupRoot, version), nil
}

// LoadManifest reads the manifest of a version.
func (m *Manager) LoadManifest(backupRoot, version string) (*models.Manifest, error) {
	dir, err := m.resolve(backupRoot, version)
	if err != nil {
		return nil, err
	}
	return m.readManifest(dir)
}

func (m *Manager) readManifest(dir string) (*models.Manifest, error) {
	path := filepath.Join(dir, models.ManifestFile)
	if !m.FS.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, dir)
	}

	data, err := m.FS.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// RetentionPolicy selects versions for pruning. A version is a candidate
// only when it falls outside the newest KeepLast versions and is older than
// MaxAge. Zero disables a rule; with both rules disabled nothing is pruned.
type RetentionPolicy struct {
	KeepLast int
	MaxAge   time.Duration
}

// Enabled reports whether the policy selects anything at all.
func (p RetentionPolicy) Enabled() bool {
	return p.KeepLast > 0 || p.MaxAge > 0
}

// PruneCandidates returns the versions the policy would remove, oldest first.
func (m *Manager) PruneCandidates(backupRoot string, policy RetentionPolicy) ([]string, error) {
	if !policy.Enabled() {
		return nil, nil
	}

	versions, err := m.ListVersions(backupRoot)
	if err != nil {
		return nil, err
	}

	cutoff := m.now().Add(-policy.MaxAge)
	var candidates []string
	for i, version := range versions {
		if policy.KeepLast > 0 && i >= len(versions)-policy.KeepLast {
			continue
		}
		if policy.MaxAge > 0 {
			created, _, err := models.ParseVersionName(version)
			if err != nil || !created.Before(cutoff) {
				continue
			}
		}
		candidates = append(candidates, version)
	}
	return candidates, nil
}

// Prune deletes the given versions. Every id must be cataloged; nothing is
// removed if one is not.
func (m *Manager) Prune(backupRoot string, versions []string) error {
	catalog, err := m.ListVersions(backupRoot)
	if err != nil {
		return err
	}
	for _, version := range versions {
		if !slices.Contains(catalog, version) {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
	}

	for _, version := range versions {
		if err := m.FS.RemoveAll(versionDir(backupRoot, version)); err != nil {
			return fmt.Errorf("failed to delete version %s: %w", version, err)
		}
		m.log().WithField("version", version).Info("Pruned version")
	}
	return nil
}
