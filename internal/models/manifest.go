package models

import "time"

// ManifestFile is the name of the manifest inside each version directory.
const ManifestFile = "manifest.json"

// Status of a finished snapshot.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusCanceled Status = "canceled"
)

// Manifest represents the manifest.json written into every version.
type Manifest struct {
	ID         string          `json:"id" yaml:"id"`
	Version    string          `json:"version" yaml:"version"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	SourceRoot string          `json:"source_root" yaml:"source_root"`
	Status     Status          `json:"status" yaml:"status"`
	Entries    []ManifestEntry `json:"entries" yaml:"entries"`
	Failures   []FailureRecord `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// ManifestEntry describes one stored artifact.
type ManifestEntry struct {
	Path           string `json:"path" yaml:"path"`
	Artifact       string `json:"artifact" yaml:"artifact"`
	OriginalSize   int64  `json:"original_size" yaml:"original_size"`
	CompressedSize int64  `json:"compressed_size" yaml:"compressed_size"`
	Checksum       string `json:"xxh3" yaml:"xxh3"` // For content verification on restore
}

// FailureRecord is a file that could not be stored.
type FailureRecord struct {
	Path    string `json:"path" yaml:"path"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Totals sums original and compressed sizes over all entries.
func (m *Manifest) Totals() (original, compressed int64) {
	for _, e := range m.Entries {
		original += e.OriginalSize
		compressed += e.CompressedSize
	}
	return original, compressed
}

// Entry returns the entry for a relative path, if any.
func (m *Manifest) Entry(path string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return ManifestEntry{}, false
}
