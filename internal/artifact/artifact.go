// Package artifact turns one file's content into its compressed artifact and back.
package artifact

import (
	"errors"
	"fmt"

	"github.com/pders01/snapback/internal/lzw"
)

// ErrCorruptArtifact is returned when an artifact cannot be decoded.
var ErrCorruptArtifact = errors.New("corrupt artifact")

// Report describes the compression of a single file.
type Report struct {
	Path           string `json:"path" yaml:"path"`
	OriginalSize   int64  `json:"original_size" yaml:"original_size"`
	CompressedSize int64  `json:"compressed_size" yaml:"compressed_size"`
}

// Ratio returns the space saved as a percentage of the original size.
// Empty files have a ratio of 0.
func (r Report) Ratio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return 100 * float64(r.OriginalSize-r.CompressedSize) / float64(r.OriginalSize)
}

// String formats the report the way create prints it.
func (r Report) String() string {
	return fmt.Sprintf("%s: %d -> %d bytes (%.2f%%)", r.Path, r.OriginalSize, r.CompressedSize, r.Ratio())
}

// Write compresses the whole content of one file.
func Write(src []byte) ([]byte, Report) {
	compressed := lzw.Encode(src)
	return compressed, Report{
		OriginalSize:   int64(len(src)),
		CompressedSize: int64(len(compressed)),
	}
}

// Read restores the original content from an artifact.
func Read(compressed []byte) ([]byte, error) {
	out, err := lzw.Decode(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}
	return out, nil
}
