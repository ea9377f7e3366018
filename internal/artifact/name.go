package artifact

import (
	"fmt"
	"strings"
)

// Suffix marks every stored artifact.
const Suffix = ".lzw"

var segmentEscaper = strings.NewReplacer("%", "%25")

// Name maps a slash-separated relative path to the slash-separated path its
// artifact is stored under inside a version.
//
// Every segment has "%" escaped as "%25", and a segment ending in ".lzw" has
// that final "." escaped as "%2E". Directory segments are stored escaped; the
// file segment is stored escaped plus Suffix. A stored directory therefore
// never ends in Suffix and a stored file always does, which keeps the mapping
// injective and stops a file artifact from shadowing a directory.
func Name(rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = escapeSegment(s)
	}
	return strings.Join(segments, "/") + Suffix
}

// RelPath inverts Name. Stored paths that Name cannot produce are rejected.
func RelPath(name string) (string, error) {
	if !strings.HasSuffix(name, Suffix) {
		return "", fmt.Errorf("%q: missing %s suffix", name, Suffix)
	}

	segments := strings.Split(strings.TrimSuffix(name, Suffix), "/")
	for i, s := range segments {
		plain, err := unescapeSegment(s)
		if err != nil {
			return "", fmt.Errorf("%q: %w", name, err)
		}
		if plain == "" || plain == "." || plain == ".." {
			return "", fmt.Errorf("%q: invalid path segment %q", name, plain)
		}
		segments[i] = plain
	}
	return strings.Join(segments, "/"), nil
}

// IsArtifact reports whether a stored path carries the artifact suffix.
func IsArtifact(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

func escapeSegment(s string) string {
	s = segmentEscaper.Replace(s)
	if strings.HasSuffix(s, Suffix) {
		s = s[:len(s)-len(Suffix)] + "%2E" + Suffix[1:]
	}
	return s
}

func unescapeSegment(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "%25"):
			b.WriteByte('%')
		case strings.HasPrefix(s[i:], "%2E") && s[i+3:] == Suffix[1:]:
			b.WriteByte('.')
		default:
			return "", fmt.Errorf("bad escape in segment %q", s)
		}
		i += 2
	}
	return b.String(), nil
}
