package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VersionLayout is the timestamp layout of version names, always in UTC.
const VersionLayout = "2006-01-02T150405"

// MaxVersionSuffix bounds the ".NN" suffix used when two versions share a second.
const MaxVersionSuffix = 99

// VersionName generates the version name for a timestamp and collision counter.
// Format: YYYY-MM-DDTHHMMSS, then YYYY-MM-DDTHHMMSS.01, .02, ...
// Names sort lexically in creation order.
func VersionName(timestamp time.Time, seq int) string {
	name := timestamp.UTC().Format(VersionLayout)
	if seq > 0 {
		name = fmt.Sprintf("%s.%02d", name, seq)
	}
	return name
}

// ParseVersionName splits a version name into its timestamp and counter.
func ParseVersionName(name string) (time.Time, int, error) {
	stamp, suffix, hasSuffix := strings.Cut(name, ".")

	timestamp, err := time.Parse(VersionLayout, stamp)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid version name %q: %w", name, err)
	}

	seq := 0
	if hasSuffix {
		if len(suffix) != 2 {
			return time.Time{}, 0, fmt.Errorf("invalid version suffix in %q", name)
		}
		seq, err = strconv.Atoi(suffix)
		if err != nil || seq < 1 {
			return time.Time{}, 0, fmt.Errorf("invalid version suffix in %q", name)
		}
	}
	return timestamp, seq, nil
}

// IsVersionName reports whether name is a well-formed version name.
func IsVersionName(name string) bool {
	_, _, err := ParseVersionName(name)
	return err == nil
}
