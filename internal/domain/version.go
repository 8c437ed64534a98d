package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinVersionParts is the number of components every stored version has at least.
const MinVersionParts = 3

// VersionFile is the file at the root of the release tree holding the current version.
const VersionFile = "version.txt"

// Version is a dot-separated sequence of non-negative integers.
type Version struct {
	parts []uint64
}

// InitialVersion is used when the releases repository has no version yet.
func InitialVersion() Version {
	return Version{parts: []uint64{0, 0, 1}}
}

// ParseVersion parses a version string, accepting an optional "v" prefix.
// The components are kept as given; use Normalize to pad them.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if raw == "" {
		return Version{}, fmt.Errorf("%w: version cannot be empty", ErrInvalidVersion)
	}
	fields := strings.Split(raw, ".")
	parts := make([]uint64, 0, len(fields))
	for _, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		parts = append(parts, n)
	}
	return Version{parts: parts}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Normalize pads the version with zeros to at least three components.
func (v Version) Normalize() Version {
	parts := v.Parts()
	for len(parts) < MinVersionParts {
		parts = append(parts, 0)
	}
	return Version{parts: parts}
}

// Bump pads the version to three components and increments the last one.
// Versions with more than three components only get their final component increased.
// A last component that cannot grow any further is an ErrInvalidVersion.
func (v Version) Bump() (Version, error) {
	next := v.Normalize()
	last := len(next.parts) - 1
	if next.parts[last] == math.MaxUint64 {
		return Version{}, fmt.Errorf("%w: %s cannot be bumped", ErrInvalidVersion, v)
	}
	next.parts[last]++
	return next, nil
}

// Parts returns a copy of the numeric components.
func (v Version) Parts() []uint64 {
	return append([]uint64(nil), v.parts...)
}

// Compare compares two versions component by component, treating missing components as zero.
func (v Version) Compare(other Version) int {
	n := max(len(v.parts), len(other.parts))
	for i := 0; i < n; i++ {
		a, b := v.at(i), other.at(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func (v Version) at(i int) uint64 {
	if i < len(v.parts) {
		return v.parts[i]
	}
	return 0
}

// String returns the version without prefix, e.g. "1.2.3".
func (v Version) String() string {
	fields := make([]string, len(v.parts))
	for i, p := range v.parts {
		fields[i] = strconv.FormatUint(p, 10)
	}
	return strings.Join(fields, ".")
}

// Tag returns the git tag name for the version.
func (v Version) Tag() string {
	return TagPrefix + v.String()
}

// TagPrefix is prepended to a version to form its tag.
const TagPrefix = "v"
