package domain

import (
	"fmt"
	"slices"
	"strings"
)

// FileStatus is the one-letter status git reports for a path in a diff.
type FileStatus string

// File statuses as documented for git diff --diff-filter.
const (
	StatusAdded       FileStatus = "A"
	StatusCopied      FileStatus = "C"
	StatusDeleted     FileStatus = "D"
	StatusModified    FileStatus = "M"
	StatusRenamed     FileStatus = "R"
	StatusTypeChanged FileStatus = "T"
	StatusUnmerged    FileStatus = "U"
	StatusUnknown     FileStatus = "X"
	StatusBroken      FileStatus = "B"
)

var knownStatuses = map[FileStatus]bool{
	StatusAdded: true, StatusCopied: true, StatusDeleted: true, StatusModified: true,
	StatusRenamed: true, StatusTypeChanged: true, StatusUnmerged: true,
	StatusUnknown: true, StatusBroken: true,
}

// UpdatedFiles maps a path relative to the release root to its status.
type UpdatedFiles map[string]FileStatus

// Paths returns the changed paths in sorted order.
func (f UpdatedFiles) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// ParseNameStatus parses the output of git diff --name-status -z.
//
// Records are NUL-terminated fields: a status and a path, or for renames and copies
// a status with a similarity score followed by the source and destination paths.
// Renames and copies are recorded under the destination path.
func ParseNameStatus(output string) (UpdatedFiles, error) {
	files := UpdatedFiles{}
	fields := splitNul(output)
	for i := 0; i < len(fields); {
		code := fields[i]
		if code == "" {
			return nil, fmt.Errorf("malformed diff record at field %d", i)
		}
		status := FileStatus(code[:1])
		if !knownStatuses[status] {
			return nil, fmt.Errorf("unknown file status %q", code)
		}
		paths := 1
		if status == StatusRenamed || status == StatusCopied {
			paths = 2
		}
		if i+paths >= len(fields) {
			return nil, fmt.Errorf("malformed %s record: missing path", code)
		}
		path := fields[i+paths]
		if path == "" {
			return nil, fmt.Errorf("malformed %s record: empty path", code)
		}
		files[path] = status
		i += paths + 1
	}
	return files, nil
}

// AllAdded marks every path listed by git ls-files -z as added.
func AllAdded(lsFiles string) UpdatedFiles {
	files := UpdatedFiles{}
	for _, path := range splitNul(lsFiles) {
		if path != "" {
			files[path] = StatusAdded
		}
	}
	return files
}

// splitNul splits NUL-terminated fields; the terminator after the last field is optional.
func splitNul(s string) []string {
	s = strings.TrimSuffix(s, "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}
