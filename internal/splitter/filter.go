package splitter

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter narrows a folder listing before any file is opened. Rejected
// files are skipped with SkipExcluded: they still count as processed and
// skipped, and reach the recorder like any other outcome.
type FileFilter interface {
	ShouldInclude(name string) bool
}

// GlobFilter keeps base names matching a doublestar glob, ignoring case.
// The zero pattern keeps everything.
type GlobFilter struct {
	pattern string
}

// NewGlobFilter returns a filter for pattern, which should have passed
// ValidatePattern. A malformed pattern matches nothing.
func NewGlobFilter(pattern string) *GlobFilter {
	return &GlobFilter{pattern: strings.ToLower(pattern)}
}

func (f *GlobFilter) ShouldInclude(name string) bool {
	if f.pattern == "" {
		return true
	}

	ok, err := doublestar.Match(f.pattern, strings.ToLower(name))

	return err == nil && ok
}

// ValidatePattern reports whether pattern is usable as --include.
func ValidatePattern(pattern string) bool {
	return pattern == "" || doublestar.ValidatePattern(strings.ToLower(pattern))
}

// IsTiffName reports whether name ends in .tif or .tiff, in any case.
func IsTiffName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".tif", ".tiff":
		return true
	default:
		return false
	}
}
