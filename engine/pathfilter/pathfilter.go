// Package pathfilter implements the exclusion rules and glob matching used
// while scanning a local tree for backup, and while filtering the logical
// view for list/restore.
package pathfilter

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// excludedTokens are path components that, when present anywhere in a
// forward-slash-split relative path, remove that path from consideration.
// Matching is on whole components, never substrings: "node_modules0" is
// kept even though it contains "node_modules".
var excludedTokens = map[string]struct{}{
	".env":         {},
	".venv":        {},
	"venv":         {},
	"virtualenv":   {},
	".virtualenv":  {},
	"__pycache__":  {},
	".mypy_cache":  {},
	"node_modules": {},
	".DS_Store":    {},
}

// Filter rejects local paths matching the hard-coded exclusion tokens and,
// optionally, a supplemental set of ignore globs (config-driven, not part
// of the normative backup-selection glob format).
type Filter struct {
	extra []string
}

// New creates a Filter. extraGlobs are additional doublestar-syntax ignore
// patterns (supporting "**", "?", "[]") matched against the full relative
// path; any match excludes the path from backup.
func New(extraGlobs ...string) *Filter {
	return &Filter{extra: extraGlobs}
}

// Reject reports whether relPath should be excluded from backup.
func (f *Filter) Reject(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if _, excluded := excludedTokens[part]; excluded {
			return true
		}
	}
	for _, pattern := range f.extra {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
