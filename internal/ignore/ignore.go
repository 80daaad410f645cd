// Package ignore implements the watcher's exclude-path matching (spec §4.4,
// §6 "Default ignore set"), using bmatcuk/doublestar for the glob syntax
// standardbeagle-lci's go.mod pulls in for its own ignore-pattern handling,
// instead of the teacher's hardcoded name-equality checks in
// cmd/watch.go's addRecursive.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns is the spec §6 default ignore set.
var DefaultPatterns = []string{
	".graph/**",
	".git/**",
	"node_modules/**",
	"**/node_modules/**",
	"dist/**",
	"**/dist/**",
	"build/**",
	"**/build/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/venv/**",
	"**/*.egg-info/**",
}

// Matcher tests repository-relative paths against a set of doublestar glob
// patterns.
type Matcher struct {
	patterns []string
}

// New builds a Matcher from the default patterns plus any user-configured
// ones (spec §6: "user-configured patterns").
func New(extra []string) *Matcher {
	patterns := make([]string, 0, len(DefaultPatterns)+len(extra))
	patterns = append(patterns, DefaultPatterns...)
	patterns = append(patterns, extra...)
	return &Matcher{patterns: patterns}
}

// Match reports whether rel (a path relative to the repository root, using
// '/' separators) should be excluded from watching/extraction.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// Also match the pattern with its trailing "/**" removed, so
		// "node_modules/**" excludes the "node_modules" directory itself,
		// not only the paths beneath it, when walking directory-by-directory.
		if ok, _ := doublestar.Match(strings.TrimSuffix(p, "/**"), rel); ok {
			return true
		}
	}
	return false
}
