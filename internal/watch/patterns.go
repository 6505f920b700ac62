// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// defaultPatterns select the files a pipeline run reads.
	defaultPatterns = []string{
		"**/settings.cue",
		"**/typesafe-conventions.cue",
		"**/gradle/**/*.versions.toml",
		"**/src/main/kotlin/**/*.gradle.kts",
	}

	// defaultIgnores are never watched. build/ holds everything a run writes.
	defaultIgnores = []string{
		"**/build/**",
		"**/.gradle/**",
		"**/.git/**",
		"**/.idea/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

// DefaultPatterns returns a copy of the built-in watch patterns.
func DefaultPatterns() []string { return slices.Clone(defaultPatterns) }

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string { return slices.Clone(defaultIgnores) }

// matcher filters paths relative to the watched root.
type matcher struct {
	patterns []string
	ignores  []string
}

func newMatcher(patterns, ignore []string) (*matcher, error) {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	if err := validatePatterns(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(ignore, "ignore"); err != nil {
		return nil, err
	}
	return &matcher{
		patterns: slices.Clone(patterns),
		ignores:  slices.Concat(defaultIgnores, ignore),
	}, nil
}

// ignored reports whether rel, or rel as a directory, is excluded.
func (m *matcher) ignored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	return matchAny(m.ignores, normalized) || matchAny(m.ignores, normalized+"/")
}

// selected reports whether a change to rel should trigger the callback.
func (m *matcher) selected(rel string) bool {
	normalized := filepath.ToSlash(rel)
	return !matchAny(m.ignores, normalized) && matchAny(m.patterns, normalized)
}

func matchAny(patterns []string, path string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, path); err == nil && ok {
			return true
		}
	}
	return false
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
