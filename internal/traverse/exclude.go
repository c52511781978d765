// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import (
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ExcludeMatcher tests paths against user-configured exclude patterns
// using gitignore syntax.
//
// A path matches when the root-relative form matches a pattern, or when
// any single path component matches on its own. The component check is
// what lets an excluded directory name short-circuit descent: a match on
// "generated" stops traversal into any generated/ directory without
// inspecting its contents.
//
// Thread Safety: safe for concurrent use after construction.
type ExcludeMatcher struct {
	root     string
	patterns []string
	matcher  *ignore.GitIgnore
}

// NewExcludeMatcher compiles patterns rooted at root. An empty pattern
// list yields a matcher that excludes nothing.
func NewExcludeMatcher(root string, patterns []string) *ExcludeMatcher {
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			cleaned = append(cleaned, pattern)
		}
	}

	m := &ExcludeMatcher{root: root, patterns: cleaned}
	if len(cleaned) > 0 {
		m.matcher = ignore.CompileIgnoreLines(cleaned...)
	}
	return m
}

// Matches reports whether path is excluded.
func (m *ExcludeMatcher) Matches(path string) bool {
	if m.matcher == nil {
		return false
	}

	candidate := path
	if m.root != "" {
		if rel, err := filepath.Rel(m.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			candidate = rel
		}
	}
	candidate = filepath.ToSlash(candidate)

	if m.matcher.MatchesPath(candidate) {
		return true
	}

	for _, component := range strings.Split(candidate, "/") {
		if component == "" || component == "." {
			continue
		}
		if m.matcher.MatchesPath(component) {
			return true
		}
	}

	return false
}

// Patterns returns the compiled pattern list.
func (m *ExcludeMatcher) Patterns() []string {
	return m.patterns
}
