// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the two bounded caches shared by traversal
// workers: canonical-path results keyed by the raw joined path, and file
// contents keyed by canonical path. Both use LRU eviction and are
// constructed per traversal run.
package cache

import (
	"os"
	"path/filepath"
)

// Default entry bounds for the traversal caches.
const (
	// DefaultPathCacheSize bounds the canonicalization cache. Path
	// canonicalization is cheap to store and extremely repetitive across
	// sibling imports, so this bound is generous.
	DefaultPathCacheSize = 2048

	// DefaultContentCacheSize bounds the file-content cache. Contents are
	// large, so the bound is tighter; a bundle rarely revisits more files
	// than this between eviction and use.
	DefaultContentCacheSize = 512
)

// PathCache memoizes path canonicalization (symlink and ".." resolution).
//
// Keys are the raw joined paths as produced by the resolver before any
// filesystem consultation; values are canonical absolute paths. Within a
// single run a key always maps to the same canonical path, so entries are
// never invalidated, only evicted.
type PathCache struct {
	lru *LRU[string, string]
}

// NewPathCache creates a canonicalization cache bounded to size entries.
func NewPathCache(size int) *PathCache {
	if size <= 0 {
		size = DefaultPathCacheSize
	}
	return &PathCache{lru: NewLRU[string, string](size)}
}

// Canonicalize resolves rawPath to its canonical absolute form,
// consulting the cache first.
//
// On miss the filesystem is consulted (Abs + EvalSymlinks) and the result
// stored. The path must exist; nonexistent paths return an error and are
// not cached.
func (c *PathCache) Canonicalize(rawPath string) (string, error) {
	if canonical, ok := c.lru.Get(rawPath); ok {
		return canonical, nil
	}

	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}

	c.lru.Set(rawPath, canonical)
	return canonical, nil
}

// Stats returns hit/miss/eviction counters.
func (c *PathCache) Stats() (hits, misses, evictions int64) {
	return c.lru.Stats()
}

// Len returns the number of cached canonicalizations.
func (c *PathCache) Len() int {
	return c.lru.Len()
}

// ContentCache memoizes file contents keyed by canonical path.
type ContentCache struct {
	lru *LRU[string, string]
}

// NewContentCache creates a content cache bounded to size entries.
func NewContentCache(size int) *ContentCache {
	if size <= 0 {
		size = DefaultContentCacheSize
	}
	return &ContentCache{lru: NewLRU[string, string](size)}
}

// Read returns the content of the file at canonicalPath, consulting the
// cache first and populating it on miss. Read failures are returned to
// the caller and nothing is cached.
func (c *ContentCache) Read(canonicalPath string) (string, error) {
	if content, ok := c.lru.Get(canonicalPath); ok {
		return content, nil
	}

	data, err := os.ReadFile(canonicalPath)
	if err != nil {
		return "", err
	}

	content := string(data)
	c.lru.Set(canonicalPath, content)
	return content, nil
}

// Stats returns hit/miss/eviction counters.
func (c *ContentCache) Stats() (hits, misses, evictions int64) {
	return c.lru.Stats()
}

// Len returns the number of cached files.
func (c *ContentCache) Len() int {
	return c.lru.Len()
}
