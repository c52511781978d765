// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve turns raw import specifiers into canonical filesystem
// paths. It understands relative imports, tsconfig/jsconfig path
// aliases (including extends chains), asset imports, and the extension
// probing order JavaScript bundlers use. Canonicalization results are
// memoized in a shared LRU path cache.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/packlet/internal/cache"
	"github.com/AleutianAI/packlet/internal/classify"
)

// ErrUnresolved marks a specifier that matched no file on disk. It is a
// soft error: callers record it against the originating edge and keep
// traversing.
var ErrUnresolved = errors.New("specifier did not resolve to a file")

// Status is the outcome category of a resolution attempt.
type Status int

const (
	// StatusLocal means the specifier resolved to a project file.
	StatusLocal Status = iota

	// StatusExternal means the specifier names a package dependency
	// outside the project (node_modules or a known framework).
	StatusExternal

	// StatusUnresolved means the specifier looked local but no file
	// matched after alias substitution and extension probing.
	StatusUnresolved
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusLocal:
		return "local"
	case StatusExternal:
		return "external"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Resolution is the result of resolving one specifier.
type Resolution struct {
	// Status categorizes the outcome.
	Status Status

	// Path is the canonical absolute path of the target. Set only for
	// StatusLocal.
	Path string

	// Asset reports that the target is a non-code asset (stylesheet,
	// image, data file). Asset targets are recorded but never parsed.
	Asset bool
}

// DefaultExtensions is the probing order for extensionless specifiers,
// matching bundler convention: TypeScript before JavaScript, JSX
// variants before plain.
var DefaultExtensions = []string{"tsx", "ts", "jsx", "js", "mjs", "cjs", "json"}

// assetExtensions lists file extensions that identify an import as a
// bundler-handled asset rather than traversable source.
var assetExtensions = map[string]bool{
	"css": true, "scss": true, "sass": true, "less": true, "styl": true, "stylus": true,
	"png": true, "jpg": true, "jpeg": true, "gif": true, "svg": true, "webp": true, "ico": true,
	"woff": true, "woff2": true, "ttf": true, "otf": true, "eot": true,
	"mp4": true, "webm": true, "ogg": true, "mp3": true, "wav": true,
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"json": true, "xml": true, "yaml": true, "yml": true, "toml": true,
	"md": true, "mdx": true,
	"txt": true, "csv": true,
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtensions overrides the extension probing order.
func WithExtensions(extensions []string) Option {
	return func(r *Resolver) {
		if len(extensions) > 0 {
			r.extensions = extensions
		}
	}
}

// WithAliases installs configuration-supplied path aliases, interpreted
// relative to baseDir. They are consulted after tsconfig aliases and
// use the same pattern syntax (one optional '*' wildcard).
func WithAliases(aliases map[string][]string, baseDir string) Option {
	return func(r *Resolver) {
		if len(aliases) > 0 {
			r.configured = &TSConfig{Paths: aliases, ConfigDir: baseDir}
		}
	}
}

// WithClassifier overrides the boundary classifier used for the
// known-external fast path.
func WithClassifier(c *classify.Classifier) Option {
	return func(r *Resolver) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithLogger overrides the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver resolves import specifiers for one traversal run.
//
// Description:
//
//	Resolution order follows bundler semantics: external fast path,
//	asset detection, tsconfig path aliases, configured aliases, then a
//	plain relative join. After path construction the resolver probes
//	extensions (exact match, configured extensions, index files inside
//	directories) and canonicalizes the hit through the shared path
//	cache, so repeated resolutions of the same raw path skip the
//	filesystem entirely.
//
// Thread Safety: safe for concurrent use by traversal workers.
type Resolver struct {
	paths      *cache.PathCache
	tsconfigs  *TSConfigIndex
	classifier *classify.Classifier
	configured *TSConfig
	extensions []string
	logger     *slog.Logger
}

// New creates a Resolver backed by the given canonicalization cache.
// A nil pathCache gets a private cache with default bounds.
func New(pathCache *cache.PathCache, opts ...Option) *Resolver {
	if pathCache == nil {
		pathCache = cache.NewPathCache(cache.DefaultPathCacheSize)
	}

	r := &Resolver{
		paths:      pathCache,
		classifier: classify.New(),
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tsconfigs = NewTSConfigIndex(r.logger)
	return r
}

// Resolve resolves specifier as imported from fromFile.
//
// Inputs:
//   - specifier: the raw import string as written in source.
//   - fromFile: absolute path of the importing file.
//
// Outputs:
//   - Resolution: the outcome; Path is canonical for StatusLocal.
//   - error: non-nil only for StatusUnresolved, wrapping ErrUnresolved.
func (r *Resolver) Resolve(specifier, fromFile string) (Resolution, error) {
	if r.isExternal(specifier, fromFile) {
		return Resolution{Status: StatusExternal}, nil
	}

	fromDir := filepath.Dir(fromFile)

	if IsAssetImport(specifier) {
		base, _, _ := strings.Cut(specifier, "?")
		candidate := filepath.Join(fromDir, base)
		if canonical, err := r.paths.Canonicalize(candidate); err == nil {
			return Resolution{Status: StatusLocal, Path: canonical, Asset: true}, nil
		}
		r.logger.Debug("Asset import not found", "specifier", specifier, "from", fromFile)
		return Resolution{Status: StatusUnresolved},
			fmt.Errorf("asset %q from %s: %w", specifier, fromFile, ErrUnresolved)
	}

	for _, table := range []*TSConfig{r.tsconfigs.ForFile(fromFile), r.configured} {
		if table == nil {
			continue
		}
		candidates := table.ResolveAlias(specifier)
		if candidates == nil {
			continue
		}
		for _, candidate := range candidates {
			if resolved, ok := r.probeExtensions(candidate); ok {
				return r.canonicalLocal(resolved, specifier, fromFile)
			}
		}
		r.logger.Warn("Alias matched but no file found",
			"specifier", specifier, "from", fromFile)
	}

	joined := filepath.Join(fromDir, specifier)
	if resolved, ok := r.probeExtensions(joined); ok {
		return r.canonicalLocal(resolved, specifier, fromFile)
	}

	r.logger.Warn("Could not resolve local import", "specifier", specifier, "from", fromFile)
	return Resolution{Status: StatusUnresolved},
		fmt.Errorf("%q from %s: %w", specifier, fromFile, ErrUnresolved)
}

// isExternal reports whether specifier names a dependency outside the
// project, without touching the filesystem where possible.
func (r *Resolver) isExternal(specifier, fromFile string) bool {
	if r.classifier.IsKnownExternal(specifier) {
		return true
	}

	// Relative and absolute specifiers are always local candidates.
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		// Unless the join walks into node_modules.
		joined := filepath.Join(filepath.Dir(fromFile), specifier)
		return classify.HasNodeModulesComponent(joined)
	}

	// A bare specifier is local only when an alias claims it.
	if config := r.tsconfigs.ForFile(fromFile); config != nil && config.ResolveAlias(specifier) != nil {
		return false
	}
	if r.configured != nil && r.configured.ResolveAlias(specifier) != nil {
		return false
	}

	return true
}

// canonicalLocal canonicalizes a probed hit through the path cache.
func (r *Resolver) canonicalLocal(resolved, specifier, fromFile string) (Resolution, error) {
	canonical, err := r.paths.Canonicalize(resolved)
	if err != nil {
		return Resolution{Status: StatusUnresolved},
			fmt.Errorf("canonicalizing %q for %q from %s: %w", resolved, specifier, fromFile, ErrUnresolved)
	}
	return Resolution{Status: StatusLocal, Path: canonical}, nil
}

// probeExtensions finds the file a constructed path refers to, trying
// the exact path, extension substitution, then index files when the
// path is a directory.
func (r *Resolver) probeExtensions(path string) (string, bool) {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return path, true
	}

	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range r.extensions {
		candidate := trimmed + "." + ext
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
	}

	if err == nil && info.IsDir() {
		for _, ext := range r.extensions {
			candidate := filepath.Join(path, "index."+ext)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate, true
			}
		}
	}

	return "", false
}

// IsAssetImport reports whether specifier names a bundler-handled asset
// (by extension, a ".module." CSS-modules infix, or an asset behind a
// "?" transform query).
func IsAssetImport(specifier string) bool {
	ext := strings.TrimPrefix(filepath.Ext(specifier), ".")
	if ext != "" && assetExtensions[strings.ToLower(ext)] {
		return true
	}

	if strings.Contains(specifier, ".module.") {
		return true
	}

	if base, _, found := strings.Cut(specifier, "?"); found {
		return IsAssetImport(base)
	}

	return false
}
