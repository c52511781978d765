// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// tsConfigJSON mirrors the subset of tsconfig.json/jsconfig.json the
// resolver cares about: path aliases plus the extends chain they may
// arrive through.
type tsConfigJSON struct {
	CompilerOptions tsCompilerOptions `json:"compilerOptions"`
	Extends         string            `json:"extends"`
}

type tsCompilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

// TSConfig is a parsed, extends-flattened module resolution config.
//
// BaseURL is absolute when present. Paths maps alias patterns (possibly
// containing a single '*' wildcard) to replacement lists interpreted
// relative to BaseURL, or to ConfigDir when BaseURL is unset.
type TSConfig struct {
	BaseURL   string
	Paths     map[string][]string
	ConfigDir string
}

// ResolveAlias matches specifier against the config's path aliases.
//
// Patterns are tried longest literal prefix first, the way tsc orders
// them, so "@app/deep/*" beats "@app/*" for a specifier both match and
// the winning pattern does not depend on map iteration order. Returns
// the substituted candidate paths in declaration order, or nil if no
// pattern matches. Candidates are filesystem paths that may or may not
// exist; the caller attempts extension resolution on each.
func (c *TSConfig) ResolveAlias(specifier string) []string {
	patterns := make([]string, 0, len(c.Paths))
	for pattern := range c.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		pi, pj := patternPrefix(patterns[i]), patternPrefix(patterns[j])
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return patterns[i] < patterns[j]
	})

	for _, pattern := range patterns {
		if candidates := c.matchPattern(specifier, pattern, c.Paths[pattern]); candidates != nil {
			return candidates
		}
	}
	return nil
}

// patternPrefix returns the literal text before the wildcard, or the
// whole pattern for exact (wildcard-free) aliases.
func patternPrefix(pattern string) string {
	if idx := strings.IndexByte(pattern, '*'); idx >= 0 {
		return pattern[:idx]
	}
	return pattern
}

func (c *TSConfig) matchPattern(specifier, pattern string, replacements []string) []string {
	baseDir := c.BaseURL
	if baseDir == "" {
		baseDir = c.ConfigDir
	}

	if strings.Contains(pattern, "*") {
		parts := strings.SplitN(pattern, "*", 2)
		if strings.Contains(parts[1], "*") {
			// tsconfig allows at most one wildcard per pattern.
			return nil
		}
		prefix, suffix := parts[0], parts[1]

		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) ||
			len(specifier) < len(prefix)+len(suffix) {
			return nil
		}
		wildcard := specifier[len(prefix) : len(specifier)-len(suffix)]

		candidates := make([]string, 0, len(replacements))
		for _, replacement := range replacements {
			resolved := replacement
			if strings.Contains(replacement, "*") {
				resolved = strings.Replace(replacement, "*", wildcard, 1)
			}
			candidates = append(candidates, filepath.Join(baseDir, resolved))
		}
		return candidates
	}

	if specifier == pattern {
		candidates := make([]string, 0, len(replacements))
		for _, replacement := range replacements {
			candidates = append(candidates, filepath.Join(baseDir, replacement))
		}
		return candidates
	}

	return nil
}

// TSConfigIndex discovers and caches tsconfig.json/jsconfig.json files.
//
// Discovery walks up from the importing file's directory; parse results
// are cached per config file and per starting directory, since a large
// traversal asks for the same config thousands of times.
//
// Thread Safety: safe for concurrent use.
type TSConfigIndex struct {
	mu       sync.Mutex
	byConfig map[string]*TSConfig // config file path -> parsed config
	byDir    map[string]*TSConfig // starting dir -> config (nil entry means "none found")
	logger   *slog.Logger
}

// NewTSConfigIndex creates an empty index.
func NewTSConfigIndex(logger *slog.Logger) *TSConfigIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &TSConfigIndex{
		byConfig: make(map[string]*TSConfig),
		byDir:    make(map[string]*TSConfig),
		logger:   logger,
	}
}

// ForFile returns the module resolution config governing fromFile, or
// nil if no tsconfig.json or jsconfig.json exists on the walk up to the
// filesystem root. Parse failures are logged and treated as "none": a
// broken tsconfig must not fail every import in the project.
func (idx *TSConfigIndex) ForFile(fromFile string) *TSConfig {
	dir := filepath.Dir(fromFile)
	if info, err := os.Stat(fromFile); err == nil && info.IsDir() {
		dir = fromFile
	}

	idx.mu.Lock()
	cached, ok := idx.byDir[dir]
	idx.mu.Unlock()
	if ok {
		return cached
	}

	config := idx.findAndParse(dir)

	idx.mu.Lock()
	idx.byDir[dir] = config
	idx.mu.Unlock()
	return config
}

func (idx *TSConfigIndex) findAndParse(dir string) *TSConfig {
	for current := dir; ; {
		for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
			configPath := filepath.Join(current, name)
			if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
				config, err := idx.parse(configPath)
				if err != nil {
					idx.logger.Warn("Skipping unparseable module resolution config",
						"path", configPath, "error", err)
					return nil
				}
				return config
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil
		}
		current = parent
	}
}

func (idx *TSConfigIndex) parse(configPath string) (*TSConfig, error) {
	idx.mu.Lock()
	if cached, ok := idx.byConfig[configPath]; ok {
		idx.mu.Unlock()
		return cached, nil
	}
	idx.mu.Unlock()

	raw, err := loadConfigJSON(configPath)
	if err != nil {
		return nil, err
	}

	configDir := filepath.Dir(configPath)

	baseURL := ""
	if raw.CompilerOptions.BaseURL != "" {
		baseURL = filepath.Join(configDir, raw.CompilerOptions.BaseURL)
	}

	paths := make(map[string][]string)

	// Walk the extends chain. A child's own settings win over anything
	// inherited, and a repeated extends target terminates the walk
	// instead of looping.
	visited := map[string]bool{}
	extends := raw.Extends
	for extends != "" {
		if visited[extends] {
			idx.logger.Warn("Circular tsconfig extends chain", "extends", extends)
			break
		}
		visited[extends] = true

		extendedPath := idx.extendedConfigPath(configDir, extends)
		extendedRaw, err := loadConfigJSON(extendedPath)
		if err != nil {
			idx.logger.Warn("Extended tsconfig not loadable",
				"path", extendedPath, "error", err)
			break
		}

		if baseURL == "" && extendedRaw.CompilerOptions.BaseURL != "" {
			baseURL = filepath.Join(filepath.Dir(extendedPath), extendedRaw.CompilerOptions.BaseURL)
		}
		for pattern, replacements := range extendedRaw.CompilerOptions.Paths {
			if _, exists := paths[pattern]; !exists {
				paths[pattern] = replacements
			}
		}

		extends = extendedRaw.Extends
	}

	for pattern, replacements := range raw.CompilerOptions.Paths {
		paths[pattern] = replacements
	}

	config := &TSConfig{
		BaseURL:   baseURL,
		Paths:     paths,
		ConfigDir: configDir,
	}

	idx.mu.Lock()
	idx.byConfig[configPath] = config
	idx.mu.Unlock()
	return config, nil
}

// extendedConfigPath turns an extends value into a config file path.
// Relative targets resolve against the extending config's directory;
// bare targets (shared config packages) resolve under the nearest
// node_modules directory.
func (idx *TSConfigIndex) extendedConfigPath(configDir, extends string) string {
	var path string
	if strings.HasPrefix(extends, "./") || strings.HasPrefix(extends, "../") {
		path = filepath.Join(configDir, extends)
	} else {
		path = filepath.Join(findNodeModules(configDir), extends)
	}

	if filepath.Ext(path) == "" {
		path += ".json"
	}
	return path
}

func findNodeModules(from string) string {
	for current := from; ; {
		candidate := filepath.Join(current, "node_modules")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Join(from, "node_modules")
		}
		current = parent
	}
}

func loadConfigJSON(path string) (*tsConfigJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	stripped := normalizeJSONC(string(data))

	var raw tsConfigJSON
	if err := json.Unmarshal([]byte(stripped), &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &raw, nil
}

// normalizeJSONC reduces tsconfig's JSONC dialect to strict JSON by
// removing comments and trailing commas.
func normalizeJSONC(content string) string {
	return stripTrailingCommas(stripJSONComments(content))
}

// stripJSONComments removes // and /* */ comments. String contents are
// preserved, including escaped quotes.
func stripJSONComments(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if escaped {
			out.WriteByte(ch)
			escaped = false
			continue
		}

		if inString {
			if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			out.WriteByte(ch)
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out.WriteByte(ch)
		case ch == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			if i < len(content) {
				out.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			i += 2
			for i+1 < len(content) && !(content[i] == '*' && content[i+1] == '/') {
				i++
			}
			i++ // lands on the closing '/', loop increment steps past it
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}

// stripTrailingCommas drops a comma whose next non-whitespace byte
// closes the surrounding object or array. String contents are preserved.
func stripTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out.WriteByte(ch)
		case ch == ',':
			j := i + 1
			for j < len(content) && (content[j] == ' ' || content[j] == '\t' ||
				content[j] == '\n' || content[j] == '\r') {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
			out.WriteByte(ch)
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}
