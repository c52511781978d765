// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates packlet configuration from files,
// environment variables, and CLI flags. Invalid values fail fast before
// any traversal work begins.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/packlet/internal/classify"
	"github.com/AleutianAI/packlet/internal/health"
	"github.com/AleutianAI/packlet/internal/traverse"
)

// Config is the full packlet configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Config struct {
	// Traversal contains graph expansion limits.
	Traversal TraversalConfig `json:"traversal" yaml:"traversal"`

	// Resolution contains specifier resolution settings.
	Resolution ResolutionConfig `json:"resolution" yaml:"resolution"`

	// Health contains circuit breaker settings.
	Health HealthConfig `json:"health" yaml:"health"`

	// Score contains the path safety score weights.
	Score classify.ScoreConfig `json:"score" yaml:"score"`

	// Cache contains LRU cache bounds.
	Cache CacheConfig `json:"cache" yaml:"cache"`
}

// TraversalConfig contains graph expansion limits.
type TraversalConfig struct {
	MaxDepth  int      `json:"max_depth" yaml:"max_depth"`
	MaxFiles  int      `json:"max_files" yaml:"max_files"`
	Workers   int      `json:"workers" yaml:"workers"`
	GraphOnly bool     `json:"graph_only" yaml:"graph_only"`
	Exclude   []string `json:"exclude" yaml:"exclude"`
}

// ResolutionConfig contains specifier resolution settings.
type ResolutionConfig struct {
	// Extensions is the probing order for extensionless imports.
	Extensions []string `json:"extensions" yaml:"extensions"`

	// Aliases maps path-alias patterns to replacement lists, relative
	// to the project root, supplementing any tsconfig aliases.
	Aliases map[string][]string `json:"aliases" yaml:"aliases"`

	// ExtraExternals adds specifier prefixes treated as external
	// packages without resolution.
	ExtraExternals []string `json:"extra_externals" yaml:"extra_externals"`
}

// HealthConfig contains circuit breaker settings.
type HealthConfig struct {
	ConsecutiveErrorCeiling int `json:"consecutive_error_ceiling" yaml:"consecutive_error_ceiling"`
	LifetimeErrorCeiling    int `json:"lifetime_error_ceiling" yaml:"lifetime_error_ceiling"`
	StallWindowSeconds      int `json:"stall_window_seconds" yaml:"stall_window_seconds"`
	StallCheckInterval      int `json:"stall_check_interval" yaml:"stall_check_interval"`
}

// CacheConfig contains LRU cache bounds.
type CacheConfig struct {
	PathEntries    int `json:"path_entries" yaml:"path_entries"`
	ContentEntries int `json:"content_entries" yaml:"content_entries"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Traversal: TraversalConfig{
			MaxDepth: 50,
		},
		Resolution: ResolutionConfig{
			Extensions: []string{"tsx", "ts", "jsx", "js", "mjs", "cjs", "json"},
		},
		Health: HealthConfig{
			ConsecutiveErrorCeiling: 50,
			LifetimeErrorCeiling:    1000,
			StallWindowSeconds:      30,
			StallCheckInterval:      100,
		},
		Score: classify.DefaultScoreConfig(),
		Cache: CacheConfig{
			PathEntries:    2048,
			ContentEntries: 512,
		},
	}
}

// Load builds the configuration from defaults, an optional config file,
// and environment overrides, then validates it.
//
// Inputs:
//   - path: config file path; empty or nonexistent paths fall back to
//     defaults without error.
//
// Outputs:
//   - Config: the merged configuration.
//   - error: parse or validation failure.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return config, err
		}
	}
	loadEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON.
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(config *Config) {
	if v := os.Getenv("PACKLET_MAX_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Traversal.MaxDepth = i
		}
	}
	if v := os.Getenv("PACKLET_MAX_FILES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Traversal.MaxFiles = i
		}
	}
	if v := os.Getenv("PACKLET_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Traversal.Workers = i
		}
	}
	if v := os.Getenv("PACKLET_EXCLUDE"); v != "" {
		config.Traversal.Exclude = SplitPatterns(v)
	}
	if v := os.Getenv("PACKLET_STALL_WINDOW_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Health.StallWindowSeconds = i
		}
	}
}

// Validate checks the configuration before traversal starts.
func (c Config) Validate() error {
	if c.Traversal.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1")
	}
	if c.Traversal.MaxFiles < 0 {
		return fmt.Errorf("max_files must be >= 0")
	}
	if c.Traversal.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if len(c.Resolution.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Resolution.Extensions {
		if strings.HasPrefix(ext, ".") || ext == "" {
			return fmt.Errorf("extensions are listed without dots, got %q", ext)
		}
	}
	if c.Health.ConsecutiveErrorCeiling < 1 {
		return fmt.Errorf("consecutive_error_ceiling must be >= 1")
	}
	if c.Health.LifetimeErrorCeiling < c.Health.ConsecutiveErrorCeiling {
		return fmt.Errorf("lifetime_error_ceiling must be >= consecutive_error_ceiling")
	}
	if c.Health.StallWindowSeconds < 1 {
		return fmt.Errorf("stall_window_seconds must be >= 1")
	}
	if c.Score.Threshold < 1 {
		return fmt.Errorf("score threshold must be >= 1")
	}
	if c.Cache.PathEntries < 1 || c.Cache.ContentEntries < 1 {
		return fmt.Errorf("cache bounds must be >= 1")
	}
	return nil
}

// ToTraverseConfig converts the configuration into the traversal
// engine's config, rooted at root.
func (c Config) ToTraverseConfig(root string) traverse.Config {
	return traverse.Config{
		Root:             root,
		MaxDepth:         c.Traversal.MaxDepth,
		MaxFiles:         c.Traversal.MaxFiles,
		Workers:          c.Traversal.Workers,
		GraphOnly:        c.Traversal.GraphOnly,
		Exclude:          c.Traversal.Exclude,
		Extensions:       c.Resolution.Extensions,
		Aliases:          c.Resolution.Aliases,
		ExtraExternals:   c.Resolution.ExtraExternals,
		PathCacheSize:    c.Cache.PathEntries,
		ContentCacheSize: c.Cache.ContentEntries,
		Health: health.Config{
			ConsecutiveErrorCeiling: c.Health.ConsecutiveErrorCeiling,
			LifetimeErrorCeiling:    c.Health.LifetimeErrorCeiling,
			StallWindow:             time.Duration(c.Health.StallWindowSeconds) * time.Second,
			StallCheckInterval:      c.Health.StallCheckInterval,
		},
		Score: c.Score,
	}
}

// SplitPatterns splits a comma-separated pattern list, trimming
// whitespace and dropping empty entries.
func SplitPatterns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
