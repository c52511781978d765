// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packlet.yaml")
	content := `
traversal:
  max_depth: 10
  exclude:
    - generated
    - "*.test.ts"
resolution:
  aliases:
    "@app/*": ["src/app/*"]
health:
  stall_window_seconds: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Traversal.MaxDepth)
	assert.Equal(t, []string{"generated", "*.test.ts"}, cfg.Traversal.Exclude)
	assert.Equal(t, []string{"src/app/*"}, cfg.Resolution.Aliases["@app/*"])
	assert.Equal(t, 5, cfg.Health.StallWindowSeconds)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Health.ConsecutiveErrorCeiling)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err, "missing file should not error")
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PACKLET_MAX_DEPTH", "7")
	t.Setenv("PACKLET_EXCLUDE", "dist, build ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Traversal.MaxDepth)
	assert.Equal(t, []string{"dist", "build"}, cfg.Traversal.Exclude)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_depth", func(c *Config) { c.Traversal.MaxDepth = 0 }},
		{"negative max_files", func(c *Config) { c.Traversal.MaxFiles = -1 }},
		{"empty extensions", func(c *Config) { c.Resolution.Extensions = nil }},
		{"dotted extension", func(c *Config) { c.Resolution.Extensions = []string{".ts"} }},
		{"zero consecutive ceiling", func(c *Config) { c.Health.ConsecutiveErrorCeiling = 0 }},
		{"lifetime below consecutive", func(c *Config) { c.Health.LifetimeErrorCeiling = 10 }},
		{"zero stall window", func(c *Config) { c.Health.StallWindowSeconds = 0 }},
		{"zero score threshold", func(c *Config) { c.Score.Threshold = 0 }},
		{"zero cache bound", func(c *Config) { c.Cache.ContentEntries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToTraverseConfig(t *testing.T) {
	cfg := Default()
	cfg.Traversal.MaxFiles = 100
	cfg.Health.StallWindowSeconds = 12

	tc := cfg.ToTraverseConfig("/project")

	assert.Equal(t, "/project", tc.Root)
	assert.Equal(t, 100, tc.MaxFiles)
	assert.Equal(t, 12*time.Second, tc.Health.StallWindow)
	assert.Equal(t, cfg.Score.Threshold, tc.Score.Threshold)
}

func TestSplitPatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitPatterns(" a , ,b,"))
	assert.Nil(t, SplitPatterns(""))
}
