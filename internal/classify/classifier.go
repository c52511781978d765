// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify decides whether resolved dependency paths stay inside
// the project and are safe to traverse further.
package classify

import (
	"path/filepath"
	"strings"
)

// Class is the classification of a dependency target.
type Class int

const (
	// ClassLocal targets are in-project files eligible for further traversal.
	ClassLocal Class = iota

	// ClassExternal targets live outside the project (packages,
	// node_modules trees). Their edges are recorded; they are never
	// expanded.
	ClassExternal

	// ClassRejected targets failed the path-safety check. The edge is
	// recorded but traversal stops at it.
	ClassRejected
)

// String returns the lowercase class name.
func (c Class) String() string {
	switch c {
	case ClassLocal:
		return "local"
	case ClassExternal:
		return "external"
	case ClassRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// knownExternals lists well-known framework and library name prefixes.
//
// Matching a bare specifier against this list classifies it External
// before any filesystem resolution is attempted, which is the single
// biggest resolution-work saver on typical frontend codebases.
var knownExternals = []string{
	"react",
	"react-dom",
	"react-router",
	"react-router-dom",
	"redux",
	"@reduxjs/",
	"@mui/",
	"@material-ui/",
	"@emotion/",
	"@testing-library/",
	"axios",
	"lodash",
	"lodash-es",
	"@tanstack/",
	"framer-motion",
	"@radix-ui/",
	"next/",
	"vue",
	"svelte",
	"@angular/",
	"@types/",
	"typescript",
	"vite",
	"webpack",
	"rollup",
}

// Classifier applies the local/external/rejected boundary rules.
//
// Thread Safety: Classifier is immutable after construction and safe for
// concurrent use by traversal workers.
type Classifier struct {
	score     ScoreConfig
	externals []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithScoreConfig overrides the default path-risk weights.
func WithScoreConfig(cfg ScoreConfig) Option {
	return func(c *Classifier) {
		c.score = cfg
	}
}

// WithExtraExternals appends prefixes to the known-external list.
func WithExtraExternals(prefixes []string) Option {
	return func(c *Classifier) {
		c.externals = append(c.externals, prefixes...)
	}
}

// New creates a Classifier with the default known-external list and
// score weights.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		score:     DefaultScoreConfig(),
		externals: knownExternals,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsKnownExternal reports whether a raw specifier names a well-known
// external package, allowing the scheduler to skip resolution entirely.
func (c *Classifier) IsKnownExternal(specifier string) bool {
	if strings.HasPrefix(specifier, "node_modules/") {
		return true
	}
	for _, prefix := range c.externals {
		if strings.HasPrefix(specifier, prefix) {
			return true
		}
	}
	return false
}

// Classify decides the class of a resolved candidate path discovered at
// the given traversal depth.
//
// The node_modules component check runs first: it is by far the most
// common external case and costs a string scan. The path-safety score
// runs last and only ever downgrades to Rejected.
func (c *Classifier) Classify(candidatePath string, depth int) Class {
	if HasNodeModulesComponent(candidatePath) {
		return ClassExternal
	}

	if score := c.score.Score(candidatePath, depth); c.score.Exceeds(score) {
		return ClassRejected
	}

	return ClassLocal
}

// ScoreConfig returns the classifier's active score weights.
func (c *Classifier) ScoreConfig() ScoreConfig {
	return c.score
}

// HasNodeModulesComponent reports whether any path component equals
// node_modules, at any position.
func HasNodeModulesComponent(path string) bool {
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == "node_modules" {
			return true
		}
	}
	return false
}
