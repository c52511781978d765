// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
)

// Parser defines the contract for language-specific import extraction.
//
// Description:
//
//	Parser implementations extract import specifiers from source code.
//	Each implementation handles one language dialect (JavaScript,
//	TypeScript) but produces output in the common ParseResult format.
//
//	The Parser interface is designed to be:
//	- Context-aware: supports cancellation via context.Context
//	- Error-tolerant: partial results returned even when parse errors occur
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use. The traversal
//	scheduler calls Parse from many workers simultaneously.
type Parser interface {
	// Parse extracts imports from source code.
	//
	// Returns a ParseResult that is never nil on success. Syntax
	// irregularities are reported in ParseResult.Errors together with the
	// imports extracted before them; only complete failures (invalid
	// UTF-8, oversized content) return a non-nil error.
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical lowercase language name,
	// e.g. "javascript" or "typescript".
	Language() string

	// Extensions returns the file extensions this parser handles,
	// including the leading dot, lowercase.
	Extensions() []string
}

// Registry manages parser instances by language and file extension.
//
// Thread Safety: fully thread-safe; registration uses write locks,
// lookups use read locks.
type Registry struct {
	mu sync.RWMutex

	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with the JavaScript and TypeScript
// parsers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJavaScriptParser())
	r.Register(NewTypeScriptParser())
	return r
}

// Register adds a parser under its Language() name and all its Extensions().
// Existing registrations for the same keys are overwritten. Nil parsers
// are ignored.
func (r *Registry) Register(parser Parser) {
	if parser == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser
	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser registered for the given language name.
func (r *Registry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byLanguage[language]
	return parser, ok
}

// GetByExtension returns the parser for a file extension including the
// dot, e.g. ".tsx".
func (r *Registry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byExtension[ext]
	return parser, ok
}

// Extensions returns all registered file extensions.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}
