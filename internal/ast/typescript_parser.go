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
	"path/filepath"
	"strings"

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptParser extracts imports from TypeScript and TSX source code.
//
// It recognizes the same import shapes as JavaScriptParser plus
// TypeScript's `import type` statements, which are extracted with the
// TypeOnly flag set. Files ending in .tsx are parsed with the TSX grammar;
// everything else uses the plain TypeScript grammar.
//
// Thread Safety: safe for concurrent use.
type TypeScriptParser struct {
	options ParserOptions
}

// NewTypeScriptParser creates a TypeScriptParser with the given options.
func NewTypeScriptParser(opts ...ParserOption) *TypeScriptParser {
	options := DefaultParserOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &TypeScriptParser{options: options}
}

// Language returns "typescript".
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// Parse extracts imports from TypeScript source code.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	lang := typescript.GetLanguage()
	if strings.EqualFold(filepath.Ext(filePath), ".tsx") {
		lang = tsx.GetLanguage()
	}
	return parseImports(ctx, content, filePath, "typescript", lang, true, p.options)
}
