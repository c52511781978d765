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
	"fmt"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptParser extracts imports from JavaScript source code.
//
// Description:
//
//	JavaScriptParser uses tree-sitter to parse JavaScript source files and
//	extract every import mechanism the dependency traverser needs to
//	follow: ES module import/export-from statements, CommonJS require()
//	calls, dynamic import() expressions, and lazy-wrapped dynamic imports
//	such as `const X = lazy(() => import('./Heavy'))`.
//
// Thread Safety:
//
//	JavaScriptParser is safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser instance.
type JavaScriptParser struct {
	options ParserOptions
}

// ParserOptions configures the JavaScript and TypeScript parsers.
type ParserOptions struct {
	// MaxFileSize is the maximum content size in bytes to parse.
	// Larger content returns ErrFileTooLarge. Default: 10MB.
	MaxFileSize int
}

// DefaultParserOptions returns the default options.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		MaxFileSize: 10 * 1024 * 1024,
	}
}

// ParserOption is a functional option for configuring a parser.
type ParserOption func(*ParserOptions)

// WithMaxFileSize sets the maximum content size for parsing.
func WithMaxFileSize(size int) ParserOption {
	return func(o *ParserOptions) {
		o.MaxFileSize = size
	}
}

// NewJavaScriptParser creates a JavaScriptParser with the given options.
func NewJavaScriptParser(opts ...ParserOption) *JavaScriptParser {
	options := DefaultParserOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaScriptParser{options: options}
}

// Language returns "javascript".
func (p *JavaScriptParser) Language() string {
	return "javascript"
}

// Extensions returns the file extensions this parser handles.
func (p *JavaScriptParser) Extensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx"}
}

// Parse extracts imports from JavaScript source code.
//
// Syntax the parser cannot fully interpret is recorded in
// ParseResult.Errors while the imports extracted before and after the
// unparseable region are still returned.
func (p *JavaScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return parseImports(ctx, content, filePath, "javascript", javascript.GetLanguage(), false, p.options)
}

// parseImports is the shared parse pipeline for both dialects.
func parseImports(ctx context.Context, content []byte, filePath, language string, lang *sitter.Language, typeOnly bool, options ParserOptions) (*ParseResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s parse canceled before start: %w", language, err)
	}
	if len(content) > options.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: language,
		Imports:  make([]Import, 0),
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", ErrParseFailed)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s parse canceled after tree-sitter: %w", language, err)
	}

	scanner := newImportScanner(content, result, typeOnly)
	scanner.scan(tree.RootNode())

	recordParse(ctx, language, len(result.Imports), len(result.Errors), time.Since(start))

	return result, nil
}
