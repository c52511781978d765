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

// JavaScript/TypeScript tree-sitter node types used for import extraction.
//
// The extractor uses direct node traversal rather than tree-sitter's query
// language for precise control over which call shapes count as imports.
// The TypeScript grammar is a superset of the JavaScript grammar for every
// node type listed here, so both parsers share these constants.
//
// Reference: https://github.com/tree-sitter/tree-sitter-javascript
const (
	jsNodeImportStatement = "import_statement"
	jsNodeExportStatement = "export_statement"
	jsNodeString          = "string"
	jsNodeStringFragment  = "string_fragment"

	jsNodeCallExpression  = "call_expression"
	jsNodeArguments       = "arguments"
	jsNodeIdentifier      = "identifier"
	jsNodeImport          = "import"
	jsNodeArrowFunction   = "arrow_function"
	jsNodeFunctionExpr    = "function_expression"
	jsNodeStatementBlock  = "statement_block"
	jsNodeReturnStatement = "return_statement"
	jsNodeParenthesized   = "parenthesized_expression"

	jsNodeError = "ERROR"
)

// Import extraction AST shapes:
//
// import_statement
// ├── import
// ├── import_clause?
// ├── from?
// └── string                          // specifier (static)
//
// export_statement
// ├── export
// ├── export_clause | *
// ├── from
// └── string                          // specifier (static re-export)
//
// call_expression                      // require('./x')   (require)
// ├── identifier "require"
// └── arguments ( string )
//
// call_expression                      // import('./x')    (dynamic)
// ├── import
// └── arguments ( string )
//
// call_expression                      // lazy(() => import('./x'))  (lazy)
// ├── <any callee>
// └── arguments
//     └── arrow_function | function_expression
//         └── body: import(...) | { return import(...) }
