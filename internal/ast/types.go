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

import "fmt"

// ImportKind identifies the syntactic mechanism that introduced an import.
type ImportKind int

const (
	// KindStatic is an ES module import or re-export with a source:
	// `import x from './y'`, `export { a } from './y'`, `export * from './y'`.
	KindStatic ImportKind = iota

	// KindRequire is a CommonJS require() call with a string literal argument.
	KindRequire

	// KindDynamic is a dynamic import() expression with a string literal argument.
	KindDynamic

	// KindLazy is a dynamic import() nested inside a function literal that is
	// itself the argument of a wrapper call, e.g. `lazy(() => import('./Heavy'))`.
	// The wrapper identifier is not inspected; the shape is matched structurally.
	KindLazy
)

// String returns the lowercase name of the import kind.
func (k ImportKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindRequire:
		return "require"
	case KindDynamic:
		return "dynamic"
	case KindLazy:
		return "lazy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Dialect is the module system a source file appears to use.
type Dialect int

const (
	// DialectUnknown means no imports were observed.
	DialectUnknown Dialect = iota

	// DialectESModule means only ES module syntax was observed.
	DialectESModule

	// DialectCommonJS means only require() syntax was observed.
	DialectCommonJS

	// DialectMixed means both module systems appear in the same file.
	DialectMixed
)

// String returns the human-readable dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectESModule:
		return "esm"
	case DialectCommonJS:
		return "commonjs"
	case DialectMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Import is a single extracted import with its provenance.
//
// Imports are immutable after extraction. The Specifier is the raw string
// argument of the import mechanism; resolution to a file happens elsewhere.
type Import struct {
	// Specifier is the raw module specifier, e.g. "./utils" or "react".
	Specifier string `json:"specifier"`

	// Kind is the syntactic mechanism: static, require, dynamic, or lazy.
	Kind ImportKind `json:"kind"`

	// Line is the 1-based source line of the import.
	Line int `json:"line"`

	// Column is the 0-based source column of the import.
	Column int `json:"column"`

	// TypeOnly marks TypeScript `import type` statements. Type-only imports
	// are extracted but carry no runtime dependency.
	TypeOnly bool `json:"type_only,omitempty"`
}

// ParseResult holds everything extracted from one source file.
//
// A ParseResult may be partial: when the parser hits syntax it cannot
// recover, the imports extracted before the failure are still returned and
// the failure is recorded in Errors. Callers should treat a non-empty
// Errors slice as a soft, per-file condition rather than a hard failure.
type ParseResult struct {
	// FilePath is the path the content was parsed as.
	FilePath string `json:"file_path"`

	// Language is the parser language name ("javascript" or "typescript").
	Language string `json:"language"`

	// Imports are the extracted imports in source order.
	Imports []Import `json:"imports"`

	// Errors are recoverable parse irregularities, one message per region
	// the parser could not fully interpret.
	Errors []string `json:"errors,omitempty"`
}

// Dialect derives the module dialect from the kinds of imports observed.
func (r *ParseResult) Dialect() Dialect {
	var esm, cjs bool
	for _, imp := range r.Imports {
		switch imp.Kind {
		case KindRequire:
			cjs = true
		default:
			esm = true
		}
	}
	switch {
	case esm && cjs:
		return DialectMixed
	case esm:
		return DialectESModule
	case cjs:
		return DialectCommonJS
	default:
		return DialectUnknown
	}
}

// Partial reports whether extraction recorded any recoverable errors.
func (r *ParseResult) Partial() bool {
	return len(r.Errors) > 0
}
