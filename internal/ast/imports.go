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
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// importScanner walks a parsed tree and collects imports into a ParseResult.
//
// The scanner is shared by the JavaScript and TypeScript parsers: the
// TypeScript grammar produces the same node types for every import shape
// the scanner recognizes. It is single-use and not safe for concurrent use
// on the same result; each Parse call creates its own scanner.
type importScanner struct {
	content  []byte
	result   *ParseResult
	typeOnly bool // recognize `import type` (TypeScript dialects)

	// consumed records start bytes of dynamic import() calls already
	// claimed by an enclosing lazy wrapper, so the inner call is not
	// reported a second time when the walk reaches it.
	consumed map[uint32]bool
}

func newImportScanner(content []byte, result *ParseResult, typeOnly bool) *importScanner {
	return &importScanner{
		content:  content,
		result:   result,
		typeOnly: typeOnly,
		consumed: make(map[uint32]bool),
	}
}

// scan performs a pre-order walk of the subtree rooted at node.
//
// Unparseable regions (ERROR nodes) are recorded as recoverable errors and
// skipped; extraction continues with the surrounding siblings so that a
// local syntax failure yields the successfully parsed prefix rather than
// aborting the whole file.
func (s *importScanner) scan(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Type() {
	case jsNodeError:
		s.result.Errors = append(s.result.Errors,
			fmt.Sprintf("unparseable syntax at line %d", int(node.StartPoint().Row)+1))
		return

	case jsNodeImportStatement:
		s.scanImportStatement(node)
		return

	case jsNodeExportStatement:
		// Only re-exports with a source carry a specifier:
		// export { a } from './x', export * from './x'.
		if spec, lit := s.findStringChild(node); lit != nil {
			s.add(Import{
				Specifier: spec,
				Kind:      KindStatic,
				Line:      int(node.StartPoint().Row) + 1,
				Column:    int(node.StartPoint().Column),
			})
		}
		// Fall through to children: `export const X = lazy(...)` nests a
		// wrapper call inside the export statement.

	case jsNodeCallExpression:
		s.scanCallExpression(node)
		// Keep descending: require() and import() can appear in arguments
		// of other calls.
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		s.scan(node.Child(i))
	}
}

// scanImportStatement extracts the specifier of a static import.
func (s *importScanner) scanImportStatement(node *sitter.Node) {
	spec, lit := s.findStringChild(node)
	if lit == nil {
		return
	}

	imp := Import{
		Specifier: spec,
		Kind:      KindStatic,
		Line:      int(node.StartPoint().Row) + 1,
		Column:    int(node.StartPoint().Column),
	}

	if s.typeOnly {
		raw := s.text(node)
		if strings.HasPrefix(raw, "import type") || strings.HasPrefix(raw, "import  type") {
			imp.TypeOnly = true
		}
	}

	s.add(imp)
}

// scanCallExpression classifies a call expression as require, dynamic
// import, or a lazy wrapper. Calls that match none of the shapes are
// ignored here (children are still walked by the caller).
func (s *importScanner) scanCallExpression(node *sitter.Node) {
	callee := node.ChildByFieldName("function")
	if callee == nil && node.ChildCount() > 0 {
		callee = node.Child(0)
	}
	if callee == nil {
		return
	}

	switch callee.Type() {
	case jsNodeImport:
		// Dynamic import(...). Skip when an enclosing wrapper already
		// reported it as lazy; skip silently when the argument is not a
		// string literal (computed at runtime).
		if s.consumed[node.StartByte()] {
			return
		}
		if spec, lit := s.firstStringArgument(node); lit != nil {
			s.add(Import{
				Specifier: spec,
				Kind:      KindDynamic,
				Line:      int(node.StartPoint().Row) + 1,
				Column:    int(node.StartPoint().Column),
			})
		}
		return

	case jsNodeIdentifier:
		if s.text(callee) == "require" {
			if spec, lit := s.firstStringArgument(node); lit != nil {
				s.add(Import{
					Specifier: spec,
					Kind:      KindRequire,
					Line:      int(node.StartPoint().Row) + 1,
					Column:    int(node.StartPoint().Column),
				})
			}
			return
		}
	}

	// Structural lazy-wrapper match: a call whose argument is a function
	// literal whose body, directly or via a return statement, is a dynamic
	// import. The wrapper identifier is deliberately not checked against a
	// name list; React.lazy, loadable, defineAsyncComponent and local
	// aliases all share this shape.
	s.scanLazyWrapper(node)
}

// scanLazyWrapper detects `wrapper(() => import('./x'))` and the
// block-bodied variant `wrapper(() => { return import('./x') })`.
func (s *importScanner) scanLazyWrapper(node *sitter.Node) {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}

	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != jsNodeArrowFunction && arg.Type() != jsNodeFunctionExpr {
			continue
		}

		inner := s.dynamicImportInBody(arg.ChildByFieldName("body"))
		if inner == nil {
			continue
		}

		spec, lit := s.firstStringArgument(inner)
		if lit == nil {
			continue
		}

		s.consumed[inner.StartByte()] = true
		s.add(Import{
			Specifier: spec,
			Kind:      KindLazy,
			Line:      int(node.StartPoint().Row) + 1,
			Column:    int(node.StartPoint().Column),
		})
	}
}

// dynamicImportInBody returns the import() call expression forming a
// function body, unwrapping parentheses and single-return blocks.
func (s *importScanner) dynamicImportInBody(body *sitter.Node) *sitter.Node {
	body = unwrapParens(body)
	if body == nil {
		return nil
	}

	if isDynamicImportCall(body) {
		return body
	}

	if body.Type() == jsNodeStatementBlock {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			if stmt.Type() != jsNodeReturnStatement {
				continue
			}
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				if expr := unwrapParens(stmt.NamedChild(j)); expr != nil && isDynamicImportCall(expr) {
					return expr
				}
			}
		}
	}

	return nil
}

// isDynamicImportCall reports whether node is `import(...)`.
func isDynamicImportCall(node *sitter.Node) bool {
	if node == nil || node.Type() != jsNodeCallExpression {
		return false
	}
	callee := node.ChildByFieldName("function")
	if callee == nil && node.ChildCount() > 0 {
		callee = node.Child(0)
	}
	return callee != nil && callee.Type() == jsNodeImport
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == jsNodeParenthesized {
		node = node.NamedChild(0)
	}
	return node
}

// firstStringArgument returns the literal content of the first argument
// when it is a plain string, along with the string node. Non-string
// arguments return a nil node: computed specifiers are skipped, not
// reported as errors.
func (s *importScanner) firstStringArgument(call *sitter.Node) (string, *sitter.Node) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == jsNodeString {
			return s.stringContent(arg), arg
		}
		// Only the first argument position carries the specifier.
		break
	}
	return "", nil
}

// findStringChild returns the first direct string child of node, used for
// import/export statement sources.
func (s *importScanner) findStringChild(node *sitter.Node) (string, *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == jsNodeString {
			return s.stringContent(child), child
		}
	}
	return "", nil
}

// stringContent extracts the text of a string literal without quotes.
func (s *importScanner) stringContent(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == jsNodeStringFragment {
			return s.text(child)
		}
	}
	// Empty string literal has no fragment child.
	raw := s.text(node)
	return strings.Trim(raw, `"'`)
}

func (s *importScanner) text(node *sitter.Node) string {
	return string(s.content[node.StartByte():node.EndByte()])
}

func (s *importScanner) add(imp Import) {
	s.result.Imports = append(s.result.Imports, imp)
}
