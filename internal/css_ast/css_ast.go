// Package css_ast is the CSS output tree: the structure the evaluator
// builds while walking a stylesheet.Stylesheet, and that internal/css_printer
// serializes to text. Keeping an intermediate tree (rather than the
// evaluator writing bytes directly) is what lets @extend rewrite
// selectors after the fact and what gives the printer a single place to
// apply the expanded/compressed output modes, mirroring how the
// teacher's css_parser -> css_ast -> css_printer pipeline is structured.
package css_ast

import "github.com/sassgo/sassgo/internal/ast"

// Node is the sum type of every output tree element.
type Node interface {
	isNode()
	Location() ast.Span
}

type baseNode struct{ Span ast.Span }

func (baseNode) isNode()            {}
func (n baseNode) Location() ast.Span { return n.Span }

// Root holds every top-level node produced from one entrypoint, in the
// order the evaluator emitted them (already flattened across modules per
// spec section 4.3's "upstream modules come first" rule).
type Root struct {
	Nodes []Node
}

// Rule is "selector, selector { ... }". Selectors are kept as plain
// strings rather than a parsed combinator tree: selector grammar is out
// of this core's scope, and @extend's selector rewriting (internal/extender)
// operates on these strings directly by substitution, which is enough to
// satisfy spec section 4.4's extension semantics without a full selector
// AST.
type Rule struct {
	baseNode
	Selectors []string
	Body      []Node
}

// Declaration is "property: value[ !important];".
type Declaration struct {
	baseNode
	Property  string
	Value     string
	Important bool
}

// AtRule is any at-rule that survives evaluation verbatim -- @media,
// @supports, @font-face, @keyframes, and any other at-rule the evaluator
// doesn't special-case (those are handled during evaluation and never
// reach the output tree as themselves, e.g. @if/@each/@mixin).
type AtRule struct {
	baseNode
	Name    string
	Prelude string
	Body    []Node
	HasBody bool
}

// Comment is a loud comment preserved verbatim in the output (spec
// section 8 scenario 6).
type Comment struct {
	baseNode
	Text string
}

func NewRule(span ast.Span, selectors []string) *Rule {
	return &Rule{baseNode: baseNode{Span: span}, Selectors: selectors}
}

func NewDeclaration(span ast.Span, property, value string, important bool) *Declaration {
	return &Declaration{baseNode: baseNode{Span: span}, Property: property, Value: value, Important: important}
}

func NewAtRule(span ast.Span, name, prelude string, hasBody bool) *AtRule {
	return &AtRule{baseNode: baseNode{Span: span}, Name: name, Prelude: prelude, HasBody: hasBody}
}

func NewComment(span ast.Span, text string) *Comment {
	return &Comment{baseNode: baseNode{Span: span}, Text: text}
}

func (*Rule) isNode()        {}
func (*Declaration) isNode() {}
func (*AtRule) isNode()      {}
func (*Comment) isNode()     {}

// IsEmpty reports whether a rule or at-rule would serialize to nothing,
// letting the printer and the "output includes only CSS, trimming
// Sass-only constructs down to nothing" pass (spec section 4.3) drop
// rules whose body fully evaluated away (e.g. an @if branch that only
// set variables).
func IsEmpty(body []Node) bool {
	for _, n := range body {
		switch v := n.(type) {
		case *Rule:
			if !IsEmpty(v.Body) {
				return false
			}
		case *AtRule:
			if !v.HasBody || !IsEmpty(v.Body) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
