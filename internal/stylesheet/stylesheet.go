// Package stylesheet is the parsed Sass AST: the immutable tree the parser
// produces and the evaluator consumes. Every node carries a span. Variant
// dispatch follows the same pattern as the teacher's css_ast package: an
// unexported marker method encodes the sum type, and each pass is a type
// switch rather than a virtual method.
package stylesheet

import "github.com/sassgo/sassgo/internal/ast"

// Stylesheet is the root of one parsed file.
type Stylesheet struct {
	Span  ast.Span
	Uses  []UseRule
	Stmts []Statement
}

// Statement is the sum type of every top-level and nested statement node.
type Statement interface {
	isStatement()
	Location() ast.Span
}

type BaseStmt struct{ Span ast.Span }

func (BaseStmt) isStatement()          {}
func (s BaseStmt) Location() ast.Span { return s.Span }

// StyleRule is "selector { ... }": the nesting construct that turns into
// a CSS selector rule once evaluated.
type StyleRule struct {
	BaseStmt
	Selector Interpolation
	Body     []Statement
}

// Declaration is "property: value" (or, nested, "font: { size: 1em }").
type Declaration struct {
	BaseStmt
	Property  Interpolation
	Value     Expression // nil if this declaration only has a nested Body
	Body      []Statement
	Important bool
}

// VariableDecl is "$name: value [!default] [!global]".
type VariableDecl struct {
	BaseStmt
	Name      string
	Value     Expression
	Default   bool
	Global    bool
	Namespace string // set for "$ns.name", empty otherwise
}

// IfRule is "@if ... { } @else if ... { } @else { }", modeled as a chain.
type IfRule struct {
	BaseStmt
	Clauses []IfClause
}

type IfClause struct {
	Condition Expression // nil for the trailing @else
	Body      []Statement
}

// EachRule is "@each $a, $b in <list-expr> { }".
type EachRule struct {
	BaseStmt
	Variables []string
	List      Expression
	Body      []Statement
}

// ForRule is "@for $i from <expr> through|to <expr> { }".
type ForRule struct {
	BaseStmt
	Variable  string
	From      Expression
	To        Expression
	Exclusive bool // true for "to", false for "through"
	Body      []Statement
}

// WhileRule is "@while <expr> { }".
type WhileRule struct {
	BaseStmt
	Condition Expression
	Body      []Statement
}

// EachParam/MixinDecl/FunctionDecl share a signature shape.
type Param struct {
	Name       string
	Default    Expression // nil if required
	IsRest     bool
}

type MixinDecl struct {
	BaseStmt
	Name   string
	Params []Param
	Body   []Statement
}

type FunctionDecl struct {
	BaseStmt
	Name   string
	Params []Param
	Body   []Statement
}

// ReturnRule is "@return <expr>", valid only inside a FunctionDecl body.
type ReturnRule struct {
	BaseStmt
	Value Expression
}

// IncludeRule is "@include name(args) [{ content block }]".
type IncludeRule struct {
	BaseStmt
	Namespace string
	Name      string
	Args      ArgInvocation
	Content   []Statement // nil if no "{ ... }" content block was given
}

// ContentRule is "@content(args)" -- invokes the content block passed to
// the enclosing mixin.
type ContentRule struct {
	BaseStmt
	Args ArgInvocation
}

// ExtendRule is "@extend <selector> [!optional]".
type ExtendRule struct {
	BaseStmt
	Target   Interpolation
	Optional bool
}

// UseRule is "@use <url> [as <ns>] [with (...)]".
type UseRule struct {
	BaseStmt
	URL         string
	Namespace   string // "*" for "as *", "" (a bare "@use") means derive from the URL's basename
	Configured  []VariableDecl
}

// ForwardRule is "@forward <url> [as <prefix>-*] [show ...] [hide ...]".
type ForwardRule struct {
	BaseStmt
	URL    string
	Prefix string
	Show   []string
	Hide   []string
}

// ImportRule is the legacy "@import <url>"; it evaluates inline into the
// importing module's scope rather than creating a namespaced module.
type ImportRule struct {
	BaseStmt
	URLs []string
}

// WarnRule/ErrorRule/DebugRule are the three diagnostic directives.
type WarnRule struct {
	BaseStmt
	Message Expression
}

type ErrorRule struct {
	BaseStmt
	Message Expression
}

type DebugRule struct {
	BaseStmt
	Message Expression
}

// AtRule is a generic "@foo <prelude> { body }" for at-rules the
// evaluator doesn't treat specially (@media, @supports, @font-face, …);
// the prelude is kept as interpolation so expressions inside it (e.g.
// "@media #{$query}") are still evaluated.
type AtRule struct {
	BaseStmt
	Name    string
	Prelude Interpolation
	Body    []Statement
	HasBody bool
}

// Comment is a silent ("//") or loud ("/* */") comment. Loud comments
// that survive to the CSS tree are emitted verbatim (spec section 8
// scenario 6).
type Comment struct {
	BaseStmt
	Text   string
	Silent bool
}

func (*StyleRule) isStatement()    {}
func (*Declaration) isStatement()  {}
func (*VariableDecl) isStatement() {}
func (*IfRule) isStatement()       {}
func (*EachRule) isStatement()     {}
func (*ForRule) isStatement()      {}
func (*WhileRule) isStatement()    {}
func (*MixinDecl) isStatement()    {}
func (*FunctionDecl) isStatement() {}
func (*ReturnRule) isStatement()   {}
func (*IncludeRule) isStatement()  {}
func (*ContentRule) isStatement()  {}
func (*ExtendRule) isStatement()   {}
func (*UseRule) isStatement()      {}
func (*ForwardRule) isStatement()  {}
func (*ImportRule) isStatement()   {}
func (*WarnRule) isStatement()     {}
func (*ErrorRule) isStatement()    {}
func (*DebugRule) isStatement()    {}
func (*AtRule) isStatement()       {}
func (*Comment) isStatement()      {}
