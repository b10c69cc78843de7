package stylesheet

import "github.com/sassgo/sassgo/internal/ast"

// Expression is the sum type of every Sass expression node.
type Expression interface {
	isExpression()
	Location() ast.Span
}

type BaseExpr struct{ Span ast.Span }

func (BaseExpr) isExpression()        {}
func (e BaseExpr) Location() ast.Span { return e.Span }

// Literal kinds -----------------------------------------------------------

type StringLiteral struct {
	BaseExpr
	Text   Interpolation
	Quoted bool
}

type NumberLiteral struct {
	BaseExpr
	Value float64
	Unit  string
}

type BoolLiteral struct {
	BaseExpr
	Value bool
}

type NullLiteral struct{ BaseExpr }

type ColorLiteral struct {
	BaseExpr
	Hex string // raw "#rrggbb"/"#rgb" text as written
}

// ListLiteral is "(a, b, c)" or "a b c" or "[a, b]".
type ListLiteral struct {
	BaseExpr
	Elements  []Expression
	Separator string // "comma", "space", "slash", "" for undecided/singleton
	Bracketed bool
}

// MapLiteral is "(k1: v1, k2: v2)".
type MapLiteral struct {
	BaseExpr
	Keys   []Expression
	Values []Expression
}

// Variable is "$name" or "$ns.name".
type Variable struct {
	BaseExpr
	Namespace string
	Name      string
}

// InterpolatedExpr wraps an Interpolation used in expression position,
// e.g. the prelude of "@media #{$q}".
type InterpolatedExpr struct {
	BaseExpr
	Value Interpolation
}

// BinaryOp is any of the arithmetic/comparison/boolean binary operators;
// Op is kept as the literal source text ("+", "==", "and", …) since the
// evaluator's operator table is the single source of truth for semantics.
type BinaryOp struct {
	BaseExpr
	Op          string
	Left, Right Expression
	// AllowSlash distinguishes a literal "/" division used in a context
	// where it may also be plain CSS slash notation ("1px/2px"); the
	// evaluator consults this to decide whether to fire the slash-div
	// deprecation warning.
	AllowSlash bool
}

// UnaryOp is "-x", "+x", or "not x".
type UnaryOp struct {
	BaseExpr
	Op      string
	Operand Expression
}

// FunctionCall is "name(args)" or "ns.name(args)"; a plain CSS function
// like "rgb(...)" that isn't a known Sass builtin or user function is
// still parsed as a FunctionCall and the evaluator falls back to emitting
// it as a literal CSS function if no callable matches.
type FunctionCall struct {
	BaseExpr
	Namespace string
	Name      string
	Args      ArgInvocation
}

// ArgInvocation is the argument list passed to a function/mixin/@include.
type ArgInvocation struct {
	Positional []Expression
	Keyword    []KeywordArg
	Rest       Expression // "..." spread argument, nil if none
	RestKeyword Expression // "$args..." keyword spread, nil if none
}

type KeywordArg struct {
	Name  string
	Value Expression
}

// ParenExpr preserves explicit parenthesization so printing/precedence
// can be span-accurate in error messages; it's otherwise transparent.
type ParenExpr struct {
	BaseExpr
	Inner Expression
}

func (*StringLiteral) isExpression()    {}
func (*NumberLiteral) isExpression()    {}
func (*BoolLiteral) isExpression()      {}
func (*NullLiteral) isExpression()      {}
func (*ColorLiteral) isExpression()     {}
func (*ListLiteral) isExpression()      {}
func (*MapLiteral) isExpression()       {}
func (*Variable) isExpression()         {}
func (*InterpolatedExpr) isExpression() {}
func (*BinaryOp) isExpression()         {}
func (*UnaryOp) isExpression()          {}
func (*FunctionCall) isExpression()     {}
func (*ParenExpr) isExpression()        {}

// Interpolation is an ordered sequence alternating literal string
// fragments and embedded expressions; the first and last element may be
// of either kind (spec section 3).
type Interpolation struct {
	Span     ast.Span
	Literals []string     // len(Literals) == len(Exprs)+1
	Exprs    []Expression
}

// IsPlainText reports whether this interpolation has no embedded
// expressions at all, letting callers skip the evaluator round-trip.
func (i Interpolation) IsPlainText() bool { return len(i.Exprs) == 0 }

// PlainText returns the literal text when IsPlainText is true.
func (i Interpolation) PlainText() string {
	if len(i.Literals) == 0 {
		return ""
	}
	return i.Literals[0]
}
