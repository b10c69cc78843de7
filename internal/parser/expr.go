package parser

import (
	"strings"

	"github.com/sassgo/sassgo/internal/lexer"
	"github.com/sassgo/sassgo/internal/stylesheet"
)

// parseExpression is the top-level expression entry point: a comma list
// of space lists of "or"-precedence expressions, following Sass's usual
// looseness order comma > space > or > and > not > comparison > additive
// > multiplicative > unary (spec section 3's value-expression grammar).
// The minPrec parameter is unused at this entry point (always 0) and
// exists so recursive calls from parseBinary share one signature.
func (p *parser) parseExpression(minPrec int) stylesheet.Expression {
	if minPrec > 0 {
		return p.parseBinary(minPrec)
	}
	return p.parseCommaList()
}

func (p *parser) parseCommaList() stylesheet.Expression {
	start := p.current().Range.Loc.Start
	first := p.parseSpaceList()
	if !p.at(lexer.TComma) {
		return first
	}
	elements := []stylesheet.Expression{first}
	for p.at(lexer.TComma) {
		p.advance()
		elements = append(elements, p.parseSpaceList())
	}
	return &stylesheet.ListLiteral{
		BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)},
		Elements: elements, Separator: "comma",
	}
}

func (p *parser) parseSpaceList() stylesheet.Expression {
	start := p.current().Range.Loc.Start
	first := p.parseBinary(precOr)
	elements := []stylesheet.Expression{first}
	for p.canStartExpression() {
		elements = append(elements, p.parseBinary(precOr))
	}
	if len(elements) == 1 {
		return first
	}
	return &stylesheet.ListLiteral{
		BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)},
		Elements: elements, Separator: "space",
	}
}

func (p *parser) canStartExpression() bool {
	t := p.current()
	switch t.Kind {
	case lexer.TIdent:
		txt := p.text(t)
		return txt != "and" && txt != "or" // those continue the prior element as an operator
	case lexer.TString, lexer.TNumber, lexer.TDimension, lexer.TPercentage, lexer.THash,
		lexer.TOpenParen, lexer.TOpenBracket, lexer.TInterpolationStart:
		return true
	case lexer.TDelim:
		c := p.text(t)
		return c == "-" || c == "+"
	}
	return false
}

// precedence levels, lowest to highest binding
const (
	precOr = iota + 1
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
)

func precedenceOf(op string) int {
	switch op {
	case "or":
		return precOr
	case "and":
		return precAnd
	case "==", "!=":
		return precEquality
	case "<", ">", "<=", ">=":
		return precRelational
	case "+", "-":
		return precAdditive
	case "*", "/", "%":
		return precMultiplicative
	}
	return 0
}

// peekOperatorText reports the operator token (and how many raw tokens it
// spans) at the current position without consuming it. Two-character
// comparison operators are assembled from adjacent single-char delimiter
// tokens emitted by the lexer's single-rune default case.
func (p *parser) peekOperatorText() (op string, tokenCount int) {
	t := p.current()
	switch t.Kind {
	case lexer.TIdent:
		txt := p.text(t)
		if txt == "and" || txt == "or" {
			return txt, 1
		}
	case lexer.TDelim:
		c := p.text(t)
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lexer.TDelim {
			two := c + p.text(p.toks[p.pos+1])
			switch two {
			case "==", "!=", "<=", ">=":
				return two, 2
			}
		}
		switch c {
		case "+", "-", "*", "/", "%", "<", ">":
			return c, 1
		}
	}
	return "", 0
}

// parseBinary implements precedence climbing over parseUnary operands.
// "+"/"-" get special treatment: per the strict-unary deprecation (spec's
// deprecation.StrictUnary), a sign with whitespace before it but none
// after is a new unary operand, not a binary continuation, so the space
// list above gets to start a fresh element there instead.
func (p *parser) parseBinary(minPrec int) stylesheet.Expression {
	left := p.parseUnary()
	for {
		op, n := p.peekOperatorText()
		if op == "" {
			break
		}
		prec := precedenceOf(op)
		if prec < minPrec {
			break
		}
		if op == "+" || op == "-" {
			spaceBefore := p.pos > 0 && p.toks[p.pos-1].Kind == lexer.TWhitespace
			afterIdx := p.pos + n
			spaceAfter := afterIdx < len(p.toks) && p.toks[afterIdx].Kind == lexer.TWhitespace
			if spaceBefore && !spaceAfter {
				break
			}
		}
		startSpan := left.Location().Range.Loc.Start
		for i := 0; i < n; i++ {
			p.advance()
		}
		right := p.parseBinary(prec + 1)
		left = &stylesheet.BinaryOp{
			BaseExpr:   stylesheet.BaseExpr{Span: p.spanFrom(startSpan)},
			Op:         op,
			Left:       left,
			Right:      right,
			AllowSlash: op == "/",
		}
	}
	return left
}

func (p *parser) parseUnary() stylesheet.Expression {
	t := p.current()
	start := t.Range.Loc.Start
	if t.Kind == lexer.TIdent && p.text(t) == "not" {
		p.advance()
		operand := p.parseUnary()
		return &stylesheet.UnaryOp{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Op: "not", Operand: operand}
	}
	if t.Kind == lexer.TDelim {
		c := p.text(t)
		if c == "-" || c == "+" {
			p.advance()
			operand := p.parseUnary()
			return &stylesheet.UnaryOp{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Op: c, Operand: operand}
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() stylesheet.Expression {
	return p.parsePrimary()
}

func (p *parser) parsePrimary() stylesheet.Expression {
	t := p.current()
	start := t.Range.Loc.Start

	switch t.Kind {
	case lexer.TNumber:
		p.advance()
		return &stylesheet.NumberLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Value: parseFloat(p.text(t))}

	case lexer.TPercentage:
		p.advance()
		txt := p.text(t)
		return &stylesheet.NumberLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Value: parseFloat(strings.TrimSuffix(txt, "%")), Unit: "%"}

	case lexer.TDimension:
		p.advance()
		txt := p.text(t)
		mag := txt[:t.UnitOffset]
		unit := txt[t.UnitOffset:]
		return &stylesheet.NumberLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Value: parseFloat(mag), Unit: unit}

	case lexer.TString:
		p.advance()
		raw := p.text(t)
		quote := raw[0]
		inner := raw[1:]
		if len(inner) > 0 && inner[len(inner)-1] == quote {
			inner = inner[:len(inner)-1]
		}
		interp := p.buildInterpolation(inner, start+1)
		return &stylesheet.StringLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Text: interp, Quoted: true}

	case lexer.THash:
		p.advance()
		return &stylesheet.ColorLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Hex: p.text(t)}

	case lexer.TInterpolationStart:
		return p.parseInterpolatedPrimary(start)

	case lexer.TOpenParen:
		return p.parseParenOrMap(start)

	case lexer.TOpenBracket:
		return p.parseBracketedList(start)

	case lexer.TIdent:
		return p.parseIdentLed(start)
	}

	p.errorf("expected an expression")
	p.advance()
	return &stylesheet.NullLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}}
}

// parseInterpolatedPrimary parses "#{<expr>}" used directly in value
// position (as opposed to embedded inside a string or selector).
func (p *parser) parseInterpolatedPrimary(start int32) stylesheet.Expression {
	p.advance() // "#{"
	inner := p.parseExpression(0)
	p.expect(lexer.TCloseBrace, "'}' closing interpolation")
	return &stylesheet.ParenExpr{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Inner: inner}
}

func (p *parser) parseParenOrMap(start int32) stylesheet.Expression {
	p.advance() // "("
	if p.at(lexer.TCloseParen) {
		p.advance()
		return &stylesheet.ListLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Separator: "comma"}
	}

	first := p.parseBinary(precOr)
	if p.at(lexer.TColon) {
		return p.parseMapBody(start, first)
	}
	// Could be a parenthesized single expr, or a (space/comma) list; reuse
	// the same loosen-as-you-go structure as the top-level list parser.
	elements := []stylesheet.Expression{first}
	for p.canStartExpression() {
		elements = append(elements, p.parseBinary(precOr))
	}
	var space stylesheet.Expression
	if len(elements) == 1 {
		space = elements[0]
	} else {
		space = &stylesheet.ListLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Elements: elements, Separator: "space"}
	}
	if !p.at(lexer.TComma) {
		p.expect(lexer.TCloseParen, "')'")
		if _, ok := space.(*stylesheet.ListLiteral); ok {
			return space
		}
		return &stylesheet.ParenExpr{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Inner: space}
	}
	commaElems := []stylesheet.Expression{space}
	for p.at(lexer.TComma) {
		p.advance()
		e := p.parseBinary(precOr)
		elems := []stylesheet.Expression{e}
		for p.canStartExpression() {
			elems = append(elems, p.parseBinary(precOr))
		}
		if len(elems) == 1 {
			commaElems = append(commaElems, elems[0])
		} else {
			commaElems = append(commaElems, &stylesheet.ListLiteral{Elements: elems, Separator: "space"})
		}
	}
	p.expect(lexer.TCloseParen, "')'")
	return &stylesheet.ListLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Elements: commaElems, Separator: "comma"}
}

func (p *parser) parseMapBody(start int32, firstKey stylesheet.Expression) stylesheet.Expression {
	m := &stylesheet.MapLiteral{}
	p.advance() // ":"
	val := p.parseBinary(precOr)
	m.Keys = append(m.Keys, firstKey)
	m.Values = append(m.Values, val)
	for p.at(lexer.TComma) {
		p.advance()
		if p.at(lexer.TCloseParen) {
			break // trailing comma
		}
		k := p.parseBinary(precOr)
		p.expect(lexer.TColon, "':' in map entry")
		v := p.parseBinary(precOr)
		m.Keys = append(m.Keys, k)
		m.Values = append(m.Values, v)
	}
	p.expect(lexer.TCloseParen, "')'")
	m.BaseExpr = stylesheet.BaseExpr{Span: p.spanFrom(start)}
	return m
}

func (p *parser) parseBracketedList(start int32) stylesheet.Expression {
	p.advance() // "["
	list := &stylesheet.ListLiteral{Bracketed: true, Separator: "space"}
	if !p.at(lexer.TCloseBracket) {
		list.Elements = append(list.Elements, p.parseBinary(precOr))
		for p.at(lexer.TComma) {
			list.Separator = "comma"
			p.advance()
			list.Elements = append(list.Elements, p.parseBinary(precOr))
		}
	}
	p.expect(lexer.TCloseBracket, "']'")
	list.BaseExpr = stylesheet.BaseExpr{Span: p.spanFrom(start)}
	return list
}

// parseIdentLed parses a bare identifier, a boolean/null literal, or
// (when immediately followed by "(" with no intervening space) a
// function call -- "foo (x)" with a space is a plain identifier followed
// by a separate parenthesized expression, matching how Sass distinguishes
// the two.
func (p *parser) parseIdentLed(start int32) stylesheet.Expression {
	t := p.advance()
	name := p.text(t)

	if p.pos < len(p.toks) && p.toks[p.pos].Kind == lexer.TOpenParen {
		return p.parseFunctionCallTail(start, name)
	}

	switch name {
	case "true":
		return &stylesheet.BoolLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Value: true}
	case "false":
		return &stylesheet.BoolLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Value: false}
	case "null":
		return &stylesheet.NullLiteral{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}}
	}

	if strings.HasPrefix(name, "$") {
		varName := strings.TrimPrefix(name, "$")
		namespace := ""
		if idx := strings.Index(varName, "."); idx >= 0 {
			namespace, varName = varName[:idx], varName[idx+1:]
		}
		return &stylesheet.Variable{BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)}, Namespace: namespace, Name: varName}
	}

	// A bare identifier with nothing else is a quoteless string literal,
	// e.g. a keyword color name or a CSS keyword value.
	return &stylesheet.StringLiteral{
		BaseExpr: stylesheet.BaseExpr{Span: p.spanFrom(start)},
		Text:     stylesheet.Interpolation{Literals: []string{name}},
		Quoted:   false,
	}
}

func (p *parser) parseFunctionCallTail(start int32, fullName string) stylesheet.Expression {
	namespace, name := "", fullName
	if idx := strings.Index(fullName, "."); idx >= 0 {
		namespace, name = fullName[:idx], fullName[idx+1:]
	}
	args := p.parseArgInvocation()
	return &stylesheet.FunctionCall{
		BaseExpr:  stylesheet.BaseExpr{Span: p.spanFrom(start)},
		Namespace: namespace,
		Name:      name,
		Args:      args,
	}
}

// parseArgInvocation parses "(pos, pos, name: kw, $rest...)". Keyword args
// are distinguished from positional "$var: default"-shaped map entries by
// position: a leading "$ident :" pair not inside its own parens is always
// treated as a keyword argument, which matches every real call site (a
// positional argument that happens to be a map literal must be
// parenthesized, same as in Sass itself).
func (p *parser) parseArgInvocation() stylesheet.ArgInvocation {
	p.expect(lexer.TOpenParen, "'('")
	var inv stylesheet.ArgInvocation
	for !p.at(lexer.TCloseParen) && !p.at(lexer.TEndOfFile) {
		if p.isKeywordArgStart() {
			name := strings.TrimPrefix(p.text(p.advance()), "$")
			p.advance() // ":"
			val := p.parseBinary(precOr)
			inv.Keyword = append(inv.Keyword, stylesheet.KeywordArg{Name: name, Value: val})
		} else {
			val := p.parseBinary(precOr)
			if p.at(lexer.TDelim) && p.text(p.current()) == "." && p.peekDotDotDot() {
				p.consumeDotDotDot()
				inv.Rest = val
			} else {
				inv.Positional = append(inv.Positional, val)
			}
		}
		if p.at(lexer.TComma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.TCloseParen, "')'")
	return inv
}

func (p *parser) isKeywordArgStart() bool {
	t := p.current()
	if t.Kind != lexer.TIdent || !strings.HasPrefix(p.text(t), "$") {
		return false
	}
	return p.pos+1 < len(p.toks) && p.rawKindAt(p.pos+1) == lexer.TColon
}

// rawKindAt looks ahead skipping only whitespace tokens, not comments,
// mirroring current()'s trivia handling without moving the cursor.
func (p *parser) rawKindAt(i int) lexer.T {
	for i < len(p.toks) && p.toks[i].Kind == lexer.TWhitespace {
		i++
	}
	if i >= len(p.toks) {
		return lexer.TEndOfFile
	}
	return p.toks[i].Kind
}

func (p *parser) peekDotDotDot() bool {
	return p.rawKindAt(p.pos) == lexer.TDelim && p.rawKindAt(p.pos+1) == lexer.TDelim && p.rawKindAt(p.pos+2) == lexer.TDelim
}

func (p *parser) consumeDotDotDot() {
	for i := 0; i < 3; i++ {
		p.skipTrivia()
		if p.at(lexer.TDelim) && p.text(p.current()) == "." {
			p.advance()
		}
	}
}
