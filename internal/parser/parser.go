// Package parser turns lexer tokens into a stylesheet.Stylesheet. It is a
// small hand-written recursive-descent parser in the same spirit as the
// teacher's internal/css_parser: one statement-level loop dispatching on
// the current token, and a precedence-climbing expression parser beneath
// it. Full Sass grammar (every builtin at-rule, every selector
// combinator) is out of this core's scope per the specification; this
// parser covers the subset spec section 8's scenarios and SPEC_FULL's
// supplemented modules exercise, structured so new statement/expression
// forms slot in the same way the existing ones do.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/lexer"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/stylesheet"
)

type parser struct {
	source *logger.Source
	log    logger.Log
	toks   []lexer.Token
	pos    int
	failed bool
}

// Parse tokenizes and parses one source file according to its syntax. A
// SyntaxCSS source is parsed with the same superset grammar as SCSS, and
// Sass-only constructs in it are rejected neither here nor by the
// evaluator.
func Parse(log logger.Log, source *logger.Source) (*stylesheet.Stylesheet, bool) {
	text := source.Contents
	if source.Syntax == logger.SyntaxIndented {
		text = IndentedToSCSS(text)
		// Re-tokenize a *copy* of the source with braces/semicolons
		// inserted so spans still point at the rewritten (same-length-ish)
		// text. This mirrors how a preprocessor-based indented-syntax
		// front end stays a thin layer over the brace-based grammar.
		rewritten := &logger.Source{CanonicalURL: source.CanonicalURL, PrettyURL: source.PrettyURL, Syntax: source.Syntax, Contents: text, Index: source.Index}
		source = rewritten
	}

	toks := lexer.Tokenize(log, source)
	p := &parser{source: source, log: log, toks: toks}

	span := ast.Span{Source: source, Range: logger.Range{Len: int32(len(source.Contents))}}
	sheet := &stylesheet.Stylesheet{Span: span}
	sheet.Stmts = p.parseStatements(false)
	for _, s := range sheet.Stmts {
		if use, ok := s.(*stylesheet.UseRule); ok {
			sheet.Uses = append(sheet.Uses, *use)
		}
	}
	return sheet, !p.failed
}

// --- token cursor helpers -------------------------------------------------

func (p *parser) skipTrivia() {
	for p.pos < len(p.toks) && p.toks[p.pos].Kind == lexer.TWhitespace {
		p.pos++
	}
}

func (p *parser) current() lexer.Token {
	p.skipTrivia()
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.TEndOfFile}
	}
	return p.toks[p.pos]
}

func (p *parser) at(kind lexer.T) bool { return p.current().Kind == kind }

func (p *parser) text(t lexer.Token) string { return t.Text(p.source) }

func (p *parser) advance() lexer.Token {
	t := p.current()
	if t.Kind != lexer.TEndOfFile {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind lexer.T, what string) lexer.Token {
	if !p.at(kind) {
		p.errorf("expected %s", what)
		return lexer.Token{Kind: lexer.TEndOfFile}
	}
	return p.advance()
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.failed = true
	t := p.current()
	p.log.AddRangeError(p.source, t.Range, fmt.Sprintf(format, args...))
}

func (p *parser) spanFrom(start int32) ast.Span {
	end := p.current().Range.Loc.Start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Range.End()
	}
	return ast.Span{Source: p.source, Range: logger.Range{Loc: logger.Loc{Start: start}, Len: end - start}}
}

// --- statement parsing ----------------------------------------------------

func (p *parser) parseStatements(inBlock bool) []stylesheet.Statement {
	var stmts []stylesheet.Statement
	for {
		p.skipTrivia()
		if p.at(lexer.TEndOfFile) {
			break
		}
		if inBlock && p.at(lexer.TCloseBrace) {
			break
		}
		if p.at(lexer.TComment) {
			t := p.advance()
			stmts = append(stmts, &stylesheet.Comment{
				BaseStmt: stylesheet.BaseStmt{Span: ast.Span{Source: p.source, Range: t.Range}},
				Text:     p.text(t),
			})
			continue
		}
		stmts = append(stmts, p.parseStatement())
		if p.failed && len(stmts) > 10000 {
			break // guard against infinite loops on malformed input
		}
	}
	return stmts
}

func (p *parser) parseStatement() stylesheet.Statement {
	start := p.current().Range.Loc.Start

	switch {
	case p.at(lexer.TAtKeyword):
		return p.parseAtRule(start)
	case p.isVariableDecl():
		return p.parseVariableDecl(start)
	default:
		return p.parseRuleOrDeclaration(start)
	}
}

func (p *parser) isVariableDecl() bool {
	t := p.current()
	return t.Kind == lexer.TIdent && strings.HasPrefix(p.text(t), "$")
}

func (p *parser) parseVariableDecl(start int32) stylesheet.Statement {
	name := strings.TrimPrefix(p.text(p.advance()), "$")
	namespace := ""
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		namespace, name = parts[0], parts[1]
	}
	p.expect(lexer.TColon, "':' after variable name")
	val := p.parseExpressionUntilFlagsOrEnd()
	decl := &stylesheet.VariableDecl{Name: name, Namespace: namespace, Value: val}
	for p.at(lexer.TDelim) && p.text(p.current()) == "!" {
		p.advance()
		flag := p.text(p.expect(lexer.TIdent, "'default' or 'global'"))
		switch flag {
		case "default":
			decl.Default = true
		case "global":
			decl.Global = true
		}
	}
	p.consumeStatementEnd()
	decl.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return decl
}

// consumeStatementEnd eats the optional trailing ";" a statement may have;
// it's optional before a "}" the way CSS allows omitting the last
// semicolon in a block.
func (p *parser) consumeStatementEnd() {
	if p.at(lexer.TSemicolon) {
		p.advance()
	}
}

// parseRuleOrDeclaration disambiguates "prop: value;" from "selector {
// ... }" by scanning ahead (respecting parenthesis/bracket nesting) for
// whichever of "{", ";", "}" comes first at depth zero -- the same
// lookahead technique real CSS/Sass parsers use.
func (p *parser) parseRuleOrDeclaration(start int32) stylesheet.Statement {
	if p.looksLikeDeclaration() {
		return p.parseDeclaration(start)
	}
	return p.parseStyleRule(start)
}

func (p *parser) looksLikeDeclaration() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case lexer.TOpenParen, lexer.TOpenBracket:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		case lexer.TInterpolationStart:
			depth++
		case lexer.TOpenBrace:
			if depth == 0 {
				return false
			}
		case lexer.TCloseBrace:
			if depth == 0 {
				return true
			}
			depth--
		case lexer.TColon:
			if depth == 0 {
				// A colon at depth zero followed eventually by "{" before
				// ";" could still be a pseudo-class selector like
				// "a:hover { }"; distinguish by checking whether a "{"
				// appears before the next ";" at this same depth.
				return p.colonIntroducesDeclaration(i)
			}
		case lexer.TSemicolon:
			if depth == 0 {
				return true
			}
		}
	}
	return true
}

func (p *parser) colonIntroducesDeclaration(colonIdx int) bool {
	depth := 0
	for i := colonIdx + 1; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case lexer.TOpenParen, lexer.TOpenBracket, lexer.TInterpolationStart:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		case lexer.TOpenBrace:
			if depth == 0 {
				return false
			}
		case lexer.TSemicolon, lexer.TCloseBrace:
			if depth == 0 {
				return true
			}
		}
	}
	return true
}

func (p *parser) parseDeclaration(start int32) stylesheet.Statement {
	prop := p.parseRawInterpolationUntil(lexer.TColon)
	p.expect(lexer.TColon, "':' after property name")
	decl := &stylesheet.Declaration{Property: prop}
	if p.at(lexer.TOpenBrace) {
		decl.Body = p.parseBracedBlock()
	} else {
		decl.Value = p.parseExpressionUntilFlagsOrEnd()
		for p.at(lexer.TDelim) && p.text(p.current()) == "!" {
			p.advance()
			flag := p.text(p.expect(lexer.TIdent, "'important'"))
			if flag == "important" {
				decl.Important = true
			}
		}
		p.consumeStatementEnd()
	}
	decl.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return decl
}

func (p *parser) parseStyleRule(start int32) stylesheet.Statement {
	sel := p.parseRawInterpolationUntil(lexer.TOpenBrace)
	body := p.parseBracedBlock()
	return &stylesheet.StyleRule{BaseStmt: stylesheet.BaseStmt{Span: p.spanFrom(start)}, Selector: sel, Body: body}
}

func (p *parser) parseBracedBlock() []stylesheet.Statement {
	p.expect(lexer.TOpenBrace, "'{'")
	stmts := p.parseStatements(true)
	p.expect(lexer.TCloseBrace, "'}'")
	return stmts
}

// parseRawInterpolationUntil captures source text up to (but not
// including) a token of the given stop kind at nesting depth zero, then
// splits it into literal/expression fragments. This is how selectors and
// property names get interpolation support without a dedicated selector
// grammar (selector syntax itself is out of this core's scope).
func (p *parser) parseRawInterpolationUntil(stop lexer.T) stylesheet.Interpolation {
	start := p.current().Range.Loc.Start
	depth := 0
	for {
		t := p.current()
		if t.Kind == lexer.TEndOfFile {
			break
		}
		if depth == 0 && t.Kind == stop {
			break
		}
		switch t.Kind {
		case lexer.TOpenParen, lexer.TOpenBracket, lexer.TInterpolationStart:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		case lexer.TOpenBrace:
			depth++
		case lexer.TCloseBrace:
			if depth == 0 {
				goto done
			}
			depth--
		}
		p.advance()
	}
done:
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Range.End()
	}
	raw := p.source.Contents[start:end]
	return p.buildInterpolation(raw, start)
}

// buildInterpolation splits raw text on "#{...}" and parses each
// expression fragment with a fresh sub-parser over that fragment's
// tokens, recording the fragment's absolute source offset so spans
// (and later, source-map remapping, per spec section 4.5) stay accurate.
func (p *parser) buildInterpolation(raw string, baseOffset int32) stylesheet.Interpolation {
	literals, exprSources := splitInterpolationsWithOffsets(raw)
	interp := stylesheet.Interpolation{Literals: make([]string, len(literals))}
	copy(interp.Literals, literals)
	for _, frag := range exprSources {
		sub := p.subParserFor(frag.text, baseOffset+int32(frag.offset))
		interp.Exprs = append(interp.Exprs, sub.parseExpression(0))
	}
	return interp
}

type offsetFragment struct {
	text   string
	offset int
}

func splitInterpolationsWithOffsets(text string) (literals []string, exprs []offsetFragment) {
	lits, rawExprs := splitKeepingOffsets(text)
	return lits, rawExprs
}

func splitKeepingOffsets(text string) ([]string, []offsetFragment) {
	var literals []string
	var exprs []offsetFragment
	i := 0
	litStart := 0
	for i < len(text) {
		if text[i] == '#' && i+1 < len(text) && text[i+1] == '{' {
			literals = append(literals, text[litStart:i])
			depth := 1
			j := i + 2
			start := j
			for j < len(text) && depth > 0 {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto closed
					}
				}
				j++
			}
		closed:
			exprs = append(exprs, offsetFragment{text: text[start:j], offset: start})
			if j < len(text) {
				j++
			}
			i = j
			litStart = i
			continue
		}
		i++
	}
	literals = append(literals, text[litStart:])
	return literals, exprs
}

// subParserFor builds a parser over a sub-fragment of source, used for
// interpolation expressions.
func (p *parser) subParserFor(text string, baseOffset int32) *parser {
	fakeSource := &logger.Source{CanonicalURL: p.source.CanonicalURL, PrettyURL: p.source.PrettyURL, Syntax: p.source.Syntax, Contents: strings.Repeat(" ", int(baseOffset)) + text}
	toks := lexer.Tokenize(p.log, fakeSource)
	// Re-point the sub-parser's "source" at the *original* source so
	// spans line up, but the sub-parser's own padded text is only used to
	// get token offsets right; TextForRange against the real source at
	// those offsets returns the real characters since offsets match.
	sub := &parser{source: p.source, log: p.log, toks: toks}
	return sub
}

func (p *parser) parseExpressionUntilFlagsOrEnd() stylesheet.Expression {
	return p.parseExpression(0)
}

// --- numeric helper --------------------------------------------------------

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
