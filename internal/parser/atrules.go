package parser

import (
	"strings"

	"github.com/sassgo/sassgo/internal/lexer"
	"github.com/sassgo/sassgo/internal/stylesheet"
)

// parseAtRule dispatches on the at-keyword text, the same flat
// if/else-chain-as-type-switch shape the teacher's css_parser uses for
// its at-rule table, rather than a registry of handler funcs -- there
// are few enough variants that the indirection wouldn't pay for itself.
func (p *parser) parseAtRule(start int32) stylesheet.Statement {
	kw := p.text(p.advance())
	switch kw {
	case "@use":
		return p.parseUse(start)
	case "@forward":
		return p.parseForward(start)
	case "@import":
		return p.parseImport(start)
	case "@if":
		return p.parseIf(start)
	case "@each":
		return p.parseEach(start)
	case "@for":
		return p.parseFor(start)
	case "@while":
		return p.parseWhile(start)
	case "@mixin":
		return p.parseMixin(start)
	case "@function":
		return p.parseFunction(start)
	case "@return":
		return p.parseReturn(start)
	case "@include":
		return p.parseInclude(start)
	case "@content":
		return p.parseContent(start)
	case "@extend":
		return p.parseExtend(start)
	case "@warn":
		return p.parseDiagnostic(start, kw)
	case "@debug":
		return p.parseDiagnostic(start, kw)
	case "@error":
		return p.parseDiagnostic(start, kw)
	default:
		return p.parseGenericAtRule(start, kw)
	}
}

func (p *parser) parseQuotedOrBareURL() string {
	if p.at(lexer.TString) {
		t := p.advance()
		raw := p.text(t)
		return strings.Trim(raw, "\"'")
	}
	// A bare url (rare outside @import) is read as a run of idents/delims
	// up to whitespace/semicolon.
	var sb strings.Builder
	for !p.at(lexer.TSemicolon) && !p.at(lexer.TEndOfFile) && !p.at(lexer.TOpenBrace) {
		sb.WriteString(p.text(p.advance()))
	}
	return sb.String()
}

func (p *parser) parseUse(start int32) stylesheet.Statement {
	url := p.parseQuotedOrBareURL()
	use := &stylesheet.UseRule{URL: url}
	if p.atIdentText("as") {
		p.advance()
		if p.at(lexer.TDelim) && p.text(p.current()) == "*" {
			p.advance()
			use.Namespace = "*"
		} else {
			use.Namespace = p.text(p.expect(lexer.TIdent, "namespace"))
		}
	}
	if p.atIdentText("with") {
		p.advance()
		p.expect(lexer.TOpenParen, "'(' after 'with'")
		for !p.at(lexer.TCloseParen) && !p.at(lexer.TEndOfFile) {
			name := strings.TrimPrefix(p.text(p.expect(lexer.TIdent, "'$variable'")), "$")
			p.expect(lexer.TColon, "':'")
			val := p.parseBinary(precOr)
			decl := stylesheet.VariableDecl{Name: name, Value: val}
			if p.at(lexer.TDelim) && p.text(p.current()) == "!" {
				p.advance()
				p.expect(lexer.TIdent, "'default'")
				decl.Default = true
			}
			use.Configured = append(use.Configured, decl)
			if p.at(lexer.TComma) {
				p.advance()
			}
		}
		p.expect(lexer.TCloseParen, "')'")
	}
	p.consumeStatementEnd()
	use.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return use
}

func (p *parser) parseForward(start int32) stylesheet.Statement {
	url := p.parseQuotedOrBareURL()
	fw := &stylesheet.ForwardRule{URL: url}
	if p.atIdentText("as") {
		p.advance()
		fw.Prefix = strings.TrimSuffix(p.text(p.expect(lexer.TIdent, "prefix")), "-")
		if p.at(lexer.TDelim) && p.text(p.current()) == "*" {
			p.advance()
		}
	}
	if p.atIdentText("show") {
		p.advance()
		fw.Show = p.parseIdentList()
	} else if p.atIdentText("hide") {
		p.advance()
		fw.Hide = p.parseIdentList()
	}
	p.consumeStatementEnd()
	fw.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return fw
}

func (p *parser) parseIdentList() []string {
	var names []string
	for {
		names = append(names, p.text(p.expect(lexer.TIdent, "name")))
		if p.at(lexer.TComma) {
			p.advance()
			continue
		}
		break
	}
	return names
}

func (p *parser) parseImport(start int32) stylesheet.Statement {
	imp := &stylesheet.ImportRule{}
	imp.URLs = append(imp.URLs, p.parseQuotedOrBareURL())
	for p.at(lexer.TComma) {
		p.advance()
		imp.URLs = append(imp.URLs, p.parseQuotedOrBareURL())
	}
	p.consumeStatementEnd()
	imp.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return imp
}

func (p *parser) atIdentText(text string) bool {
	t := p.current()
	return t.Kind == lexer.TIdent && p.text(t) == text
}

func (p *parser) parseIf(start int32) stylesheet.Statement {
	rule := &stylesheet.IfRule{}
	cond := p.parseBinary(precOr)
	body := p.parseBracedBlock()
	rule.Clauses = append(rule.Clauses, stylesheet.IfClause{Condition: cond, Body: body})
	for p.atElseKeyword() {
		p.advance() // "@else"
		if p.atIdentText("if") {
			p.advance()
			elseCond := p.parseBinary(precOr)
			elseBody := p.parseBracedBlock()
			rule.Clauses = append(rule.Clauses, stylesheet.IfClause{Condition: elseCond, Body: elseBody})
			continue
		}
		elseBody := p.parseBracedBlock()
		rule.Clauses = append(rule.Clauses, stylesheet.IfClause{Condition: nil, Body: elseBody})
		break
	}
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) atElseKeyword() bool {
	t := p.current()
	return t.Kind == lexer.TAtKeyword && p.text(t) == "@else"
}

func (p *parser) parseEach(start int32) stylesheet.Statement {
	rule := &stylesheet.EachRule{}
	rule.Variables = append(rule.Variables, strings.TrimPrefix(p.text(p.expect(lexer.TIdent, "'$variable'")), "$"))
	for p.at(lexer.TComma) {
		p.advance()
		rule.Variables = append(rule.Variables, strings.TrimPrefix(p.text(p.expect(lexer.TIdent, "'$variable'")), "$"))
	}
	if !p.atIdentText("in") {
		p.errorf("expected 'in' in @each")
	} else {
		p.advance()
	}
	rule.List = p.parseBinary(precOr)
	rule.Body = p.parseBracedBlock()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseFor(start int32) stylesheet.Statement {
	rule := &stylesheet.ForRule{}
	rule.Variable = strings.TrimPrefix(p.text(p.expect(lexer.TIdent, "'$variable'")), "$")
	if !p.atIdentText("from") {
		p.errorf("expected 'from' in @for")
	} else {
		p.advance()
	}
	rule.From = p.parseBinary(precOr)
	if p.atIdentText("through") {
		p.advance()
		rule.Exclusive = false
	} else if p.atIdentText("to") {
		p.advance()
		rule.Exclusive = true
	} else {
		p.errorf("expected 'through' or 'to' in @for")
	}
	rule.To = p.parseBinary(precOr)
	rule.Body = p.parseBracedBlock()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseWhile(start int32) stylesheet.Statement {
	rule := &stylesheet.WhileRule{Condition: p.parseBinary(precOr)}
	rule.Body = p.parseBracedBlock()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseParams() []stylesheet.Param {
	p.expect(lexer.TOpenParen, "'('")
	var params []stylesheet.Param
	for !p.at(lexer.TCloseParen) && !p.at(lexer.TEndOfFile) {
		name := strings.TrimPrefix(p.text(p.expect(lexer.TIdent, "'$parameter'")), "$")
		param := stylesheet.Param{Name: name}
		if p.peekDotDotDot() {
			p.consumeDotDotDot()
			param.IsRest = true
		} else if p.at(lexer.TColon) {
			p.advance()
			param.Default = p.parseBinary(precOr)
		}
		params = append(params, param)
		if p.at(lexer.TComma) {
			p.advance()
		}
	}
	p.expect(lexer.TCloseParen, "')'")
	return params
}

func (p *parser) parseMixin(start int32) stylesheet.Statement {
	name := p.text(p.expect(lexer.TIdent, "mixin name"))
	rule := &stylesheet.MixinDecl{Name: name}
	if p.at(lexer.TOpenParen) {
		rule.Params = p.parseParams()
	}
	rule.Body = p.parseBracedBlock()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseFunction(start int32) stylesheet.Statement {
	name := p.text(p.expect(lexer.TIdent, "function name"))
	rule := &stylesheet.FunctionDecl{Name: name, Params: p.parseParams()}
	rule.Body = p.parseBracedBlock()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseReturn(start int32) stylesheet.Statement {
	rule := &stylesheet.ReturnRule{Value: p.parseExpression(0)}
	p.consumeStatementEnd()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseInclude(start int32) stylesheet.Statement {
	full := p.text(p.expect(lexer.TIdent, "mixin name"))
	namespace, name := "", full
	if idx := strings.Index(full, "."); idx >= 0 {
		namespace, name = full[:idx], full[idx+1:]
	}
	rule := &stylesheet.IncludeRule{Namespace: namespace, Name: name}
	if p.at(lexer.TOpenParen) {
		rule.Args = p.parseArgInvocation()
	}
	if p.atIdentText("using") {
		p.advance()
		p.parseParams() // content block parameters: parsed and discarded, never bound to @content arguments
	}
	if p.at(lexer.TOpenBrace) {
		rule.Content = p.parseBracedBlock()
	} else {
		p.consumeStatementEnd()
	}
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseContent(start int32) stylesheet.Statement {
	rule := &stylesheet.ContentRule{}
	if p.at(lexer.TOpenParen) {
		rule.Args = p.parseArgInvocation()
	}
	p.consumeStatementEnd()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseExtend(start int32) stylesheet.Statement {
	target := p.parseRawInterpolationUntil(lexer.TSemicolon)
	rule := &stylesheet.ExtendRule{Target: target}
	// "!optional" may have been swept into the raw target text since it's
	// scanned up to the statement terminator; split it back out.
	if lit := target.Literals; len(lit) > 0 {
		last := lit[len(lit)-1]
		if trimmed := strings.TrimRight(last, " \t"); strings.HasSuffix(trimmed, "!optional") {
			rule.Optional = true
			lit[len(lit)-1] = strings.TrimSuffix(trimmed, "!optional")
		}
	}
	p.consumeStatementEnd()
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

func (p *parser) parseDiagnostic(start int32, kw string) stylesheet.Statement {
	msg := p.parseExpression(0)
	p.consumeStatementEnd()
	span := stylesheet.BaseStmt{Span: p.spanFrom(start)}
	switch kw {
	case "@warn":
		return &stylesheet.WarnRule{BaseStmt: span, Message: msg}
	case "@debug":
		return &stylesheet.DebugRule{BaseStmt: span, Message: msg}
	default:
		return &stylesheet.ErrorRule{BaseStmt: span, Message: msg}
	}
}

func (p *parser) parseGenericAtRule(start int32, kw string) stylesheet.Statement {
	name := strings.TrimPrefix(kw, "@")
	prelude := p.parseRawInterpolationUntilEither(lexer.TSemicolon, lexer.TOpenBrace)
	rule := &stylesheet.AtRule{Name: name, Prelude: prelude}
	if p.at(lexer.TOpenBrace) {
		rule.HasBody = true
		rule.Body = p.parseBracedBlock()
	} else {
		p.consumeStatementEnd()
	}
	rule.BaseStmt = stylesheet.BaseStmt{Span: p.spanFrom(start)}
	return rule
}

// parseRawInterpolationUntilEither is parseRawInterpolationUntil
// generalized to stop at whichever of two stop kinds comes first at
// nesting depth zero, needed for generic at-rule preludes which may or
// may not be followed by a "{ }" body.
func (p *parser) parseRawInterpolationUntilEither(stopA, stopB lexer.T) stylesheet.Interpolation {
	start := p.current().Range.Loc.Start
	depth := 0
	for {
		t := p.current()
		if t.Kind == lexer.TEndOfFile {
			break
		}
		if depth == 0 && (t.Kind == stopA || t.Kind == stopB) {
			break
		}
		switch t.Kind {
		case lexer.TOpenParen, lexer.TOpenBracket, lexer.TInterpolationStart:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		}
		p.advance()
	}
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Range.End()
	}
	raw := p.source.Contents[start:end]
	return p.buildInterpolation(raw, start)
}
