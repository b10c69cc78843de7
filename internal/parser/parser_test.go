package parser

import (
	"testing"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/stylesheet"
)

func parseSCSS(t *testing.T, text string) *stylesheet.Stylesheet {
	t.Helper()
	reg := ast.NewSourceRegistry()
	source := reg.Register("test.scss", "test.scss", logger.SyntaxSCSS, text)
	log := logger.NewDeferLog()
	sheet, ok := Parse(log, source)
	if !ok {
		for _, msg := range log.Done() {
			t.Logf("parse error: %s", msg.Data.Text)
		}
		t.Fatalf("parse failed")
	}
	return sheet
}

func TestParseVariableDeclaration(t *testing.T) {
	sheet := parseSCSS(t, `$base: 16px;`)
	if len(sheet.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(sheet.Stmts))
	}
	decl, ok := sheet.Stmts[0].(*stylesheet.VariableDecl)
	if !ok {
		t.Fatalf("expected VariableDecl, got %T", sheet.Stmts[0])
	}
	if decl.Name != "base" {
		t.Errorf("expected name 'base', got %q", decl.Name)
	}
	num, ok := decl.Value.(*stylesheet.NumberLiteral)
	if !ok {
		t.Fatalf("expected NumberLiteral, got %T", decl.Value)
	}
	if num.Value != 16 || num.Unit != "px" {
		t.Errorf("expected 16px, got %v%s", num.Value, num.Unit)
	}
}

func TestParseStyleRuleAndDeclaration(t *testing.T) {
	sheet := parseSCSS(t, `.card { color: red; width: 10px + 2px; }`)
	rule, ok := sheet.Stmts[0].(*stylesheet.StyleRule)
	if !ok {
		t.Fatalf("expected StyleRule, got %T", sheet.Stmts[0])
	}
	if !rule.Selector.IsPlainText() || rule.Selector.PlainText() != ".card" {
		t.Errorf("unexpected selector: %+v", rule.Selector)
	}
	if len(rule.Body) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(rule.Body))
	}
	widthDecl := rule.Body[1].(*stylesheet.Declaration)
	bin, ok := widthDecl.Value.(*stylesheet.BinaryOp)
	if !ok {
		t.Fatalf("expected BinaryOp, got %T", widthDecl.Value)
	}
	if bin.Op != "+" {
		t.Errorf("expected '+', got %q", bin.Op)
	}
}

func TestParseNegativeNumberVsSubtraction(t *testing.T) {
	sheet := parseSCSS(t, `$a: 1px -2px; $b: 1px - 2px;`)
	spaceList := sheet.Stmts[0].(*stylesheet.VariableDecl).Value.(*stylesheet.ListLiteral)
	if spaceList.Separator != "space" || len(spaceList.Elements) != 2 {
		t.Fatalf("expected a 2-element space list, got %+v", spaceList)
	}
	second := spaceList.Elements[1].(*stylesheet.NumberLiteral)
	if second.Value != -2 {
		t.Errorf("expected -2, got %v", second.Value)
	}

	sub := sheet.Stmts[1].(*stylesheet.VariableDecl).Value.(*stylesheet.BinaryOp)
	if sub.Op != "-" {
		t.Errorf("expected binary '-', got %q", sub.Op)
	}
}

func TestParseIfAndEach(t *testing.T) {
	sheet := parseSCSS(t, `
@if $x == 1 {
  a: b;
} @else {
  c: d;
}
@each $k, $v in $map {
  #{$k}: $v;
}
`)
	ifRule, ok := sheet.Stmts[0].(*stylesheet.IfRule)
	if !ok || len(ifRule.Clauses) != 2 {
		t.Fatalf("expected an if/else with 2 clauses, got %#v", sheet.Stmts[0])
	}
	eachRule, ok := sheet.Stmts[1].(*stylesheet.EachRule)
	if !ok || len(eachRule.Variables) != 2 {
		t.Fatalf("expected @each with 2 variables, got %#v", sheet.Stmts[1])
	}
}

func TestParseMixinIncludeAndFunctionCall(t *testing.T) {
	sheet := parseSCSS(t, `
@mixin pad($size: 1px) {
  padding: $size;
}
.a {
  @include pad(2px);
  width: percentage(0.5);
}
`)
	mixin, ok := sheet.Stmts[0].(*stylesheet.MixinDecl)
	if !ok || mixin.Name != "pad" || len(mixin.Params) != 1 {
		t.Fatalf("unexpected mixin decl: %#v", sheet.Stmts[0])
	}
	rule := sheet.Stmts[1].(*stylesheet.StyleRule)
	include, ok := rule.Body[0].(*stylesheet.IncludeRule)
	if !ok || include.Name != "pad" || len(include.Args.Positional) != 1 {
		t.Fatalf("unexpected include: %#v", rule.Body[0])
	}
	decl := rule.Body[1].(*stylesheet.Declaration)
	call, ok := decl.Value.(*stylesheet.FunctionCall)
	if !ok || call.Name != "percentage" {
		t.Fatalf("unexpected function call: %#v", decl.Value)
	}
}

func TestParseIndentedSyntax(t *testing.T) {
	reg := ast.NewSourceRegistry()
	source := reg.Register("test.sass", "test.sass", logger.SyntaxIndented, ".card\n  color: red\n  width: 1px\n")
	log := logger.NewDeferLog()
	sheet, ok := Parse(log, source)
	if !ok {
		t.Fatalf("parse failed")
	}
	rule, ok := sheet.Stmts[0].(*stylesheet.StyleRule)
	if !ok || len(rule.Body) != 2 {
		t.Fatalf("expected a style rule with 2 declarations, got %#v", sheet.Stmts[0])
	}
}

func TestParseMapLiteral(t *testing.T) {
	sheet := parseSCSS(t, `$m: (a: 1, b: 2);`)
	decl := sheet.Stmts[0].(*stylesheet.VariableDecl)
	m, ok := decl.Value.(*stylesheet.MapLiteral)
	if !ok || len(m.Keys) != 2 {
		t.Fatalf("expected a 2-entry map, got %#v", decl.Value)
	}
}
