package css_printer

import (
	"strings"
	"testing"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/logger"
)

func span(reg *ast.SourceRegistry, src *logger.Source) ast.Span {
	return ast.Span{Source: src, Range: logger.Range{Loc: logger.Loc{Start: 0}, Len: 1}}
}

func TestPrintExpanded(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("a.scss", "a.scss", logger.SyntaxSCSS, ".card { color: red; }")

	rule := css_ast.NewRule(span(reg, src), []string{".card"})
	rule.Body = []css_ast.Node{css_ast.NewDeclaration(span(reg, src), "color", "red", false)}

	result := Print(css_ast.Root{Nodes: []css_ast.Node{rule}}, Options{})
	got := string(result.CSS)
	want := ".card {\n  color: red;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintCompressed(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("a.scss", "a.scss", logger.SyntaxSCSS, ".a { color: red; width: 1px; }")

	rule := css_ast.NewRule(span(reg, src), []string{".a"})
	rule.Body = []css_ast.Node{
		css_ast.NewDeclaration(span(reg, src), "color", "red", false),
		css_ast.NewDeclaration(span(reg, src), "width", "1px", false),
	}

	result := Print(css_ast.Root{Nodes: []css_ast.Node{rule}}, Options{Compressed: true})
	got := string(result.CSS)
	if strings.Contains(got, "\n\t") || strings.Contains(got, "  ") {
		t.Errorf("compressed output should have no indentation: %q", got)
	}
	if got != ".a{color:red;width:1px}" {
		t.Errorf("unexpected compressed output: %q", got)
	}
}

func TestPrintEmptyRuleOmitted(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("a.scss", "a.scss", logger.SyntaxSCSS, ".empty {}")
	rule := css_ast.NewRule(span(reg, src), []string{".empty"})

	result := Print(css_ast.Root{Nodes: []css_ast.Node{rule}}, Options{})
	if string(result.CSS) != "" {
		t.Errorf("expected an empty rule to print nothing, got %q", string(result.CSS))
	}
}

func TestSourceMapGenerated(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("a.scss", "a.scss", logger.SyntaxSCSS, ".a { color: red; }")
	rule := css_ast.NewRule(span(reg, src), []string{".a"})
	rule.Body = []css_ast.Node{css_ast.NewDeclaration(span(reg, src), "color", "red", false)}

	result := Print(css_ast.Root{Nodes: []css_ast.Node{rule}}, Options{SourceMap: true})
	if result.SourceMap == nil {
		t.Fatal("expected a source map to be generated")
	}
	if !strings.Contains(string(result.SourceMap), `"version":3`) {
		t.Errorf("expected a v3 source map, got %s", result.SourceMap)
	}
}

func TestSourceMapURLRewritesSourcesEntry(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("a.scss", "a.scss", logger.SyntaxSCSS, ".a { color: red; }")
	rule := css_ast.NewRule(span(reg, src), []string{".a"})
	rule.Body = []css_ast.Node{css_ast.NewDeclaration(span(reg, src), "color", "red", false)}

	result := Print(css_ast.Root{Nodes: []css_ast.Node{rule}}, Options{
		SourceMap: true,
		SourceMapURL: func(s *logger.Source) string {
			return "rewritten://" + s.CanonicalURL
		},
	})
	if !strings.Contains(string(result.SourceMap), `"sources":["rewritten://a.scss"]`) {
		t.Errorf("expected the rewritten URL in sources, got %s", result.SourceMap)
	}
}
