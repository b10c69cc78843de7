package evaluator

import (
	"strings"
	"testing"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/cache"
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/css_printer"
	"github.com/sassgo/sassgo/internal/extender"
	"github.com/sassgo/sassgo/internal/importer"
	"github.com/sassgo/sassgo/internal/logger"
)

// compile parses and evaluates text as a standalone entrypoint and
// returns the printed CSS, the way internal/compiler's own pipeline
// will chain these same three packages together.
func compile(t *testing.T, text string) string {
	t.Helper()
	reg := ast.NewSourceRegistry()
	source := reg.Register("test.scss", "test.scss", logger.SyntaxSCSS, text)
	log := logger.NewDeferLog()

	ext := extender.New()
	ev := New(Options{
		Cache:    cache.New(reg, importer.NoOpImporter{}),
		Extender: ext,
		Log:      log,
	})

	mod, err := ev.EvaluateEntrypoint(source, source.CanonicalURL)
	if err != nil {
		for _, msg := range log.Done() {
			t.Logf("log: %s", msg.Data.Text)
		}
		t.Fatalf("evaluate failed: %v", err)
	}

	nodes := ApplyExtends(FlattenCSS(mod), ext)
	result := css_printer.Print(css_ast.Root{Nodes: nodes}, css_printer.Options{})
	return string(result.CSS)
}

func TestVariableAndStyleRule(t *testing.T) {
	got := compile(t, `$base: 16px; .card { width: $base * 2; }`)
	want := ".card {\n  width: 32px;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedSelectorAmpersand(t *testing.T) {
	got := compile(t, `a { color: blue; &:hover { color: red; } }`)
	want := "a {\n  color: blue;\n}\na:hover {\n  color: red;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedDeclarationPrefix(t *testing.T) {
	got := compile(t, `.a { font: { size: 1em; family: sans-serif; } }`)
	want := ".a {\n  font-size: 1em;\n  font-family: sans-serif;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIfElse(t *testing.T) {
	got := compile(t, `
$theme: dark;
.page {
  @if $theme == dark {
    background: black;
  } @else {
    background: white;
  }
}`)
	want := ".page {\n  background: black;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEachOverList(t *testing.T) {
	got := compile(t, `
@each $name in a, b, c {
  .icon-#{$name} { content: $name; }
}`)
	want := ".icon-a {\n  content: a;\n}\n.icon-b {\n  content: b;\n}\n.icon-c {\n  content: c;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestForLoop(t *testing.T) {
	got := compile(t, `
@for $i from 1 through 3 {
  .col-#{$i} { width: $i * 10px; }
}`)
	want := ".col-1 {\n  width: 10px;\n}\n.col-2 {\n  width: 20px;\n}\n.col-3 {\n  width: 30px;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWhileLoopTerminates(t *testing.T) {
	got := compile(t, `
$i: 0;
@while $i < 3 {
  .item-#{$i} { order: $i; }
  $i: $i + 1;
}`)
	want := ".item-0 {\n  order: 0;\n}\n.item-1 {\n  order: 1;\n}\n.item-2 {\n  order: 2;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMixinWithContentBlock(t *testing.T) {
	got := compile(t, `
@mixin responsive {
  @media (min-width: 600px) {
    @content;
  }
}
.box {
  @include responsive {
    width: 50%;
  }
}`)
	want := ".box {\n  @media (min-width: 600px) {\n    width: 50%;\n  }\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMixinWithArgsAndDefault(t *testing.T) {
	got := compile(t, `
@mixin border($width: 1px, $color: black) {
  border: $width solid $color;
}
.a { @include border; }
.b { @include border(2px, red); }`)
	want := ".a {\n  border: 1px solid black;\n}\n.b {\n  border: 2px solid red;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFunctionReturn(t *testing.T) {
	got := compile(t, `
@function double($n) {
  @return $n * 2;
}
.a { width: double(5px); }`)
	want := ".a {\n  width: 10px;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtendAppliesAcrossRules(t *testing.T) {
	got := compile(t, `
.message { border: 1px solid; }
.success {
  @extend .message;
  color: green;
}`)
	want := ".message, .success {\n  border: 1px solid;\n}\n.success {\n  color: green;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScopeDoesNotLeakLocalVariables(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("test.scss", "test.scss", logger.SyntaxSCSS, `
.a {
  @if true {
    $local: 1;
  }
}`)
	log := logger.NewDeferLog()
	ev := New(Options{Cache: cache.New(reg, importer.NoOpImporter{}), Extender: extender.New(), Log: log})
	mod, err := ev.EvaluateEntrypoint(src, src.CanonicalURL)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if _, ok := mod.Env.GetVariable("local"); ok {
		t.Errorf("expected $local to have been removed once its @if block's scope popped")
	}
}

func TestUndefinedMixinIsAnError(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("test.scss", "test.scss", logger.SyntaxSCSS, `.a { @include nope; }`)
	log := logger.NewDeferLog()
	ev := New(Options{Cache: cache.New(reg, importer.NoOpImporter{}), Extender: extender.New(), Log: log})
	if _, err := ev.EvaluateEntrypoint(src, src.CanonicalURL); err == nil {
		t.Fatalf("expected an error for an undefined mixin")
	}
}

func TestUndefinedVariableSuggestsCloseMatch(t *testing.T) {
	reg := ast.NewSourceRegistry()
	src := reg.Register("test.scss", "test.scss", logger.SyntaxSCSS, `
$color: red;
.a { color: $colr; }`)
	log := logger.NewDeferLog()
	ev := New(Options{Cache: cache.New(reg, importer.NoOpImporter{}), Extender: extender.New(), Log: log})
	_, err := ev.EvaluateEntrypoint(src, src.CanonicalURL)
	if err == nil {
		t.Fatalf("expected an error for an undefined variable")
	}
	if got := err.Error(); !strings.Contains(got, "$color") {
		t.Errorf("expected error to suggest $color, got %q", got)
	}
}
