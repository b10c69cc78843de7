package cache

import (
	"testing"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/logger"
)

type countingImporter struct {
	canonicalizeCalls int
	loadCalls         int
}

func (c *countingImporter) Canonicalize(url, baseURL string) (string, bool) {
	c.canonicalizeCalls++
	if url == "foo" {
		return "file:///foo.scss", true
	}
	return "", false
}

func (c *countingImporter) Load(canonical string) (string, logger.Syntax, bool) {
	c.loadCalls++
	if canonical == "file:///foo.scss" {
		return "body{}", logger.SyntaxSCSS, true
	}
	return "", logger.SyntaxCSS, false
}

func TestCanonicalizeAndLoadAreMemoized(t *testing.T) {
	imp := &countingImporter{}
	c := New(ast.NewSourceRegistry(), imp)

	src1, ok := c.Resolve("foo", "")
	if !ok || src1 == nil {
		t.Fatalf("expected a resolved source")
	}
	src2, ok := c.Resolve("foo", "")
	if !ok || src2 != src1 {
		t.Fatalf("expected the same Source pointer on a second resolve")
	}

	if imp.canonicalizeCalls != 1 {
		t.Errorf("expected canonicalize to run once, ran %d times", imp.canonicalizeCalls)
	}
	if imp.loadCalls != 1 {
		t.Errorf("expected load to run once, ran %d times", imp.loadCalls)
	}
}

func TestCanonicalizeMissCachedTooA(t *testing.T) {
	imp := &countingImporter{}
	c := New(ast.NewSourceRegistry(), imp)

	if _, ok := c.Canonicalize("missing", ""); ok {
		t.Fatalf("expected canonicalize to fail for an unresolvable url")
	}
	if _, ok := c.Canonicalize("missing", ""); ok {
		t.Fatalf("expected canonicalize to still fail the second time")
	}
	if imp.canonicalizeCalls != 1 {
		t.Errorf("expected the failed canonicalize to be cached, ran %d times", imp.canonicalizeCalls)
	}
}

func TestRegisterEntrypointStringGetsUniqueURLs(t *testing.T) {
	c := New(ast.NewSourceRegistry())
	a := c.RegisterEntrypointString("a{}", logger.SyntaxSCSS, "")
	b := c.RegisterEntrypointString("b{}", logger.SyntaxSCSS, "")
	if a.CanonicalURL == b.CanonicalURL {
		t.Errorf("expected distinct synthetic canonical URLs, got %q twice", a.CanonicalURL)
	}
}

func TestSourceMapURLEncodesStringEntrypointAsDataURL(t *testing.T) {
	c := New(ast.NewSourceRegistry())
	src := c.RegisterEntrypointString("a{b:1}", logger.SyntaxSCSS, "")

	url := c.SourceMapURL(src)
	if url[:5] != "data:" {
		t.Fatalf("expected a data: URL for a string entrypoint, got %q", url)
	}
}

type fakeExternalURLImporter struct {
	countingImporter
}

func (f *fakeExternalURLImporter) ExternalURL(canonical string) (string, bool) {
	if canonical == "file:///foo.scss" {
		return "file:foo.scss", true
	}
	return "", false
}

func TestSourceMapURLUsesExternalURLProvider(t *testing.T) {
	imp := &fakeExternalURLImporter{}
	c := New(ast.NewSourceRegistry(), imp)

	src, ok := c.Resolve("foo", "")
	if !ok {
		t.Fatalf("expected a resolved source")
	}

	if got := c.SourceMapURL(src); got != "file:foo.scss" {
		t.Errorf("expected ExternalURL's rewritten form, got %q", got)
	}
}

func TestSourceMapURLFallsBackToCanonicalWithoutProvider(t *testing.T) {
	imp := &countingImporter{}
	c := New(ast.NewSourceRegistry(), imp)

	src, ok := c.Resolve("foo", "")
	if !ok {
		t.Fatalf("expected a resolved source")
	}

	if got := c.SourceMapURL(src); got != "file:///foo.scss" {
		t.Errorf("expected canonical URL fallback, got %q", got)
	}
}
