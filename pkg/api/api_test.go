package api

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompileStringBasic(t *testing.T) {
	result := CompileString(`$base: 16px; .card { width: $base * 2; }`, Options{})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	want := ".card {\n  width: 32px;\n}\n"
	if result.CSS != want {
		t.Errorf("got %q, want %q", result.CSS, want)
	}
}

func TestCompileStringCompressed(t *testing.T) {
	result := CompileString(`.a { color: red; width: 1px; }`, Options{Style: OutputCompressed})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	want := ".a{color:red;width:1px}"
	if result.CSS != want {
		t.Errorf("got %q, want %q", result.CSS, want)
	}
}

func TestCompileStringErrorHasLocation(t *testing.T) {
	result := CompileString(`.a { color: {{{ ; }`, Options{})
	if len(result.Errors) == 0 {
		t.Fatalf("expected a parse error")
	}
	hasLocation := false
	for _, msg := range result.Errors {
		if msg.Location != nil {
			hasLocation = true
		}
	}
	if !hasLocation {
		t.Errorf("expected at least one error to carry a source location, got %+v", result.Errors)
	}
}

func TestCompileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.scss")
	if err := os.WriteFile(path, []byte(`.a { color: red; }`), 0o644); err != nil {
		t.Fatal(err)
	}
	result := Compile(path, Options{})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	want := ".a {\n  color: red;\n}\n"
	if result.CSS != want {
		t.Errorf("got %q, want %q", result.CSS, want)
	}
}

func TestCompileStringUnusedFatalDeprecationDoesNotAbort(t *testing.T) {
	result := CompileString(`.a { color: red; }`, Options{Fatal: []string{"not-a-real-id"}})
	// A Fatal id that never fires during this compile should not itself
	// cause an error; this just exercises that the option plumbs through
	// without panicking on an unrecognized-but-well-formed id.
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
}
