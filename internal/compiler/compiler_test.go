package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassgo/sassgo/internal/css_printer"
)

func TestCompileStringBasic(t *testing.T) {
	result, err := CompileString(`$base: 16px; .card { width: $base * 2; }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".card {\n  width: 32px;\n}\n", result.CSS)
	assert.True(t, result.ContainsCSS)
}

func TestCompileStringCompressed(t *testing.T) {
	result, err := CompileString(`.a { color: red; width: 1px; }`, Options{
		Style: css_printer.Options{Compressed: true},
	})
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red;width:1px}", result.CSS)
}

func TestCompileStringRejectsBadIndentWidth(t *testing.T) {
	_, err := CompileString(`.a { color: red; }`, Options{Style: css_printer.Options{IndentWidth: 99}})
	require.Error(t, err)
}

func TestCompileStringNoCSSWhenOnlyVariables(t *testing.T) {
	result, err := CompileString(`$x: 1;`, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.CSS)
	assert.False(t, result.ContainsCSS)
}

func TestCompileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.scss")
	require.NoError(t, os.WriteFile(path, []byte(`.a { color: red; }`), 0o644))

	result, err := Compile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  color: red;\n}\n", result.CSS)
}

func TestCompileWithLoadPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_colors.scss"), []byte(`$brand: blue;`), 0o644))

	result, err := CompileString(`@use 'colors'; .a { color: $colors.brand; }`, Options{
		LoadPaths: []string{dir},
	})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  color: blue;\n}\n", result.CSS)
}

func TestCompileStringWithSourceMap(t *testing.T) {
	result, err := CompileString(`.a { color: red; }`, Options{SourceMap: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SourceMap)
	assert.Contains(t, result.CSS, "sourceMappingURL=data:application/json")
}

func TestCompileStringSourceMapEncodesEntrypointAsDataURL(t *testing.T) {
	result, err := CompileString(`.a { color: red; }`, Options{SourceMap: true})
	require.NoError(t, err)
	assert.Contains(t, result.SourceMap, `"sources":["data:`)
}

func TestCompileSourceMapUsesProjectRelativePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.scss")
	require.NoError(t, os.WriteFile(path, []byte(`.a { color: red; }`), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(cwd)) }()

	result, err := Compile("a.scss", Options{SourceMap: true})
	require.NoError(t, err)
	assert.Contains(t, result.SourceMap, `"sources":["file:a.scss"]`)
}

func TestCompileStringExtendUnmatchedIsAnError(t *testing.T) {
	_, err := CompileString(`.a { @extend .missing; }`, Options{})
	require.Error(t, err)
}

func TestCompileStringExtendOptionalIsSilent(t *testing.T) {
	_, err := CompileString(`.a { @extend .missing !optional; }`, Options{})
	require.NoError(t, err)
}

func TestCompileStringQuotedStringKeepsQuotesInDeclaration(t *testing.T) {
	result, err := CompileString(`.a { content: "hello"; }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  content: \"hello\";\n}\n", result.CSS)
}

func TestCompileStringQuoteFunctionAddsQuotes(t *testing.T) {
	result, err := CompileString(`.a { content: quote(hello); }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".a {\n  content: \"hello\";\n}\n", result.CSS)
}

func TestCompileStringInterpolationStaysUnquoted(t *testing.T) {
	result, err := CompileString(`.icon-#{"a"} { color: red; }`, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".icon-a {\n  color: red;\n}\n", result.CSS)
}
