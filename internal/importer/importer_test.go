package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassgo/sassgo/internal/logger"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestFSImporterResolvesExactExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.scss", ".a { color: red; }")

	f := NewFSImporter([]string{dir})
	canonical, ok := f.Canonicalize("foo.scss", "")
	require.True(t, ok)

	contents, syntax, ok := f.Load(canonical)
	require.True(t, ok)
	assert.Equal(t, ".a { color: red; }", contents)
	assert.Equal(t, logger.SyntaxSCSS, syntax)
}

func TestFSImporterResolvesExtensionlessImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.scss", "$x: 1;")

	f := NewFSImporter([]string{dir})
	canonical, ok := f.Canonicalize("foo", "")
	require.True(t, ok)

	_, _, ok = f.Load(canonical)
	assert.True(t, ok)
}

func TestFSImporterFallsBackToPartialFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_foo.scss", "$x: 2;")

	f := NewFSImporter([]string{dir})
	canonical, ok := f.Canonicalize("foo", "")
	require.True(t, ok)

	contents, _, ok := f.Load(canonical)
	require.True(t, ok)
	assert.Equal(t, "$x: 2;", contents)
}

func TestFSImporterResolvesDirectoryIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("pkg", "_index.scss"), ".pkg { color: blue; }")

	f := NewFSImporter([]string{dir})
	canonical, ok := f.Canonicalize("pkg", "")
	require.True(t, ok)

	contents, _, ok := f.Load(canonical)
	require.True(t, ok)
	assert.Equal(t, ".pkg { color: blue; }", contents)
}

func TestFSImporterResolvesRelativeToImportingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("sub", "foo.scss"), "$x: 3;")

	f := NewFSImporter(nil)
	baseURL := "file://" + filepath.Join(dir, "sub", "entry.scss")
	canonical, ok := f.Canonicalize("foo", baseURL)
	require.True(t, ok)

	_, _, ok = f.Load(canonical)
	assert.True(t, ok)
}

func TestFSImporterCanonicalizeFailsWhenNothingMatches(t *testing.T) {
	dir := t.TempDir()
	f := NewFSImporter([]string{dir})

	_, ok := f.Canonicalize("nonexistent", "")
	assert.False(t, ok)
}

func TestFSImporterExternalURLIsRelativeToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "foo.scss", ".a{}")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(cwd)) }()

	f := NewFSImporter([]string{"."})
	canonical, ok := f.Canonicalize("foo.scss", "")
	require.True(t, ok)

	url, ok := f.ExternalURL(canonical)
	require.True(t, ok)
	assert.Equal(t, "file:foo.scss", url)
}

func TestFSImporterExternalURLRejectsNonFileScheme(t *testing.T) {
	f := NewFSImporter(nil)
	_, ok := f.ExternalURL("string://some-uuid")
	assert.False(t, ok)
}

func TestFSImporterRejectsHTTPURLs(t *testing.T) {
	f := NewFSImporter(nil)
	_, ok := f.Canonicalize("https://example.com/foo.scss", "")
	assert.False(t, ok)
}

func TestNoOpImporterNeverResolves(t *testing.T) {
	var n NoOpImporter
	_, ok := n.Canonicalize("anything", "")
	assert.False(t, ok)
	_, _, ok = n.Load("anything")
	assert.False(t, ok)
}

func TestLegacyNodeImporterRoundTrips(t *testing.T) {
	l := &LegacyNodeImporter{
		Resolve: func(url, prev string) (string, string, bool) {
			if url == "foo" {
				return ".a{}", "foo-resolved", true
			}
			return "", "", false
		},
	}

	canonical, ok := l.Canonicalize("foo", "")
	require.True(t, ok)

	contents, syntax, ok := l.Load(canonical)
	require.True(t, ok)
	assert.Equal(t, ".a{}", contents)
	assert.Equal(t, logger.SyntaxSCSS, syntax)
}

func TestLegacyNodeImporterFailsWhenResolveRejects(t *testing.T) {
	l := &LegacyNodeImporter{
		Resolve: func(url, prev string) (string, string, bool) { return "", "", false },
	}
	_, ok := l.Canonicalize("anything", "")
	assert.False(t, ok)
}
