// Package importer resolves the URLs written in @use/@forward/@import
// into canonical URLs and loads their contents, the same two-step
// canonicalize/load split the teacher's internal/resolver uses for
// "resolve a path" vs. "read its contents" -- kept separate here because
// the import cache (internal/cache) must memoize each step independently
// per spec section 4.2's at-most-once guarantee.
package importer

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sassgo/sassgo/internal/logger"
)

// Importer resolves and loads Sass source files. Canonicalize and Load
// are separate calls (rather than one "resolve and read" call) so the
// cache can memoize a URL's canonical form independently of its content,
// matching how @use and @forward of the same URL from different files
// must land on the same module without reloading it.
type Importer interface {
	// Canonicalize turns a URL as written (relative to baseURL, which may
	// be empty for an entrypoint) into an absolute canonical URL, or
	// returns ok=false if this importer doesn't recognize it.
	Canonicalize(url string, baseURL string) (canonical string, ok bool)

	// Load returns the contents and syntax for a canonical URL this
	// importer canonicalized.
	Load(canonical string) (contents string, syntax logger.Syntax, ok bool)
}

// FSImporter resolves file:// canonical URLs against a set of load paths
// on disk, probing the extension/partial/index conventions spec section
// 4.2 describes: an exact match, then ".scss"/".sass"/".css" appended,
// then the same with a leading "_" (partial) on the basename, then
// "<name>/index.*" for directory-style imports. LoadPaths may also be
// brace/glob patterns understood by doublestar, letting a single entry
// like "vendor/*/stylesheets" stand in for many directories.
type FSImporter struct {
	LoadPaths []string
}

func NewFSImporter(loadPaths []string) *FSImporter {
	return &FSImporter{LoadPaths: loadPaths}
}

func (f *FSImporter) expandedLoadPaths() []string {
	var out []string
	for _, lp := range f.LoadPaths {
		if !strings.ContainsAny(lp, "*?[{") {
			out = append(out, lp)
			continue
		}
		matches, err := doublestar.FilepathGlob(lp)
		if err != nil {
			continue
		}
		out = append(out, matches...)
	}
	return out
}

func (f *FSImporter) Canonicalize(url string, baseURL string) (string, bool) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return "", false
	}
	candidates := f.candidateBases(url, baseURL)
	for _, base := range candidates {
		if resolved, ok := resolveAgainstBase(base, url); ok {
			return "file://" + resolved, true
		}
	}
	return "", false
}

func (f *FSImporter) candidateBases(url, baseURL string) []string {
	var bases []string
	if strings.HasPrefix(baseURL, "file://") {
		bases = append(bases, filepath.Dir(strings.TrimPrefix(baseURL, "file://")))
	}
	bases = append(bases, f.expandedLoadPaths()...)
	return bases
}

// resolveAgainstBase applies spec section 4.2's file-resolution order
// relative to one base directory.
func resolveAgainstBase(base, url string) (string, bool) {
	if strings.HasPrefix(url, "/") {
		base = ""
	}
	joined := filepath.Join(base, filepath.FromSlash(url))
	dir, name := filepath.Split(joined)

	var candidates []string
	if ext := filepath.Ext(name); ext == ".scss" || ext == ".sass" || ext == ".css" {
		candidates = append(candidates, joined, filepath.Join(dir, "_"+name))
	} else {
		for _, ext := range []string{".scss", ".sass", ".css"} {
			candidates = append(candidates, joined+ext, filepath.Join(dir, "_"+name+ext))
		}
		for _, ext := range []string{".scss", ".sass", ".css"} {
			candidates = append(candidates, filepath.Join(joined, "index"+ext), filepath.Join(joined, "_index"+ext))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				abs = c
			}
			return filepath.ToSlash(abs), true
		}
	}
	return "", false
}

// ExternalURL implements cache.ExternalURLProvider: a file:// canonical
// URL is rendered relative to the process's working directory when
// possible (spec section 4.1 step 5's "importer's preferred external
// form"), matching how a project-relative path is more useful in a
// source map than an absolute one baked from wherever the compiler ran.
func (f *FSImporter) ExternalURL(canonical string) (string, bool) {
	if !strings.HasPrefix(canonical, "file://") {
		return "", false
	}
	p := strings.TrimPrefix(canonical, "file://")
	cwd, err := os.Getwd()
	if err != nil {
		return canonical, true
	}
	rel, err := filepath.Rel(cwd, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return canonical, true
	}
	return "file:" + filepath.ToSlash(rel), true
}

func (f *FSImporter) Load(canonical string) (string, logger.Syntax, bool) {
	p := strings.TrimPrefix(canonical, "file://")
	data, err := os.ReadFile(p)
	if err != nil {
		return "", logger.SyntaxCSS, false
	}
	return string(data), syntaxForPath(p), true
}

func syntaxForPath(p string) logger.Syntax {
	switch strings.ToLower(path.Ext(p)) {
	case ".sass":
		return logger.SyntaxIndented
	case ".css":
		return logger.SyntaxCSS
	default:
		return logger.SyntaxSCSS
	}
}

// NoOpImporter never resolves anything; used as the base importer for a
// compilation that supplies its own entrypoint contents directly (spec
// section 4.1's CompileString) with no filesystem access at all.
type NoOpImporter struct{}

func (NoOpImporter) Canonicalize(string, string) (string, bool) { return "", false }
func (NoOpImporter) Load(string) (string, logger.Syntax, bool)  { return "", logger.SyntaxCSS, false }

// LegacyNodeImporter delegates to a host-supplied callback, the shape the
// legacy JS API's custom importers use: given a URL and the previously
// resolved URL, the host returns file contents (or a new URL to resolve
// against the filesystem) directly, bypassing canonical-URL memoization.
// It is a thin adapter so the driver can treat it like any other
// Importer even though its semantics are host-defined.
type LegacyNodeImporter struct {
	Resolve func(url string, prev string) (contents string, resolvedURL string, ok bool)
	seen    map[string]string
}

func (l *LegacyNodeImporter) Canonicalize(url string, baseURL string) (string, bool) {
	if l.Resolve == nil {
		return "", false
	}
	contents, resolved, ok := l.Resolve(url, baseURL)
	if !ok {
		return "", false
	}
	if l.seen == nil {
		l.seen = make(map[string]string)
	}
	canonical := "legacy://" + resolved
	l.seen[canonical] = contents
	return canonical, true
}

func (l *LegacyNodeImporter) Load(canonical string) (string, logger.Syntax, bool) {
	contents, ok := l.seen[canonical]
	if !ok {
		return "", logger.SyntaxCSS, false
	}
	return contents, logger.SyntaxSCSS, true
}
