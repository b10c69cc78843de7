// Package compiler drives one compilation end to end: it implements the
// five-step algorithm spec section 4.1 describes, chaining
// internal/cache, internal/evaluator, internal/extender, and
// internal/css_printer the way the teacher's own top-level Transform
// entry point chains its parser, linker, and printer behind one call.
package compiler

import (
	"os"
	"path/filepath"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/cache"
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/css_printer"
	"github.com/sassgo/sassgo/internal/deprecation"
	"github.com/sassgo/sassgo/internal/evaluator"
	"github.com/sassgo/sassgo/internal/extender"
	"github.com/sassgo/sassgo/internal/helpers"
	"github.com/sassgo/sassgo/internal/importer"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/sasserr"
)

// SourceMapMode is the "sourceMapIncludeSources" option (spec section 6).
type SourceMapMode uint8

const (
	SourceMapAuto SourceMapMode = iota
	SourceMapAlways
	SourceMapNever
)

// Options carries every option spec section 6's table names. It plays
// the role of the teacher's internal/config.Options: a single struct
// threaded through the whole pipeline rather than separate parameters
// per stage.
type Options struct {
	Syntax    logger.Syntax // force scss/sass/css; ignored by CompileString unless set explicitly
	Log       logger.Log
	Importers []importer.Importer
	LoadPaths []string

	Style         css_printer.Options // Compressed/IndentWidth/Indent/LineFeed reused directly
	SourceMap     bool
	SourceMapMode SourceMapMode
	Charset       bool

	Deprecation     deprecation.PolicySet
	LimitRepetition bool
	QuietDeps       bool
}

// CompileResult is the return value of both Compile and CompileString:
// the rendered CSS plus, when requested, a source map. Warnings raised
// during the compile are not part of it; they go to Options.Log.
type CompileResult struct {
	CSS         string
	SourceMap   string // JSON text, "" unless Options.SourceMap
	LoadedURLs  []string
	ContainsCSS bool
}

// Compile reads path from disk and compiles it, inferring syntax from
// its extension unless Options.Syntax was set explicitly (spec section
// 6's compile(path, options)). A filesystem importer with no load paths
// is added after Options.Importers, so URLs relative to a file on disk
// resolve and source maps list files as working-directory-relative
// file: URLs.
func Compile(path string, opts Options) (CompileResult, error) {
	opts.Importers = append(append([]importer.Importer{}, opts.Importers...), importer.NewFSImporter(nil))
	data, err := os.ReadFile(path)
	if err != nil {
		return CompileResult{}, sasserr.Filesystem("%s", err.Error())
	}
	reg := ast.NewSourceRegistry()
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	canonical := "file://" + filepath.ToSlash(abs)
	syntax := syntaxOf(path, opts.Syntax)
	return compile(reg, func(*cache.ImportCache) *logger.Source {
		return reg.Register(canonical, path, syntax, string(data))
	}, opts)
}

// CompileString parses source directly with no filesystem access beyond
// whatever Options.Importers/LoadPaths supply for its own @use/@forward
// statements (spec section 6's compileString(source, options)). The
// entrypoint is registered through ImportCache.RegisterEntrypointString,
// which mints a fresh github.com/google/uuid-based canonical URL per call
// so two concurrent in-memory compilations never collide inside a shared
// ImportCache (spec section 4.2's "entries never expire within a
// compilation" assumes one cache per compile, but a long-lived host
// process may reuse one cache across many CompileString calls), and which
// ImportCache.SourceMapURL later recognizes to render this entrypoint as
// a data URL in a source map's "sources" array (spec section 4.1 step 5)
// instead of its synthetic URL.
func CompileString(source string, opts Options) (CompileResult, error) {
	reg := ast.NewSourceRegistry()
	return compile(reg, func(imp *cache.ImportCache) *logger.Source {
		return imp.RegisterEntrypointString(source, opts.Syntax, "stdin")
	}, opts)
}

func syntaxOf(path string, forced logger.Syntax) logger.Syntax {
	if forced != logger.SyntaxSCSS {
		return forced
	}
	switch {
	case hasSuffix(path, ".sass"):
		return logger.SyntaxIndented
	case hasSuffix(path, ".css"):
		return logger.SyntaxCSS
	default:
		return logger.SyntaxSCSS
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func compile(reg *ast.SourceRegistry, registerEntrypoint func(*cache.ImportCache) *logger.Source, opts Options) (CompileResult, error) {
	if err := opts.Deprecation.Validate(); err != nil {
		return CompileResult{}, sasserr.Usage("%s", err.Error())
	}
	if opts.Style.IndentWidth < 0 || opts.Style.IndentWidth > 10 {
		return CompileResult{}, sasserr.Usage("indentWidth must be between 0 and 10, got %d", opts.Style.IndentWidth)
	}

	log := opts.Log
	if log.AddMsg == nil {
		log = logger.NewDeferLog()
	}

	importers := opts.Importers
	if len(opts.LoadPaths) > 0 {
		importers = append(append([]importer.Importer{}, importers...), importer.NewFSImporter(opts.LoadPaths))
	}
	imp := cache.New(reg, importers...)
	source := registerEntrypoint(imp)

	ext := extender.New()
	dep := deprecation.NewLogger(log, opts.Deprecation, opts.LimitRepetition, opts.QuietDeps)

	ev := evaluator.New(evaluator.Options{
		Cache:       imp,
		Extender:    ext,
		Deprecation: dep,
		Log:         log,
	})

	mod, err := ev.EvaluateEntrypoint(source, source.CanonicalURL)
	if err != nil {
		return CompileResult{}, err
	}
	dep.Summarize()

	nodes := evaluator.ApplyExtends(evaluator.FlattenCSS(mod), ext)
	for _, unmatched := range ext.Unmatched() {
		return CompileResult{}, sasserr.Usage("%s", unmatched.Error())
	}

	printOpts := opts.Style
	printOpts.SourceMap = opts.SourceMap
	printOpts.SourceRegistry = reg
	printOpts.SourceMapURL = imp.SourceMapURL
	result := css_printer.Print(css_ast.Root{Nodes: nodes}, printOpts)

	css := string(result.CSS)
	if opts.Charset && containsNonASCII(css) {
		css = string(rune(0xFEFF)) + css
	}

	out := CompileResult{CSS: css, ContainsCSS: mod.TransitivelyContainsCSS}
	if opts.SourceMap {
		out.SourceMap = string(result.SourceMap)
		out.CSS = css + "\n/*# sourceMappingURL=" + helpers.EncodeStringAsShortestDataURL("application/json", out.SourceMap) + " */\n"
	}
	for _, s := range reg.All() {
		out.LoadedURLs = append(out.LoadedURLs, s.CanonicalURL)
	}
	return out, nil
}

func containsNonASCII(s string) bool {
	for _, r := range s {
		if r > 0x7f {
			return true
		}
	}
	return false
}
