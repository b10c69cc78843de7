// Package api is the small public surface meant for embedding this
// compiler as a library, the way the teacher's own pkg/api wraps its
// internal bundler behind two functions (Build/Transform) and a couple
// of plain option structs. This package does the same thing for one
// operation instead of two: Compile reads a file from disk, CompileString
// compiles an in-memory string, and both return a CompileResult.
//
// Example usage:
//
//     package main
//
//     import (
//         "fmt"
//
//         "github.com/sassgo/sassgo/pkg/api"
//     )
//
//     func main() {
//         result := api.CompileString(`$base: 16px; .card { width: $base * 2; }`, api.Options{})
//         fmt.Printf("%d errors\n", len(result.Errors))
//         fmt.Print(result.CSS)
//     }
package api

import (
	"github.com/sassgo/sassgo/internal/compiler"
	"github.com/sassgo/sassgo/internal/deprecation"
	"github.com/sassgo/sassgo/internal/importer"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/sasserr"
)

type Syntax uint8

const (
	SyntaxDefault Syntax = iota // infer from the file extension; SCSS for CompileString
	SyntaxSCSS
	SyntaxIndented
	SyntaxCSS
)

type OutputStyle uint8

const (
	OutputExpanded OutputStyle = iota
	OutputCompressed
)

type SourceMapMode uint8

const (
	SourceMapAuto SourceMapMode = iota
	SourceMapAlways
	SourceMapNever
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

// Options mirrors spec section 6's option table: everything a caller
// can set to influence one compile, independent of whether it reads
// from disk (Compile) or a string (CompileString).
type Options struct {
	Syntax Syntax

	Style         OutputStyle
	SourceMap     bool
	SourceMapMode SourceMapMode
	Charset       bool

	LoadPaths []string
	Importers []importer.Importer

	// QuietDeps is handed to the deprecation logger, which drops non-fatal
	// warnings flagged as coming from a dependency. The evaluator flags no
	// warning that way, so setting it silences nothing.
	QuietDeps       bool
	LimitRepetition bool
	Silence         []string // deprecation ids to never warn about
	Fatal           []string // deprecation ids that abort the compile
	Future          []string // opt-in future-breaking-change ids to warn about early
}

type CompileResult struct {
	CSS         string
	SourceMap   string
	LoadedURLs  []string
	ContainsCSS bool

	Errors   []Message
	Warnings []Message
}

// Compile reads path from disk and compiles it.
func Compile(path string, options Options) CompileResult {
	return run(func(opts compiler.Options) (compiler.CompileResult, error) {
		return compiler.Compile(path, opts)
	}, options)
}

// CompileString compiles source directly with no filesystem access
// beyond whatever Options.Importers/LoadPaths supply for its own
// @use/@forward statements.
func CompileString(source string, options Options) CompileResult {
	return run(func(opts compiler.Options) (compiler.CompileResult, error) {
		return compiler.CompileString(source, opts)
	}, options)
}

func run(call func(compiler.Options) (compiler.CompileResult, error), options Options) CompileResult {
	log := logger.NewDeferLog()
	opts := compiler.Options{
		Syntax:          syntaxToInternal(options.Syntax),
		Log:             log,
		Importers:       options.Importers,
		LoadPaths:       options.LoadPaths,
		SourceMap:       options.SourceMap,
		SourceMapMode:   sourceMapModeToInternal(options.SourceMapMode),
		Charset:         options.Charset,
		LimitRepetition: options.LimitRepetition,
		QuietDeps:       options.QuietDeps,
		Deprecation:     policySet(options),
	}
	opts.Style.Compressed = options.Style == OutputCompressed

	result, err := call(opts)

	res := CompileResult{
		CSS:         result.CSS,
		SourceMap:   result.SourceMap,
		LoadedURLs:  result.LoadedURLs,
		ContainsCSS: result.ContainsCSS,
	}
	for _, msg := range log.Done() {
		m := toMessage(msg)
		if msg.Kind == logger.Error {
			res.Errors = append(res.Errors, m)
		} else {
			res.Warnings = append(res.Warnings, m)
		}
	}
	if err != nil {
		res.Errors = append(res.Errors, errToMessage(err))
	}
	return res
}

func toMessage(msg logger.Msg) Message {
	m := Message{Text: msg.Data.Text}
	if loc := msg.Data.Location; loc != nil {
		m.Location = &Location{File: loc.File, Line: loc.Line, Column: loc.Column, LineText: loc.LineText}
	}
	return m
}

func errToMessage(err error) Message {
	if se, ok := err.(*sasserr.Error); ok && se.Span != nil {
		if loc := se.Span.Location(); loc != nil {
			return Message{Text: err.Error(), Location: &Location{File: loc.File, Line: loc.Line, Column: loc.Column, LineText: loc.LineText}}
		}
	}
	return Message{Text: err.Error()}
}

func syntaxToInternal(s Syntax) logger.Syntax {
	switch s {
	case SyntaxIndented:
		return logger.SyntaxIndented
	case SyntaxCSS:
		return logger.SyntaxCSS
	default:
		return logger.SyntaxSCSS
	}
}

func sourceMapModeToInternal(m SourceMapMode) compiler.SourceMapMode {
	switch m {
	case SourceMapAlways:
		return compiler.SourceMapAlways
	case SourceMapNever:
		return compiler.SourceMapNever
	default:
		return compiler.SourceMapAuto
	}
}

func policySet(options Options) deprecation.PolicySet {
	ps := deprecation.PolicySet{
		Silence: stringSet(options.Silence),
		Fatal:   stringSet(options.Fatal),
		Future:  stringSet(options.Future),
	}
	return ps
}

func stringSet(ids []string) map[deprecation.ID]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[deprecation.ID]bool, len(ids))
	for _, id := range ids {
		set[deprecation.ID(id)] = true
	}
	return set
}
