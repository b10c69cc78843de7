// Package ast holds the pieces shared by every later stage: the span type
// that every stylesheet node carries, and the registry that owns the text
// of every source file involved in a compilation.
package ast

import (
	"sync"

	"github.com/sassgo/sassgo/internal/logger"
)

// Index32 stores a 32-bit index where the zero value is invalid. This is a
// smaller, GC-friendlier alternative to a pointer or a "(int, bool)" pair.
type Index32 struct {
	flippedBits uint32
}

func MakeIndex32(index uint32) Index32 { return Index32{flippedBits: ^index} }
func (i Index32) IsValid() bool        { return i.flippedBits != 0 }
func (i Index32) GetIndex() uint32     { return ^i.flippedBits }

// Span is the position every stylesheet AST node carries: a source file
// plus a byte range within it. Spans compose via Expand to cover larger
// syntactic constructs (e.g. a whole rule spanning its selector and body).
type Span struct {
	Source *logger.Source
	Range  logger.Range
}

// Expand returns the smallest span that contains both a and b. Both must
// point into the same source file.
func (a Span) Expand(b Span) Span {
	if a.Source != b.Source {
		panic("internal error: cannot expand spans from different files")
	}
	lo := a.Range.Loc.Start
	hi := a.Range.End()
	if b.Range.Loc.Start < lo {
		lo = b.Range.Loc.Start
	}
	if b.Range.End() > hi {
		hi = b.Range.End()
	}
	return Span{Source: a.Source, Range: logger.Range{Loc: logger.Loc{Start: lo}, Len: hi - lo}}
}

func (s Span) Text() string {
	if s.Source == nil {
		return ""
	}
	return s.Source.TextForRange(s.Range)
}

func (s Span) Location() *logger.MsgLocation {
	return logger.LocationOrNil(s.Source, s.Range)
}

// SourceRegistry is the leaf "span/file registry" of the system: it owns
// every source's text, keyed by canonical URL, and is the only place new
// *logger.Source values are minted. It is safe for concurrent reads once
// populated; writes are serialized by the import cache, which is the
// registry's single writer during a compilation (see internal/cache).
type SourceRegistry struct {
	mutex   sync.Mutex
	byURL   map[string]*logger.Source
	ordered []*logger.Source
}

func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{byURL: make(map[string]*logger.Source)}
}

// Register records a source under its canonical URL, returning the
// existing entry if one was already registered for that URL (idempotent,
// matching the import cache's "load invoked at most once" invariant).
func (r *SourceRegistry) Register(canonicalURL, prettyURL string, syntax logger.Syntax, contents string) *logger.Source {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if canonicalURL != "" {
		if existing, ok := r.byURL[canonicalURL]; ok {
			return existing
		}
	}

	source := &logger.Source{
		CanonicalURL: canonicalURL,
		PrettyURL:    prettyURL,
		Syntax:       syntax,
		Contents:     contents,
		Index:        uint32(len(r.ordered)),
	}
	r.ordered = append(r.ordered, source)
	if canonicalURL != "" {
		r.byURL[canonicalURL] = source
	}
	return source
}

func (r *SourceRegistry) Lookup(canonicalURL string) (*logger.Source, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	s, ok := r.byURL[canonicalURL]
	return s, ok
}

// All returns every registered source in registration order. Used by the
// serializer to emit the source map's "sourcesContent" array.
func (r *SourceRegistry) All() []*logger.Source {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]*logger.Source, len(r.ordered))
	copy(out, r.ordered)
	return out
}
