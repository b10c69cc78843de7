// Package extender implements @extend: recording which selector a rule
// wants to extend, and rewriting the output tree's rule selectors to
// include the extending rule's own selector wherever the target appears
// (spec section 4.4). Selectors are represented as a comma-separated set
// of plain strings throughout this core (selector combinator grammar is
// out of scope), so extension is a substring-of-compound-selector
// operation rather than a structural selector-list merge; this is a
// deliberate reduction from dart-sass's full selector algebra, recorded
// as an open-question resolution in this repository's design notes.
package extender

import (
	"fmt"
	"strings"

	"github.com/sassgo/sassgo/internal/ast"
)

// Extension is one "<extender-selector> { @extend <target>; }" request.
type Extension struct {
	Target    string
	Extender  string
	Optional  bool
	Span      ast.Span
	ModuleURL string // module the @extend appears in; recorded, not consulted by Apply
}

// Extender accumulates extension requests during evaluation and applies
// them to rule selectors afterward, once every module's @extend
// statements have been recorded (a rule earlier in the same file can be
// extended by a mixin invoked later, so application can't happen inline).
type Extender struct {
	byTarget map[string][]Extension
	order    []string // targets in the order they were first recorded
	matched  map[string]bool
}

func New() *Extender {
	return &Extender{byTarget: make(map[string][]Extension), matched: make(map[string]bool)}
}

// Record stores one @extend request under its normalized target, in
// recording order. moduleURL is the URL of the module the @extend
// statement appears in; it is kept on the Extension and does not affect
// the order in which extensions are applied.
func (e *Extender) Record(target, extender, moduleURL string, optional bool, span ast.Span) {
	ext := Extension{Target: normalize(target), Extender: extender, Optional: optional, Span: span, ModuleURL: moduleURL}
	if _, seen := e.byTarget[ext.Target]; !seen {
		e.order = append(e.order, ext.Target)
	}
	e.byTarget[ext.Target] = append(e.byTarget[ext.Target], ext)
}

func normalize(selector string) string {
	return strings.TrimSpace(selector)
}

// Apply expands one rule's comma-separated selector list, adding the
// extender's selector wherever a compound alternative equals (or
// contains as a whitespace-delimited compound) a recorded target. It is
// idempotent and order-preserving: each of the rule's own selectors is
// followed directly by the extensions it produced, deduplicated.
func (e *Extender) Apply(selectors []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, sel := range selectors {
		add(sel)
		for _, alt := range splitCompounds(sel) {
			exts, ok := e.byTarget[normalize(alt)]
			if !ok {
				continue
			}
			e.matched[normalize(alt)] = true
			for _, ext := range exts {
				add(strings.Replace(sel, alt, ext.Extender, 1))
			}
		}
	}
	return out
}

// splitCompounds breaks "a b, .c .d" style compound selectors on
// whitespace so a target like ".btn" matches the "a .btn" compound
// selector's second piece, not just a whole-selector exact match.
func splitCompounds(selector string) []string {
	parts := strings.Fields(selector)
	parts = append(parts, selector)
	return parts
}

// Unmatched returns an error per required (non-!optional) @extend whose
// target never matched any selector anywhere in the compiled output,
// mirroring spec section 4.4's requirement that an extend with no match
// is a compile error unless marked optional.
func (e *Extender) Unmatched() []error {
	var errs []error
	for _, target := range e.order {
		if e.matched[target] {
			continue
		}
		for _, ext := range e.byTarget[target] {
			if ext.Optional {
				continue
			}
			errs = append(errs, fmt.Errorf("%q matched no selectors from %q", ext.Target, ext.Extender))
		}
	}
	return errs
}
