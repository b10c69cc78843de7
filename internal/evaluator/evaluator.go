// Package evaluator walks a parsed stylesheet.Stylesheet and reduces it to
// a css_ast.Root: it resolves interpolation, evaluates expressions against
// a scoped environment (internal/environment), expands control flow and
// callable invocation, and records @extend requests for internal/extender
// to apply once every module has been walked. This mirrors the shape of
// the teacher's linker: a module graph loaded and evaluated module by
// module (internal/cache doing the at-most-once load), combined into one
// output tree in upstream-before-downstream order.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/sassgo/sassgo/internal/cache"
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/deprecation"
	"github.com/sassgo/sassgo/internal/environment"
	"github.com/sassgo/sassgo/internal/extender"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/parser"
	"github.com/sassgo/sassgo/internal/sasserr"
	"github.com/sassgo/sassgo/internal/stylesheet"
	"github.com/sassgo/sassgo/internal/value"
)

// Module is one evaluated @use/@forward unit: its own scope plus the CSS
// it and its upstream dependencies produced. TransitivelyContainsCSS is
// the invariant spec section 5 names: a module with no CSS of its own but
// that forwards one that does still counts as "containing CSS" for
// duplicate-use detection upstream.
type Module struct {
	URL                     string
	Env                     *environment.Environment
	CSS                     []css_ast.Node
	Upstream                []*Module
	Namespaces              map[string]*Module
	TransitivelyContainsCSS bool
}

func newModule(url string) *Module {
	return &Module{URL: url, Env: environment.New(), Namespaces: make(map[string]*Module)}
}

// Options configures one compilation's evaluator.
type Options struct {
	Cache       *cache.ImportCache
	Extender    *extender.Extender
	Deprecation *deprecation.Logger
	Log         logger.Log
	MaxLoopIterations int // 0 means the default below
}

const defaultMaxLoopIterations = 100000

// Evaluator drives one compilation: it owns the module-load memo table (so
// "@use" of the same URL from two files shares one Module, per spec
// section 4.2) and the single CallStack used to build error traces.
type Evaluator struct {
	opts    Options
	modules map[string]*Module
	stack   CallStack
}

func New(opts Options) *Evaluator {
	if opts.MaxLoopIterations == 0 {
		opts.MaxLoopIterations = defaultMaxLoopIterations
	}
	return &Evaluator{opts: opts, modules: make(map[string]*Module)}
}

// CallStack is the trace attached to runtime errors and to fatal
// deprecation warnings (spec section 8's "the call stack active when a
// warning fires").
type CallStack struct {
	frames []logger.StackFrame
}

func (c *CallStack) push(name string, loc *logger.MsgLocation) {
	c.frames = append(c.frames, logger.StackFrame{CallableName: name, Location: loc})
}

func (c *CallStack) pop() { c.frames = c.frames[:len(c.frames)-1] }

func (c *CallStack) Snapshot() []logger.StackFrame {
	out := make([]logger.StackFrame, len(c.frames))
	copy(out, c.frames)
	return out
}

// flow reports early exit from a statement list: a @return inside a
// function body, or (reserved for a future @break/@continue) loop control.
// css_ast nodes produced along the way are appended directly to the
// caller-supplied out slice rather than threaded through flow, since only
// functions (which never produce CSS) ever set returned.
type flow struct {
	returned bool
	value    value.Value
}

// frame carries the state that changes as evalStatements recurses: which
// module's CSS this statement contributes to, the enclosing module (for
// namespace/variable resolution and the import cache's base URL), the
// currently active selector list (for @extend and selector nesting), and
// the content block passed to the nearest enclosing mixin invocation.
type frame struct {
	mod        *Module
	env        *environment.Environment
	selectors  []string
	content    *contentClosure
	namePrefix string
}

type contentClosure struct {
	stmts []stylesheet.Statement
	env   *environment.Environment
	mod   *Module
}

// EvaluateEntrypoint parses and evaluates the root stylesheet of a
// compilation, returning the fully-evaluated module graph rooted at it.
// Source is already loaded (by the caller, via internal/cache); url is its
// canonical URL, used as the base for any relative @use/@forward/@import
// the entrypoint itself writes.
func (e *Evaluator) EvaluateEntrypoint(source *logger.Source, url string) (*Module, error) {
	sheet, ok := parser.Parse(e.opts.Log, source)
	if !ok {
		return nil, sasserr.New(sasserr.KindParse, nil, "failed to parse %s", url)
	}
	return e.evaluateModule(sheet, url)
}

func (e *Evaluator) evaluateModule(sheet *stylesheet.Stylesheet, url string) (*Module, error) {
	if mod, ok := e.modules[url]; ok {
		return mod, nil
	}
	mod := newModule(url)
	// Registered before the body is walked so a cyclic @use resolves to
	// the (still-filling-in) module rather than recursing forever; Sass
	// itself forbids true import cycles, but this keeps the evaluator
	// from hanging on one rather than producing a confusing stack trace.
	e.modules[url] = mod

	fr := frame{mod: mod, env: mod.Env}
	var out []css_ast.Node
	if _, err := e.evalStatements(sheet.Stmts, fr, &out); err != nil {
		return nil, err
	}
	mod.CSS = out
	mod.TransitivelyContainsCSS = len(out) > 0
	for _, up := range mod.Upstream {
		if up.TransitivelyContainsCSS {
			mod.TransitivelyContainsCSS = true
		}
	}
	return mod, nil
}

// FlattenCSS assembles one module's full CSS output in the upstream-
// before-downstream order spec section 5 requires: every dependency's own
// nodes first (in @use order), then this module's.
func FlattenCSS(mod *Module) []css_ast.Node {
	var out []css_ast.Node
	seen := make(map[*Module]bool)
	var walk func(m *Module)
	walk = func(m *Module) {
		if seen[m] {
			return
		}
		seen[m] = true
		for _, up := range m.Upstream {
			walk(up)
		}
		out = append(out, m.CSS...)
	}
	walk(mod)
	return out
}

func (e *Evaluator) evalStatements(stmts []stylesheet.Statement, fr frame, out *[]css_ast.Node) (flow, error) {
	for _, stmt := range stmts {
		f, err := e.evalStatement(stmt, fr, out)
		if err != nil {
			return flow{}, err
		}
		if f.returned {
			return f, nil
		}
	}
	return flow{}, nil
}

func (e *Evaluator) evalStatement(stmt stylesheet.Statement, fr frame, out *[]css_ast.Node) (flow, error) {
	switch s := stmt.(type) {
	case *stylesheet.Comment:
		if !s.Silent {
			*out = append(*out, css_ast.NewComment(s.Location(), s.Text))
		}
		return flow{}, nil

	case *stylesheet.VariableDecl:
		return flow{}, e.evalVariableDecl(s, fr)

	case *stylesheet.Declaration:
		return flow{}, e.evalDeclaration(s, fr, out)

	case *stylesheet.StyleRule:
		return flow{}, e.evalStyleRule(s, fr, out)

	case *stylesheet.IfRule:
		return e.evalIf(s, fr, out)

	case *stylesheet.EachRule:
		return e.evalEach(s, fr, out)

	case *stylesheet.ForRule:
		return e.evalFor(s, fr, out)

	case *stylesheet.WhileRule:
		return e.evalWhile(s, fr, out)

	case *stylesheet.MixinDecl:
		fr.env.SetMixin(s.Name, &UserMixin{Decl: s, Closure: fr.env, Module: fr.mod}, false)
		return flow{}, nil

	case *stylesheet.FunctionDecl:
		fr.env.SetFunction(s.Name, &UserFunction{Decl: s, Closure: fr.env, Module: fr.mod}, false)
		return flow{}, nil

	case *stylesheet.ReturnRule:
		v, err := e.evalExpr(s.Value, fr)
		if err != nil {
			return flow{}, err
		}
		return flow{returned: true, value: v}, nil

	case *stylesheet.IncludeRule:
		return e.evalInclude(s, fr, out)

	case *stylesheet.ContentRule:
		return e.evalContent(s, fr, out)

	case *stylesheet.ExtendRule:
		return flow{}, e.evalExtend(s, fr)

	case *stylesheet.WarnRule:
		return flow{}, e.evalWarn(s, fr)

	case *stylesheet.DebugRule:
		return flow{}, e.evalDebug(s, fr)

	case *stylesheet.ErrorRule:
		return flow{}, e.evalError(s, fr)

	case *stylesheet.UseRule:
		return flow{}, e.evalUse(s, fr)

	case *stylesheet.ForwardRule:
		return flow{}, e.evalForward(s, fr)

	case *stylesheet.ImportRule:
		return flow{}, e.evalImport(s, fr, out)

	case *stylesheet.AtRule:
		return flow{}, e.evalAtRule(s, fr, out)

	default:
		return flow{}, sasserr.Internal(fmt.Errorf("evaluator: unhandled statement %T", stmt))
	}
}

func (e *Evaluator) evalVariableDecl(s *stylesheet.VariableDecl, fr frame) error {
	if s.Default {
		if existing, ok := fr.env.GetVariable(s.Name); ok && existing.Kind() != value.KindNull {
			return nil
		}
	}
	v, err := e.evalExpr(s.Value, fr)
	if err != nil {
		return err
	}
	fr.env.SetVariable(s.Name, v, s.Global)
	return nil
}

func (e *Evaluator) evalDeclaration(s *stylesheet.Declaration, fr frame, out *[]css_ast.Node) error {
	prop, err := e.resolveInterpolation(s.Property, fr)
	if err != nil {
		return err
	}
	prop = fr.namePrefix + prop

	if s.Value != nil {
		v, err := e.evalExpr(s.Value, fr)
		if err != nil {
			return err
		}
		if v.Kind() != value.KindNull {
			text, err := value.ToCSSDeclarationValue(v)
			if err != nil {
				return sasserr.Runtime(s.Location(), e.stack.Snapshot(), "%s", err.Error())
			}
			if text != "" {
				*out = append(*out, css_ast.NewDeclaration(s.Location(), prop, text, s.Important))
			}
		}
	}

	if len(s.Body) > 0 {
		nested := fr
		nested.namePrefix = prop + "-"
		var inner []css_ast.Node
		if _, err := e.evalStatements(s.Body, nested, &inner); err != nil {
			return err
		}
		*out = append(*out, inner...)
	}
	return nil
}

func (e *Evaluator) evalStyleRule(s *stylesheet.StyleRule, fr frame, out *[]css_ast.Node) error {
	text, err := e.resolveInterpolation(s.Selector, fr)
	if err != nil {
		return err
	}
	own := splitTopLevel(text, ',')
	combined := combineSelectors(fr.selectors, own)

	child := fr
	child.selectors = combined
	child.namePrefix = ""

	var body []css_ast.Node
	if _, err := e.evalStatements(s.Body, child, &body); err != nil {
		return err
	}
	if !css_ast.IsEmpty(body) {
		rule := css_ast.NewRule(s.Location(), combined)
		rule.Body = body
		*out = append(*out, rule)
	}
	return nil
}

func (e *Evaluator) evalIf(s *stylesheet.IfRule, fr frame, out *[]css_ast.Node) (flow, error) {
	for _, clause := range s.Clauses {
		if clause.Condition != nil {
			v, err := e.evalExpr(clause.Condition, fr)
			if err != nil {
				return flow{}, err
			}
			if !truthy(v) {
				continue
			}
		}
		var f flow
		var err error
		fr.env.Scope(func() {
			f, err = e.evalStatements(clause.Body, fr, out)
		})
		return f, err
	}
	return flow{}, nil
}

func (e *Evaluator) evalEach(s *stylesheet.EachRule, fr frame, out *[]css_ast.Node) (flow, error) {
	listVal, err := e.evalExpr(s.List, fr)
	if err != nil {
		return flow{}, err
	}
	items := toIterable(listVal)

	var f flow
	for _, item := range items {
		fr.env.Scope(func() {
			bindEachVars(fr.env, s.Variables, item)
			var innerErr error
			f, innerErr = e.evalStatements(s.Body, fr, out)
			if innerErr != nil {
				err = innerErr
			}
		})
		if err != nil {
			return flow{}, err
		}
		if f.returned {
			return f, nil
		}
	}
	return flow{}, nil
}

func (e *Evaluator) evalFor(s *stylesheet.ForRule, fr frame, out *[]css_ast.Node) (flow, error) {
	fromV, err := e.evalExpr(s.From, fr)
	if err != nil {
		return flow{}, err
	}
	toV, err := e.evalExpr(s.To, fr)
	if err != nil {
		return flow{}, err
	}
	from, ok1 := fromV.(value.Number)
	to, ok2 := toV.(value.Number)
	if !ok1 || !ok2 {
		return flow{}, sasserr.Runtime(s.Location(), e.stack.Snapshot(), "@for bounds must be numbers")
	}

	step := 1.0
	if from.Value > to.Value {
		step = -1.0
	}
	limit := to.Value
	if s.Exclusive {
		limit -= step
	}

	var f flow
	for i := from.Value; (step > 0 && i <= limit) || (step < 0 && i >= limit); i += step {
		fr.env.Scope(func() {
			fr.env.SetVariableInCurrentScope(s.Variable, value.Number{Value: i, Numerators: from.Numerators, Denominators: from.Denominators})
			var innerErr error
			f, innerErr = e.evalStatements(s.Body, fr, out)
			if innerErr != nil {
				err = innerErr
			}
		})
		if err != nil {
			return flow{}, err
		}
		if f.returned {
			return f, nil
		}
	}
	return flow{}, nil
}

func (e *Evaluator) evalWhile(s *stylesheet.WhileRule, fr frame, out *[]css_ast.Node) (flow, error) {
	var f flow
	for i := 0; ; i++ {
		if i >= e.opts.MaxLoopIterations {
			return flow{}, sasserr.Runtime(s.Location(), e.stack.Snapshot(), "@while exceeded the maximum iteration count; this usually means the condition never becomes false")
		}
		cond, err := e.evalExpr(s.Condition, fr)
		if err != nil {
			return flow{}, err
		}
		if !truthy(cond) {
			return flow{}, nil
		}
		var innerErr error
		fr.env.Scope(func() {
			f, innerErr = e.evalStatements(s.Body, fr, out)
		})
		if innerErr != nil {
			return flow{}, innerErr
		}
		if f.returned {
			return f, nil
		}
	}
}

func (e *Evaluator) evalExtend(s *stylesheet.ExtendRule, fr frame) error {
	if e.opts.Extender == nil {
		return nil
	}
	text, err := e.resolveInterpolation(s.Target, fr)
	if err != nil {
		return err
	}
	optional := s.Optional
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "!optional") {
		optional = true
		text = strings.TrimSpace(strings.TrimSuffix(text, "!optional"))
	}
	targets := splitTopLevel(text, ',')
	for _, target := range targets {
		for _, sel := range fr.selectors {
			e.opts.Extender.Record(target, sel, fr.mod.URL, optional, s.Location())
		}
	}
	return nil
}

func (e *Evaluator) evalWarn(s *stylesheet.WarnRule, fr frame) error {
	v, err := e.evalExpr(s.Message, fr)
	if err != nil {
		return err
	}
	loc := s.Location()
	if e.opts.Deprecation != nil {
		return e.opts.Deprecation.Warn(loc.Source, loc.Range, displayMessage(v), deprecation.UserAuthored, false, e.stack.Snapshot())
	}
	return nil
}

func (e *Evaluator) evalDebug(s *stylesheet.DebugRule, fr frame) error {
	v, err := e.evalExpr(s.Message, fr)
	if err != nil {
		return err
	}
	loc := s.Location()
	e.opts.Log.AddDebug(loc.Source, loc.Range.Loc, displayMessage(v))
	return nil
}

func (e *Evaluator) evalError(s *stylesheet.ErrorRule, fr frame) error {
	v, err := e.evalExpr(s.Message, fr)
	if err != nil {
		return err
	}
	return sasserr.Runtime(s.Location(), e.stack.Snapshot(), "%s", displayMessage(v))
}

func displayMessage(v value.Value) string {
	if str, ok := v.(value.Str); ok {
		return str.Text
	}
	return value.Inspect(v)
}

func (e *Evaluator) evalAtRule(s *stylesheet.AtRule, fr frame, out *[]css_ast.Node) error {
	prelude, err := e.resolveInterpolation(s.Prelude, fr)
	if err != nil {
		return err
	}
	if !s.HasBody {
		*out = append(*out, css_ast.NewAtRule(s.Location(), s.Name, prelude, false))
		return nil
	}
	child := fr
	child.namePrefix = ""
	var body []css_ast.Node
	if _, err := e.evalStatements(s.Body, child, &body); err != nil {
		return err
	}
	atRule := css_ast.NewAtRule(s.Location(), s.Name, prelude, true)
	atRule.Body = body
	*out = append(*out, atRule)
	return nil
}

func truthy(v value.Value) bool {
	switch val := v.(type) {
	case value.Bool:
		return bool(val)
	default:
		return v.Kind() != value.KindNull
	}
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// parentheses or brackets -- selectors and @extend targets can legally
// contain ",\"" inside e.g. :nth-child(2n+1) or attribute selectors.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[last:]))
	filtered := out[:0]
	for _, s := range out {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// resolveInterpolation evaluates every embedded expression in an
// Interpolation and stitches the result back together with its literal
// fragments.
func (e *Evaluator) resolveInterpolation(interp stylesheet.Interpolation, fr frame) (string, error) {
	if interp.IsPlainText() {
		return interp.PlainText(), nil
	}
	var b strings.Builder
	for i, lit := range interp.Literals {
		b.WriteString(lit)
		if i < len(interp.Exprs) {
			v, err := e.evalExpr(interp.Exprs[i], fr)
			if err != nil {
				return "", err
			}
			text, err := value.ToCSS(v)
			if err != nil {
				loc := interp.Exprs[i].Location()
				return "", sasserr.Runtime(loc, e.stack.Snapshot(), "%s", err.Error())
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}
