package evaluator

import (
	"path"
	"strings"

	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/sasserr"
	"github.com/sassgo/sassgo/internal/stylesheet"
)

// resolveAndEvaluate runs one @use/@forward/@import's URL through the
// import cache and, on a cache miss for this canonical URL, parses and
// evaluates it -- the memo table in e.modules is what makes a second
// "@use" of the same file from elsewhere in the graph share one Module
// rather than re-run its side effects (spec section 4.2's load-once
// guarantee, extended from file contents to evaluation results).
func (e *Evaluator) resolveAndEvaluate(url string, fr frame) (*Module, error) {
	if e.opts.Cache == nil {
		return nil, sasserr.Usage("no importers configured, cannot resolve %q", url)
	}
	source, ok := e.opts.Cache.Resolve(url, fr.mod.URL)
	if !ok {
		return nil, sasserr.Usage("cannot resolve %q relative to %s", url, fr.mod.URL)
	}
	return e.EvaluateEntrypoint(source, source.CanonicalURL)
}

// deriveNamespace implements spec section 4.2's default namespace: the
// URL's final path segment with any extension and leading "_" partial
// marker stripped.
func deriveNamespace(url string) string {
	base := path.Base(url)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimPrefix(base, "_")
	return base
}

func (e *Evaluator) evalUse(s *stylesheet.UseRule, fr frame) error {
	if strings.HasPrefix(s.URL, "sass:") {
		// Built-in modules are not loaded; builtinModules is consulted by
		// the plain namespace ("math", "color", ...), so "as" has no effect.
		return nil
	}
	child, err := e.resolveAndEvaluate(s.URL, fr)
	if err != nil {
		return err
	}
	for _, cfg := range s.Configured {
		v, err := e.evalExpr(cfg.Value, fr)
		if err != nil {
			return err
		}
		child.Env.SetVariable(cfg.Name, v, true)
	}

	fr.mod.Upstream = append(fr.mod.Upstream, child)

	if s.Namespace == "*" {
		mergeNamespace(fr.mod, child, "", nil, nil)
		return nil
	}
	ns := s.Namespace
	if ns == "" {
		ns = deriveNamespace(s.URL)
	}
	fr.mod.Namespaces[ns] = child
	return nil
}

// evalForward re-exports a child module's members as if they were
// declared directly in the forwarding module, with an optional name
// prefix and an optional show/hide allowlist/denylist (spec section
// 4.2). Unlike dart-sass, forwarded members are merged eagerly into the
// forwarding module's own environment rather than kept in a separate
// "forwarded" table consulted lazily at each use site -- simpler, at the
// cost of a forwarded member shadowing (rather than losing to) a same-
// named member the forwarding module declares after the @forward.
func (e *Evaluator) evalForward(s *stylesheet.ForwardRule, fr frame) error {
	child, err := e.resolveAndEvaluate(s.URL, fr)
	if err != nil {
		return err
	}
	fr.mod.Upstream = append(fr.mod.Upstream, child)
	mergeNamespace(fr.mod, child, s.Prefix, s.Show, s.Hide)
	return nil
}

func (e *Evaluator) evalImport(s *stylesheet.ImportRule, fr frame, out *[]css_ast.Node) error {
	for _, url := range s.URLs {
		child, err := e.resolveAndEvaluate(url, fr)
		if err != nil {
			return err
		}
		mergeNamespace(fr.mod, child, "", nil, nil)
		*out = append(*out, FlattenCSS(child)...)
	}
	return nil
}

func allowed(name string, show, hide []string) bool {
	if len(show) > 0 {
		for _, s := range show {
			if s == name {
				return true
			}
		}
		return false
	}
	for _, h := range hide {
		if h == name {
			return false
		}
	}
	return true
}

func mergeNamespace(into, from *Module, prefix string, show, hide []string) {
	for _, name := range from.Env.GlobalVariableNames() {
		if !allowed(name, show, hide) {
			continue
		}
		if v, ok := from.Env.GetVariable(name); ok {
			into.Env.SetVariable(prefix+name, v, true)
		}
	}
	for name, fn := range from.Env.GlobalFunctions() {
		if allowed(name, show, hide) {
			into.Env.SetFunction(prefix+name, fn, true)
		}
	}
	for name, mx := range from.Env.GlobalMixins() {
		if allowed(name, show, hide) {
			into.Env.SetMixin(prefix+name, mx, true)
		}
	}
}
