package evaluator

import (
	"github.com/sassgo/sassgo/internal/environment"
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/sasserr"
	"github.com/sassgo/sassgo/internal/stylesheet"
	"github.com/sassgo/sassgo/internal/value"
)

// UserMixin/UserFunction are the value stored in environment.Environment's
// function/mixin tables for a "@mixin"/"@function" declaration. Closure is
// the Environment the declaration executed in -- invocation pushes a new
// scope onto *that* Environment rather than the caller's, giving the
// lexical-closure semantics spec section 3 names (a callable sees its own
// module's variables, not whatever happens to be in scope at the call
// site).
type UserMixin struct {
	Decl    *stylesheet.MixinDecl
	Closure *environment.Environment
	Module  *Module
}

type UserFunction struct {
	Decl    *stylesheet.FunctionDecl
	Closure *environment.Environment
	Module  *Module
}

// bindArguments evaluates an invocation's arguments in the caller's frame
// and binds them into params according to spec section 3's "positional
// first, then keyword, then defaults, then rest" rule. Defaults are
// evaluated with target already holding every earlier parameter, so a
// later default can reference an earlier one.
func (e *Evaluator) bindArguments(params []stylesheet.Param, inv stylesheet.ArgInvocation, caller frame, target *environment.Environment) error {
	positional := make([]value.Value, 0, len(inv.Positional))
	for _, p := range inv.Positional {
		v, err := e.evalExpr(p, caller)
		if err != nil {
			return err
		}
		positional = append(positional, v)
	}
	keywords := make(map[string]value.Value, len(inv.Keyword))
	var keywordOrder []string
	for _, kw := range inv.Keyword {
		v, err := e.evalExpr(kw.Value, caller)
		if err != nil {
			return err
		}
		keywords[kw.Name] = v
		keywordOrder = append(keywordOrder, kw.Name)
	}
	if inv.Rest != nil {
		v, err := e.evalExpr(inv.Rest, caller)
		if err != nil {
			return err
		}
		switch rv := v.(type) {
		case value.List:
			positional = append(positional, rv.Elements...)
		case value.ArgList:
			positional = append(positional, rv.List.Elements...)
			for _, name := range rv.KeywordOrder {
				if _, ok := keywords[name]; !ok {
					keywords[name] = rv.Keywords[name]
					keywordOrder = append(keywordOrder, name)
				}
			}
		default:
			positional = append(positional, v)
		}
	}

	pos := 0
	var named []stylesheet.Param
	var rest *stylesheet.Param
	for i := range params {
		if params[i].IsRest {
			rest = &params[i]
			continue
		}
		named = append(named, params[i])
	}

	for _, p := range named {
		var v value.Value
		switch {
		case pos < len(positional):
			v = positional[pos]
			pos++
		case keywords[p.Name] != nil:
			v = keywords[p.Name]
			delete(keywords, p.Name)
		case p.Default != nil:
			dv, err := e.evalExpr(p.Default, frame{mod: caller.mod, env: target})
			if err != nil {
				return err
			}
			v = dv
		default:
			return sasserr.Usage("missing argument $%s", p.Name)
		}
		target.SetVariableInCurrentScope(p.Name, v)
	}

	if rest != nil {
		leftoverPositional := positional[minInt(pos, len(positional)):]
		al := value.ArgList{
			List:     value.List{Elements: append([]value.Value{}, leftoverPositional...), Separator: value.SeparatorComma},
			Keywords: keywords,
		}
		for _, name := range keywordOrder {
			if _, ok := keywords[name]; ok {
				al.KeywordOrder = append(al.KeywordOrder, name)
			}
		}
		target.SetVariableInCurrentScope(rest.Name, al)
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (e *Evaluator) invokeFunction(fn *UserFunction, inv stylesheet.ArgInvocation, caller frame) (value.Value, error) {
	var result value.Value
	var bindErr, bodyErr error
	fn.Closure.Scope(func() {
		if bindErr = e.bindArguments(fn.Decl.Params, inv, caller, fn.Closure); bindErr != nil {
			return
		}
		callFrame := frame{mod: fn.Module, env: fn.Closure}
		var out []css_ast.Node
		f, err := e.evalStatements(fn.Decl.Body, callFrame, &out)
		if err != nil {
			bodyErr = err
			return
		}
		if f.returned {
			result = f.value
		} else {
			result = value.Null
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	if bodyErr != nil {
		return nil, bodyErr
	}
	return result, nil
}

func (e *Evaluator) evalInclude(s *stylesheet.IncludeRule, fr frame, out *[]css_ast.Node) (flow, error) {
	mixin, err := e.lookupMixin(s.Namespace, s.Name, fr)
	if err != nil {
		return flow{}, err
	}
	if mixin == nil {
		env := fr.env
		if s.Namespace != "" {
			if ns, ok := fr.mod.Namespaces[s.Namespace]; ok {
				env = ns.Env
			}
		}
		if guess, ok := suggestName(s.Name, env.MixinNames()); ok {
			return flow{}, sasserr.Runtime(s.Location(), e.stack.Snapshot(), "undefined mixin %q (did you mean %q?)", s.Name, guess)
		}
		return flow{}, sasserr.Runtime(s.Location(), e.stack.Snapshot(), "undefined mixin %q", s.Name)
	}

	var content *contentClosure
	if s.Content != nil {
		content = &contentClosure{stmts: s.Content, env: fr.env, mod: fr.mod}
	}

	var f flow
	var bindErr, bodyErr error
	mixin.Closure.Scope(func() {
		if bindErr = e.bindArguments(mixin.Decl.Params, s.Args, fr, mixin.Closure); bindErr != nil {
			return
		}
		callFrame := frame{mod: mixin.Module, env: mixin.Closure, selectors: fr.selectors, content: content}
		f, bodyErr = e.evalStatements(mixin.Decl.Body, callFrame, out)
	})
	if bindErr != nil {
		return flow{}, bindErr
	}
	if bodyErr != nil {
		return flow{}, bodyErr
	}
	return f, nil
}

func (e *Evaluator) evalContent(s *stylesheet.ContentRule, fr frame, out *[]css_ast.Node) (flow, error) {
	if fr.content == nil {
		return flow{}, nil
	}
	content := fr.content
	callFrame := frame{mod: content.mod, env: content.env, selectors: fr.selectors}
	var f flow
	var err error
	content.env.Scope(func() {
		f, err = e.evalStatements(content.stmts, callFrame, out)
	})
	return f, err
}

func (e *Evaluator) lookupMixin(namespace, name string, fr frame) (*UserMixin, error) {
	env := fr.env
	if namespace != "" {
		ns, ok := fr.mod.Namespaces[namespace]
		if !ok {
			return nil, sasserr.Usage("there is no module with namespace %q", namespace)
		}
		env = ns.Env
	}
	m, ok := env.GetMixin(name)
	if !ok {
		return nil, nil
	}
	um, _ := m.(*UserMixin)
	return um, nil
}
