package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sassgo/sassgo/internal/deprecation"
	"github.com/sassgo/sassgo/internal/environment"
	"github.com/sassgo/sassgo/internal/sasserr"
	"github.com/sassgo/sassgo/internal/stylesheet"
	"github.com/sassgo/sassgo/internal/value"
)

func (e *Evaluator) evalExpr(expr stylesheet.Expression, fr frame) (value.Value, error) {
	switch ex := expr.(type) {
	case *stylesheet.StringLiteral:
		text, err := e.resolveInterpolation(ex.Text, fr)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: text, Quoted: ex.Quoted}, nil

	case *stylesheet.NumberLiteral:
		if ex.Unit == "" {
			return value.Unitless(ex.Value), nil
		}
		return value.WithUnit(ex.Value, ex.Unit), nil

	case *stylesheet.BoolLiteral:
		return value.FromBool(ex.Value), nil

	case *stylesheet.NullLiteral:
		return value.Null, nil

	case *stylesheet.ColorLiteral:
		c, err := parseHexColor(ex.Hex)
		if err != nil {
			return nil, sasserr.Parse(ex.Span, "%s", err.Error())
		}
		return c, nil

	case *stylesheet.ListLiteral:
		elems := make([]value.Value, 0, len(ex.Elements))
		for _, el := range ex.Elements {
			v, err := e.evalExpr(el, fr)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return value.List{Elements: elems, Separator: listSeparator(ex.Separator), Bracketed: ex.Bracketed}, nil

	case *stylesheet.MapLiteral:
		entries := make([]value.MapEntry, 0, len(ex.Keys))
		for i := range ex.Keys {
			k, err := e.evalExpr(ex.Keys[i], fr)
			if err != nil {
				return nil, err
			}
			v, err := e.evalExpr(ex.Values[i], fr)
			if err != nil {
				return nil, err
			}
			entries = append(entries, value.MapEntry{Key: k, Value: v})
		}
		return value.Map{Entries: entries}, nil

	case *stylesheet.Variable:
		return e.lookupVariable(ex, fr)

	case *stylesheet.InterpolatedExpr:
		text, err := e.resolveInterpolation(ex.Value, fr)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: text}, nil

	case *stylesheet.ParenExpr:
		return e.evalExpr(ex.Inner, fr)

	case *stylesheet.UnaryOp:
		return e.evalUnary(ex, fr)

	case *stylesheet.BinaryOp:
		return e.evalBinary(ex, fr)

	case *stylesheet.FunctionCall:
		return e.evalCall(ex, fr)

	default:
		return nil, sasserr.Internal(fmt.Errorf("evaluator: unhandled expression %T", expr))
	}
}

func (e *Evaluator) lookupVariable(ex *stylesheet.Variable, fr frame) (value.Value, error) {
	env := fr.env
	if ex.Namespace != "" {
		ns, ok := fr.mod.Namespaces[ex.Namespace]
		if !ok {
			return nil, sasserr.Usage("there is no module with namespace %q", ex.Namespace)
		}
		env = ns.Env
	}
	if v, ok := env.GetVariable(ex.Name); ok {
		return v, nil
	}
	if guess, ok := suggestName(ex.Name, env.VariableNames()); ok {
		return nil, sasserr.Usage("undefined variable $%s (did you mean $%s?)", ex.Name, guess)
	}
	return nil, sasserr.Usage("undefined variable $%s", ex.Name)
}

func listSeparator(s string) value.Separator {
	switch s {
	case "comma":
		return value.SeparatorComma
	case "space":
		return value.SeparatorSpace
	case "slash":
		return value.SeparatorSlash
	default:
		return value.SeparatorUndecided
	}
}

func (e *Evaluator) evalUnary(ex *stylesheet.UnaryOp, fr frame) (value.Value, error) {
	v, err := e.evalExpr(ex.Operand, fr)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "not":
		return value.FromBool(!truthy(v)), nil
	case "-":
		if n, ok := v.(value.Number); ok {
			n.Value = -n.Value
			return n, nil
		}
		text, err := value.ToCSS(v)
		if err != nil {
			return nil, sasserr.Runtime(ex.Span, e.stack.Snapshot(), "%s", err.Error())
		}
		return value.Str{Text: "-" + text}, nil
	case "+":
		if _, ok := v.(value.Number); ok {
			return v, nil
		}
		text, err := value.ToCSS(v)
		if err != nil {
			return nil, sasserr.Runtime(ex.Span, e.stack.Snapshot(), "%s", err.Error())
		}
		return value.Str{Text: "+" + text}, nil
	default:
		return nil, sasserr.Internal(fmt.Errorf("evaluator: unknown unary operator %q", ex.Op))
	}
}

func (e *Evaluator) evalBinary(ex *stylesheet.BinaryOp, fr frame) (value.Value, error) {
	switch ex.Op {
	case "and":
		left, err := e.evalExpr(ex.Left, fr)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return left, nil
		}
		return e.evalExpr(ex.Right, fr)
	case "or":
		left, err := e.evalExpr(ex.Left, fr)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return left, nil
		}
		return e.evalExpr(ex.Right, fr)
	}

	left, err := e.evalExpr(ex.Left, fr)
	if err != nil {
		return nil, err
	}
	right, err := e.evalExpr(ex.Right, fr)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case "==":
		return value.FromBool(value.Equal(left, right, value.DefaultPrecision)), nil
	case "!=":
		return value.FromBool(!value.Equal(left, right, value.DefaultPrecision)), nil
	case "<", "<=", ">", ">=":
		return e.evalComparison(ex, left, right)
	case "+", "-", "*", "/", "%":
		return e.evalArithmetic(ex, left, right, fr)
	default:
		return nil, sasserr.Internal(fmt.Errorf("evaluator: unknown binary operator %q", ex.Op))
	}
}

func (e *Evaluator) evalComparison(ex *stylesheet.BinaryOp, left, right value.Value) (value.Value, error) {
	ln, lok := left.(value.Number)
	rn, rok := right.(value.Number)
	if !lok || !rok {
		return nil, sasserr.Runtime(ex.Span, e.stack.Snapshot(), "%s and %s aren't comparable", value.Inspect(left), value.Inspect(right))
	}
	var result bool
	switch ex.Op {
	case "<":
		result = ln.Value < rn.Value
	case "<=":
		result = ln.Value <= rn.Value
	case ">":
		result = ln.Value > rn.Value
	case ">=":
		result = ln.Value >= rn.Value
	}
	return value.FromBool(result), nil
}

func (e *Evaluator) evalArithmetic(ex *stylesheet.BinaryOp, left, right value.Value, fr frame) (value.Value, error) {
	ln, lok := left.(value.Number)
	rn, rok := right.(value.Number)

	if ex.Op == "+" && (!lok || !rok) {
		return concatStrings(left, right)
	}
	if ex.Op == "-" && (!lok || !rok) {
		lt, err := value.ToCSS(left)
		if err != nil {
			return nil, err
		}
		rt, err := value.ToCSS(right)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: lt + "-" + rt}, nil
	}
	if lc, ok := left.(value.Color); ok && ex.Op == "+" {
		if rok {
			return colorPlusNumber(lc, rn), nil
		}
	}
	if !lok || !rok {
		return nil, sasserr.Runtime(ex.Span, e.stack.Snapshot(), "%s %s %s isn't a valid expression", value.Inspect(left), ex.Op, value.Inspect(right))
	}

	switch ex.Op {
	case "+":
		return combineNumbers(ln, rn, ln.Value+rn.Value), nil
	case "-":
		return combineNumbers(ln, rn, ln.Value-rn.Value), nil
	case "*":
		return multiplyNumbers(ln, rn), nil
	case "/":
		if ex.AllowSlash && e.opts.Deprecation != nil {
			if err := e.opts.Deprecation.Warn(ex.Span.Source, ex.Span.Range, "/ is deprecated for division outside of calc(); use math.div() instead", deprecation.SlashDiv, false, e.stack.Snapshot()); err != nil {
				return nil, err
			}
		}
		return divideNumbers(ln, rn)
	case "%":
		return combineNumbers(ln, rn, modFloat(ln.Value, rn.Value)), nil
	}
	return nil, sasserr.Internal(fmt.Errorf("evaluator: unreachable arithmetic operator %q", ex.Op))
}

func modFloat(a, b float64) float64 {
	m := a - b*float64(int(a/b))
	return m
}

func concatStrings(left, right value.Value) (value.Value, error) {
	lt, err := value.ToCSS(left)
	if err != nil {
		return nil, err
	}
	rt, err := value.ToCSS(right)
	if err != nil {
		return nil, err
	}
	quoted := false
	if ls, ok := left.(value.Str); ok {
		quoted = ls.Quoted
	} else if rs, ok := right.(value.Str); ok {
		quoted = rs.Quoted
	}
	return value.Str{Text: lt + rt, Quoted: quoted}, nil
}

// combineNumbers keeps whichever operand's unit is non-empty, the common
// case of "1px + 1" or "1 + 1px"; a mismatched-unit addition is out of
// scope for this core's unit algebra (documented as an open-question
// resolution), so it falls back to the left operand's unit.
func combineNumbers(l, r value.Number, result float64) value.Number {
	n := value.Number{Value: result, Numerators: l.Numerators, Denominators: l.Denominators}
	if !l.HasUnits() && r.HasUnits() {
		n.Numerators = r.Numerators
		n.Denominators = r.Denominators
	}
	return n
}

func multiplyNumbers(l, r value.Number) value.Number {
	n := value.Number{Value: l.Value * r.Value}
	n.Numerators = append(append([]string{}, l.Numerators...), r.Numerators...)
	n.Denominators = append(append([]string{}, l.Denominators...), r.Denominators...)
	return n
}

func divideNumbers(l, r value.Number) (value.Number, error) {
	if r.Value == 0 {
		return value.Number{}, sasserr.Usage("cannot divide by zero")
	}
	if sameUnit(l, r) {
		return value.Unitless(l.Value / r.Value), nil
	}
	n := value.Number{Value: l.Value / r.Value, Numerators: l.Numerators, Denominators: append(append([]string{}, l.Denominators...), r.Numerators...)}
	return n, nil
}

func sameUnit(l, r value.Number) bool {
	return l.Unit() != "" && strings.EqualFold(l.Unit(), r.Unit())
}

func colorPlusNumber(c value.Color, n value.Number) value.Value {
	clamp := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	delta := n.Value
	return value.RGBA(clamp(float64(c.R)+delta), clamp(float64(c.G)+delta), clamp(float64(c.B)+delta), c.A)
}

// parseHexColor parses the "#rgb"/"#rrggbb"/"#rgba"/"#rrggbbaa" forms spec
// section 3 names; any other length is a parse error.
func parseHexColor(hex string) (value.Color, error) {
	h := strings.TrimPrefix(hex, "#")
	expand := func(c byte) (uint8, error) {
		n, err := strconv.ParseUint(string([]byte{c, c}), 16, 8)
		return uint8(n), err
	}
	byteAt := func(s string, i int) (uint8, error) {
		n, err := strconv.ParseUint(s[i:i+2], 16, 8)
		return uint8(n), err
	}
	switch len(h) {
	case 3, 4:
		r, err := expand(h[0])
		if err != nil {
			return value.Color{}, err
		}
		g, err := expand(h[1])
		if err != nil {
			return value.Color{}, err
		}
		b, err := expand(h[2])
		if err != nil {
			return value.Color{}, err
		}
		a := 1.0
		if len(h) == 4 {
			av, err := expand(h[3])
			if err != nil {
				return value.Color{}, err
			}
			a = float64(av) / 255
		}
		return value.RGBA(r, g, b, a), nil
	case 6, 8:
		r, err := byteAt(h, 0)
		if err != nil {
			return value.Color{}, err
		}
		g, err := byteAt(h, 2)
		if err != nil {
			return value.Color{}, err
		}
		b, err := byteAt(h, 4)
		if err != nil {
			return value.Color{}, err
		}
		a := 1.0
		if len(h) == 8 {
			av, err := byteAt(h, 6)
			if err != nil {
				return value.Color{}, err
			}
			a = float64(av) / 255
		}
		return value.RGBA(r, g, b, a), nil
	default:
		return value.Color{}, fmt.Errorf("%q isn't a valid hex color", hex)
	}
}

// toIterable coerces an @each list expression into the slice of per-
// iteration values: a Map's entries become 2-element [key, value] lists,
// a List's elements are used directly, and any other value is treated as
// a one-element list (spec section 3's @each coercion rule).
func toIterable(v value.Value) []value.Value {
	switch val := v.(type) {
	case value.List:
		return val.Elements
	case value.Map:
		out := make([]value.Value, 0, len(val.Entries))
		for _, entry := range val.Entries {
			out = append(out, value.List{Elements: []value.Value{entry.Key, entry.Value}, Separator: value.SeparatorSpace})
		}
		return out
	default:
		return []value.Value{v}
	}
}

func bindEachVars(env *environment.Environment, names []string, item value.Value) {
	if len(names) == 1 {
		env.SetVariableInCurrentScope(names[0], item)
		return
	}
	var elems []value.Value
	if lst, ok := item.(value.List); ok {
		elems = lst.Elements
	} else {
		elems = []value.Value{item}
	}
	for i, name := range names {
		if i < len(elems) {
			env.SetVariableInCurrentScope(name, elems[i])
		} else {
			env.SetVariableInCurrentScope(name, value.Null)
		}
	}
}
