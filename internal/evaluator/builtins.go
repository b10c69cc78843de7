package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/sassgo/sassgo/internal/helpers"
	"github.com/sassgo/sassgo/internal/sasserr"
	"github.com/sassgo/sassgo/internal/stylesheet"
	"github.com/sassgo/sassgo/internal/value"
)

// builtinFn receives already-evaluated positional and keyword arguments;
// it is the evaluator-side analog of a UserFunction, just never backed by
// a stylesheet.FunctionDecl.
type builtinFn func(args []value.Value, kw map[string]value.Value) (value.Value, error)

func (e *Evaluator) evalCall(ex *stylesheet.FunctionCall, fr frame) (value.Value, error) {
	if ex.Namespace != "" {
		if ns, ok := fr.mod.Namespaces[ex.Namespace]; ok {
			if fn, ok := ns.Env.GetFunction(ex.Name); ok {
				return e.invokeCallable(fn, ex, fr)
			}
		}
		if table, ok := builtinModules[ex.Namespace]; ok {
			if fn, ok := table[ex.Name]; ok {
				return e.invokeBuiltin(fn, ex, fr)
			}
		}
		return nil, sasserr.Usage("there is no module with namespace %q, or it has no function %q", ex.Namespace, ex.Name)
	}

	if fn, ok := fr.env.GetFunction(ex.Name); ok {
		return e.invokeCallable(fn, ex, fr)
	}
	if fn, ok := globalBuiltins[ex.Name]; ok {
		return e.invokeBuiltin(fn, ex, fr)
	}

	// Not a known Sass function: pass through as a literal CSS function
	// call, e.g. "rgb(...)" values CSS itself understands, or a vendor
	// function this compiler has no special knowledge of.
	return e.passthroughCall(ex, fr)
}

func (e *Evaluator) invokeCallable(fn interface{}, ex *stylesheet.FunctionCall, fr frame) (value.Value, error) {
	uf, ok := fn.(*UserFunction)
	if !ok {
		return nil, sasserr.Internal(fmt.Errorf("evaluator: function table held unexpected %T", fn))
	}
	return e.invokeFunction(uf, ex.Args, fr)
}

func (e *Evaluator) invokeBuiltin(fn builtinFn, ex *stylesheet.FunctionCall, fr frame) (value.Value, error) {
	args, kw, err := e.evalArgsFlat(ex.Args, fr)
	if err != nil {
		return nil, err
	}
	v, err := fn(args, kw)
	if err != nil {
		return nil, sasserr.Runtime(ex.Span, e.stack.Snapshot(), "%s", err.Error())
	}
	return v, nil
}

func (e *Evaluator) evalArgsFlat(inv stylesheet.ArgInvocation, fr frame) ([]value.Value, map[string]value.Value, error) {
	args := make([]value.Value, 0, len(inv.Positional))
	for _, p := range inv.Positional {
		v, err := e.evalExpr(p, fr)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, v)
	}
	kw := make(map[string]value.Value, len(inv.Keyword))
	for _, k := range inv.Keyword {
		v, err := e.evalExpr(k.Value, fr)
		if err != nil {
			return nil, nil, err
		}
		kw[k.Name] = v
	}
	return args, kw, nil
}

func (e *Evaluator) passthroughCall(ex *stylesheet.FunctionCall, fr frame) (value.Value, error) {
	args, kw, err := e.evalArgsFlat(ex.Args, fr)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(ex.Name)
	b.WriteString("(")
	parts := make([]string, 0, len(args)+len(kw))
	for _, a := range args {
		text, err := value.ToCSSDeclarationValue(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, text)
	}
	for name, v := range kw {
		text, err := value.ToCSSDeclarationValue(v)
		if err != nil {
			return nil, err
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, text))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	return value.Str{Text: b.String()}, nil
}

func arg(args []value.Value, kw map[string]value.Value, i int, name string) (value.Value, bool) {
	if i < len(args) {
		return args[i], true
	}
	if v, ok := kw[name]; ok {
		return v, true
	}
	return nil, false
}

func numArg(args []value.Value, kw map[string]value.Value, i int, name string) (value.Number, error) {
	v, ok := arg(args, kw, i, name)
	if !ok {
		return value.Number{}, fmt.Errorf("missing argument $%s", name)
	}
	n, ok := v.(value.Number)
	if !ok {
		return value.Number{}, fmt.Errorf("$%s: %s is not a number", name, value.Inspect(v))
	}
	return n, nil
}

func optionalNumArg(args []value.Value, kw map[string]value.Value, i int, name string) (value.Number, bool) {
	v, ok := arg(args, kw, i, name)
	if !ok {
		return value.Number{}, false
	}
	n, ok := v.(value.Number)
	return n, ok
}

// mathUnaryFn adapts a single-argument helpers.F64 operation into a
// builtinFn for "sass:math", preserving the argument's own unit.
func mathUnaryFn(op func(helpers.F64) helpers.F64) builtinFn {
	return func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		n, err := numArg(args, kw, 0, "number")
		if err != nil {
			return nil, err
		}
		n.Value = op(helpers.NewF64(n.Value)).Value()
		return n, nil
	}
}

func colorArg(args []value.Value, kw map[string]value.Value, i int, name string) (value.Color, error) {
	v, ok := arg(args, kw, i, name)
	if !ok {
		return value.Color{}, fmt.Errorf("missing argument $%s", name)
	}
	c, ok := v.(value.Color)
	if !ok {
		return value.Color{}, fmt.Errorf("$%s: %s is not a color", name, value.Inspect(v))
	}
	return c, nil
}

// globalBuiltins covers the legacy unnamespaced global function names
// dart-sass still ships for backward compatibility (darken(), map-get(),
// …), the spelling most existing stylesheets in the wild actually use.
var globalBuiltins = map[string]builtinFn{
	"if": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		cond, _ := arg(args, kw, 0, "condition")
		t, _ := arg(args, kw, 1, "if-true")
		f, _ := arg(args, kw, 2, "if-false")
		if truthy(cond) {
			return t, nil
		}
		return f, nil
	},
	"percentage": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		n, err := numArg(args, kw, 0, "number")
		if err != nil {
			return nil, err
		}
		return value.WithUnit(n.Value*100, "%"), nil
	},
	"unquote": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, _ := arg(args, kw, 0, "string")
		if s, ok := v.(value.Str); ok {
			return value.Str{Text: s.Text, Quoted: false}, nil
		}
		return v, nil
	},
	"quote": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, _ := arg(args, kw, 0, "string")
		text, err := value.ToCSS(v)
		if err != nil {
			return nil, err
		}
		return value.Str{Text: text, Quoted: true}, nil
	},
	"type-of": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, _ := arg(args, kw, 0, "value")
		return value.Str{Text: typeName(v)}, nil
	},
	"length": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, _ := arg(args, kw, 0, "list")
		return value.Int(len(toIterable(v))), nil
	},
	"nth": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, _ := arg(args, kw, 0, "list")
		idx, err := numArg(args, kw, 1, "n")
		if err != nil {
			return nil, err
		}
		items := toIterable(v)
		i := int(idx.Value)
		if i < 0 {
			i = len(items) + i + 1
		}
		if i < 1 || i > len(items) {
			return nil, fmt.Errorf("list index %v is out of bounds for a list of length %d", idx.Value, len(items))
		}
		return items[i-1], nil
	},
	"map-get": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return mapGet(args, kw)
	},
	"map-has-key": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		v, err := mapGet(args, kw)
		if err != nil {
			return value.False, nil
		}
		return value.FromBool(v.Kind() != value.KindNull), nil
	},
	"map-keys": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		mv, _ := arg(args, kw, 0, "map")
		m, ok := mv.(value.Map)
		if !ok {
			return nil, fmt.Errorf("%s is not a map", value.Inspect(mv))
		}
		keys := make([]value.Value, len(m.Entries))
		for i, e := range m.Entries {
			keys[i] = e.Key
		}
		return value.List{Elements: keys, Separator: value.SeparatorComma}, nil
	},
	"map-values": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		mv, _ := arg(args, kw, 0, "map")
		m, ok := mv.(value.Map)
		if !ok {
			return nil, fmt.Errorf("%s is not a map", value.Inspect(mv))
		}
		vals := make([]value.Value, len(m.Entries))
		for i, e := range m.Entries {
			vals[i] = e.Value
		}
		return value.List{Elements: vals, Separator: value.SeparatorComma}, nil
	},
	"to-upper-case": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s, ok := argStr(args, kw, 0, "string")
		if !ok {
			return nil, fmt.Errorf("missing argument $string")
		}
		return value.Str{Text: strings.ToUpper(s.Text), Quoted: s.Quoted}, nil
	},
	"to-lower-case": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s, ok := argStr(args, kw, 0, "string")
		if !ok {
			return nil, fmt.Errorf("missing argument $string")
		}
		return value.Str{Text: strings.ToLower(s.Text), Quoted: s.Quoted}, nil
	},
	"str-length": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		s, ok := argStr(args, kw, 0, "string")
		if !ok {
			return nil, fmt.Errorf("missing argument $string")
		}
		return value.Int(len([]rune(s.Text))), nil
	},
	"lighten": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return adjustLightness(args, kw, 1)
	},
	"darken": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		return adjustLightness(args, kw, -1)
	},
	"mix": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
		c1, err := colorArg(args, kw, 0, "color1")
		if err != nil {
			return nil, err
		}
		c2, err := colorArg(args, kw, 1, "color2")
		if err != nil {
			return nil, err
		}
		weight := 50.0
		if w, ok := arg(args, kw, 2, "weight"); ok {
			if wn, ok := w.(value.Number); ok {
				weight = wn.Value
			}
		}
		t := weight / 100
		mixChannel := func(a, b uint8) uint8 {
			return uint8(math.Round(float64(a)*t + float64(b)*(1-t)))
		}
		return value.RGBA(mixChannel(c1.R, c2.R), mixChannel(c1.G, c2.G), mixChannel(c1.B, c2.B), c1.A*t+c2.A*(1-t)), nil
	},
	"rgba": builtinRGBA,
	"rgb":  builtinRGBA,
}

func builtinRGBA(args []value.Value, kw map[string]value.Value) (value.Value, error) {
	r, err := numArg(args, kw, 0, "red")
	if err != nil {
		return nil, err
	}
	g, err := numArg(args, kw, 1, "green")
	if err != nil {
		return nil, err
	}
	b, err := numArg(args, kw, 2, "blue")
	if err != nil {
		return nil, err
	}
	a := 1.0
	if av, ok := arg(args, kw, 3, "alpha"); ok {
		if an, ok := av.(value.Number); ok {
			a = an.Value
		}
	}
	clamp := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(math.Round(v))
	}
	return value.RGBA(clamp(r.Value), clamp(g.Value), clamp(b.Value), a), nil
}

func adjustLightness(args []value.Value, kw map[string]value.Value, sign float64) (value.Value, error) {
	c, err := colorArg(args, kw, 0, "color")
	if err != nil {
		return nil, err
	}
	amount, err := numArg(args, kw, 1, "amount")
	if err != nil {
		return nil, err
	}
	h, s, l := rgbToHSL(c)
	l += sign * amount.Value
	if l < 0 {
		l = 0
	}
	if l > 100 {
		l = 100
	}
	out := value.HSL(h, s, l, c.A)
	return out, nil
}

func rgbToHSL(c value.Color) (h, s, l float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2
	d := max - min
	if d == 0 {
		return 0, 0, l * 100
	}
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}
	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s * 100, l * 100
}

func mapGet(args []value.Value, kw map[string]value.Value) (value.Value, error) {
	mv, _ := arg(args, kw, 0, "map")
	m, ok := mv.(value.Map)
	if !ok {
		return nil, fmt.Errorf("%s is not a map", value.Inspect(mv))
	}
	key, ok := arg(args, kw, 1, "key")
	if !ok {
		return nil, fmt.Errorf("missing argument $key")
	}
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	return value.Null, nil
}

func argStr(args []value.Value, kw map[string]value.Value, i int, name string) (value.Str, bool) {
	v, ok := arg(args, kw, i, name)
	if !ok {
		return value.Str{}, false
	}
	s, ok := v.(value.Str)
	return s, ok
}

func typeName(v value.Value) string {
	switch v.(type) {
	case value.Str:
		return "string"
	case value.Number:
		return "number"
	case value.Color:
		return "color"
	case value.List:
		return "list"
	case value.Map:
		return "map"
	case value.Bool:
		return "bool"
	case value.Function:
		return "function"
	case value.Mixin:
		return "mixin"
	case value.ArgList:
		return "arglist"
	default:
		return "null"
	}
}

// builtinModules are the "sass:math"/"sass:color"/"sass:list"/"sass:map"/
// "sass:string" built-in modules, addressed by the plain namespace a
// "@use sass:math" (or the common bare "math."/"color." convention this
// evaluator also accepts without requiring the synthetic @use) binds.
var builtinModules = map[string]map[string]builtinFn{
	"math": {
		"percentage": globalBuiltins["percentage"],
		"round": mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Round() }),
		"floor": mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Floor() }),
		"ceil":  mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Ceil() }),
		"abs":   mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Abs() }),
		"sqrt":  mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Sqrt() }),
		"sin":   mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Sin() }),
		"cos":   mathUnaryFn(func(a helpers.F64) helpers.F64 { return a.Cos() }),
		"div": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			a, err := numArg(args, kw, 0, "number1")
			if err != nil {
				return nil, err
			}
			b, err := numArg(args, kw, 1, "number2")
			if err != nil {
				return nil, err
			}
			return divideNumbers(a, b)
		},
		"pow": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			base, err := numArg(args, kw, 0, "base")
			if err != nil {
				return nil, err
			}
			exponent, err := numArg(args, kw, 1, "exponent")
			if err != nil {
				return nil, err
			}
			base.Value = helpers.NewF64(base.Value).Pow(helpers.NewF64(exponent.Value)).Value()
			base.Numerators, base.Denominators = nil, nil
			return base, nil
		},
		"log": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := numArg(args, kw, 0, "number")
			if err != nil {
				return nil, err
			}
			ln := helpers.NewF64(n.Value).Log2().MulConst(math.Ln2)
			if baseArg, ok := optionalNumArg(args, kw, 1, "base"); ok {
				ln = ln.Div(helpers.NewF64(baseArg.Value).Log2().MulConst(math.Ln2))
			}
			n.Value, n.Numerators, n.Denominators = ln.Value(), nil, nil
			return n, nil
		},
		"hypot": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("at least one argument is required")
			}
			sum := helpers.NewF64(0)
			var first value.Number
			for i, a := range args {
				n, ok := a.(value.Number)
				if !ok {
					return nil, fmt.Errorf("%s is not a number", value.Inspect(a))
				}
				if i == 0 {
					first = n
				}
				sum = sum.Add(helpers.NewF64(n.Value).Squared())
			}
			first.Value = sum.Sqrt().Value()
			return first, nil
		},
		"clamp": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			lo, err := numArg(args, kw, 0, "min")
			if err != nil {
				return nil, err
			}
			val, err := numArg(args, kw, 1, "number")
			if err != nil {
				return nil, err
			}
			hi, err := numArg(args, kw, 2, "max")
			if err != nil {
				return nil, err
			}
			clamped := helpers.Max2(helpers.NewF64(lo.Value), helpers.Min2(helpers.NewF64(val.Value), helpers.NewF64(hi.Value)))
			val.Value = clamped.Value()
			return val, nil
		},
		"min": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			return reduceNumbers(args, func(a, b float64) float64 { return helpers.Min2(helpers.NewF64(a), helpers.NewF64(b)).Value() })
		},
		"max": func(args []value.Value, kw map[string]value.Value) (value.Value, error) {
			return reduceNumbers(args, func(a, b float64) float64 { return helpers.Max2(helpers.NewF64(a), helpers.NewF64(b)).Value() })
		},
	},
	"color": {
		"lighten": globalBuiltins["lighten"],
		"darken":  globalBuiltins["darken"],
		"mix":     globalBuiltins["mix"],
	},
	"list": {
		"length": globalBuiltins["length"],
		"nth":    globalBuiltins["nth"],
	},
	"map": {
		"get":      globalBuiltins["map-get"],
		"has-key":  globalBuiltins["map-has-key"],
		"keys":     globalBuiltins["map-keys"],
		"values":   globalBuiltins["map-values"],
	},
	"string": {
		"quote":         globalBuiltins["quote"],
		"unquote":       globalBuiltins["unquote"],
		"to-upper-case": globalBuiltins["to-upper-case"],
		"to-lower-case": globalBuiltins["to-lower-case"],
		"length":        globalBuiltins["str-length"],
	},
	"meta": {
		"type-of": globalBuiltins["type-of"],
	},
}

func reduceNumbers(args []value.Value, op func(a, b float64) float64) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one argument is required")
	}
	first, ok := args[0].(value.Number)
	if !ok {
		return nil, fmt.Errorf("%s is not a number", value.Inspect(args[0]))
	}
	result := first.Value
	for _, a := range args[1:] {
		n, ok := a.(value.Number)
		if !ok {
			return nil, fmt.Errorf("%s is not a number", value.Inspect(a))
		}
		result = op(result, n.Value)
	}
	return value.Number{Value: result, Numerators: first.Numerators, Denominators: first.Denominators}, nil
}
