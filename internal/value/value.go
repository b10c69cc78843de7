// Package value implements the evaluator's runtime universe: the Sass
// values that variables hold, that expressions reduce to, and that
// callables receive and return. The variant dispatch follows the same
// "marker method on an unexported interface" idiom used for the CSS
// output AST in internal/css_ast -- a switch per consumer, no inheritance.
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sassgo/sassgo/internal/helpers"
)

// Value is the runtime value union; Kind() gives a cheap discriminant for
// hot paths like equality, and callers may also type-switch on it.
type Value interface {
	isValue()
	Kind() Kind
}

type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindColor
	KindList
	KindMap
	KindBool
	KindNull
	KindFunction
	KindArgList
	KindMixin
)

// Null is the single canonical null value.
var Null Value = nullValue{}

type nullValue struct{}

func (nullValue) isValue()     {}
func (nullValue) Kind() Kind   { return KindNull }
func (nullValue) String() string { return "null" }

// Bool wraps Go's two boolean values; True/False below are the canonical
// instances so equality can shortcut on identity before falling back to
// structural comparison.
type Bool bool

func (Bool) isValue()   {}
func (Bool) Kind() Kind { return KindBool }

var True Value = Bool(true)
var False Value = Bool(false)

func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Str is a Sass string. Quoted strings participate in string operations
// (concatenation, interpolation) the same as unquoted ones; Quoted only
// affects how the value is serialized back to CSS text.
type Str struct {
	Text   string
	Quoted bool
}

func (Str) isValue()   {}
func (Str) Kind() Kind { return KindString }

// Number is a Sass number with numerator and denominator unit lists, each
// holding units like "px" or "deg". Sass numbers carry both lists so that "1px * 1px" can be
// tracked as "1px^2" even though CSS has no way to print it.
type Number struct {
	Value        float64
	Numerators   []string
	Denominators []string
}

func (Number) isValue()   {}
func (Number) Kind() Kind { return KindNumber }

func Int(n int) Number { return Number{Value: float64(n)} }

func Unitless(n float64) Number { return Number{Value: n} }

func WithUnit(n float64, unit string) Number { return Number{Value: n, Numerators: []string{unit}} }

func (n Number) HasUnits() bool { return len(n.Numerators) > 0 || len(n.Denominators) > 0 }

func (n Number) Unit() string {
	if len(n.Numerators) == 1 && len(n.Denominators) == 0 {
		return n.Numerators[0]
	}
	return ""
}

// precision controls both the epsilon used by numeric equality and the
// number of decimal digits the printer emits for a number (spec: "numbers
// compare with an epsilon tolerance 1/(10*precision)").
const DefaultPrecision = 10

func epsilon(precision int) float64 {
	return 1 / (10 * float64(precision))
}

// NumbersEqual implements the epsilon-tolerant comparison spec §3 and §8
// require: |a-b| < 1/(10*precision).
func NumbersEqual(a, b Number, precision int) bool {
	if !sameUnits(a.Numerators, b.Numerators) || !sameUnits(a.Denominators, b.Denominators) {
		return false
	}
	return math.Abs(a.Value-b.Value) < epsilon(precision)
}

func sameUnits(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, u := range a {
		counts[strings.ToLower(u)]++
	}
	for _, u := range b {
		counts[strings.ToLower(u)]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// FormatNumber renders a number's magnitude to DefaultPrecision decimal
// digits, trimming trailing zeros, the way Sass's own number-to-string
// conversion does.
func FormatNumber(n float64, precision int) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.*f", precision, n), "0"), ".")
	if s == "" || s == "-0" {
		s = "0"
	}
	return s
}

// ColorSpace records which representation a color was constructed in. It
// does not affect serialization: every color prints as hex, or as rgba()
// when translucent, whatever its space.
type ColorSpace uint8

const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceHSL
	ColorSpaceHWB
)

type Color struct {
	R, G, B uint8
	A       float64 // 0..1
	Space   ColorSpace
}

func (Color) isValue()   {}
func (Color) Kind() Kind { return KindColor }

func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: a, Space: ColorSpaceRGB}
}

// HSL builds a Color from hue/saturation/lightness (matching CSS's
// hsl() function), preferring HSL notation when later printed.
func HSL(h, s, l, a float64) Color {
	r, g, b := hslToRGB(h, s, l)
	return Color{R: r, G: g, B: b, A: a, Space: ColorSpaceHSL}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s / 100)
	l = clamp01(l / 100)

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r1, g1, b1 float64
	switch {
	case h < 60:
		r1, g1, b1 = c, x, 0
	case h < 120:
		r1, g1, b1 = x, c, 0
	case h < 180:
		r1, g1, b1 = 0, c, x
	case h < 240:
		r1, g1, b1 = 0, x, c
	case h < 300:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}

	return to255(r1 + m), to255(g1 + m), to255(b1 + m)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to255(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// Separator is how a list's elements are printed between each other, and
// also participates in equality: "(1, 2)" and "(1 2)" are different lists.
type Separator uint8

const (
	SeparatorUndecided Separator = iota
	SeparatorComma
	SeparatorSpace
	SeparatorSlash
)

type List struct {
	Elements  []Value
	Separator Separator
	Bracketed bool
}

func (List) isValue()   {}
func (List) Kind() Kind { return KindList }

// MapEntry preserves insertion order, which Sass maps are specified to do.
type MapEntry struct {
	Key   Value
	Value Value
}

type Map struct {
	Entries []MapEntry
}

func (Map) isValue()   {}
func (Map) Kind() Kind { return KindMap }

func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equal(e.Key, key, DefaultPrecision) {
			return e.Value, true
		}
	}
	return nil, false
}

// Signature is a callable's parameter list: positional names in order,
// each optionally with a default expression (opaque here -- the evaluator
// supplies the closure that knows how to evaluate it), and an optional
// rest-parameter name.
type Signature struct {
	Parameters []Parameter
	RestParam  string // "" if this signature takes no rest parameter
}

type Parameter struct {
	Name        string
	HasDefault  bool
	DefaultText string // source text of the default, for error messages only
}

// Function is a first-class reference to a callable, e.g. the result of
// "get-function(...)".
type Function struct {
	Name     string
	Callable interface{} // *evaluator.Callable; kept opaque to avoid an import cycle
}

func (Function) isValue()   {}
func (Function) Kind() Kind { return KindFunction }

// Mixin is the first-class analog of Function for "meta.get-mixin"-style
// mixin references.
type Mixin struct {
	Name     string
	Callable interface{}
}

func (Mixin) isValue()   {}
func (Mixin) Kind() Kind { return KindMixin }

// ArgList is the value bound to a rest ("...") parameter: a list plus the
// keyword arguments that weren't claimed by an earlier positional
// parameter. KeywordsAccessed tracks whether any keyword has been read,
// per spec: "build an argument-list value for rest parameters
// (with keywordsAccessed=false)" -- reading none of them is itself
// observable (Sass warns about unused named arguments).
type ArgList struct {
	List             List
	Keywords         map[string]Value
	KeywordOrder     []string
	KeywordsAccessed bool
}

func (ArgList) isValue()   {}
func (ArgList) Kind() Kind { return KindArgList }

func (a *ArgList) Keyword(name string) (Value, bool) {
	a.KeywordsAccessed = true
	v, ok := a.Keywords[name]
	return v, ok
}

// Equal implements the structural equality spec §3 requires, with the
// epsilon tolerance for numbers.
func Equal(a, b Value, precision int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Str:
		return av.Text == b.(Str).Text
	case Number:
		return NumbersEqual(av, b.(Number), precision)
	case Color:
		bv := b.(Color)
		return av.R == bv.R && av.G == bv.G && av.B == bv.B && math.Abs(av.A-bv.A) < epsilon(precision)
	case Bool:
		return av == b.(Bool)
	case nullValue:
		return true
	case List:
		bv := b.(List)
		if av.Separator != bv.Separator || av.Bracketed != bv.Bracketed || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i], precision) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av.Entries) != len(bv.Entries) {
			return false
		}
		for _, e := range av.Entries {
			other, ok := bv.Get(e.Key)
			if !ok || !Equal(e.Value, other, precision) {
				return false
			}
		}
		return true
	case Function:
		return av.Name == b.(Function).Name
	case Mixin:
		return av.Name == b.(Mixin).Name
	default:
		return a == b
	}
}

// Inspect renders a value the way Sass's "meta.inspect" / debug output
// does, used by the deprecation logger and by @debug.
func Inspect(v Value) string {
	switch val := v.(type) {
	case Str:
		if val.Quoted {
			return string(helpers.QuoteForJSON(val.Text, false))
		}
		return val.Text
	case Number:
		s := FormatNumber(val.Value, DefaultPrecision)
		if u := val.Unit(); u != "" {
			s += u
		}
		return s
	case Color:
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", val.R, val.G, val.B, FormatNumber(val.A, DefaultPrecision))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case nullValue:
		return "null"
	case List:
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			parts[i] = Inspect(e)
		}
		sep := ", "
		if val.Separator == SeparatorSpace {
			sep = " "
		} else if val.Separator == SeparatorSlash {
			sep = " / "
		}
		body := strings.Join(parts, sep)
		if val.Bracketed {
			return "[" + body + "]"
		}
		if len(val.Elements) == 1 && val.Separator == SeparatorComma {
			return "(" + body + ",)"
		}
		return body
	case Map:
		keys := make([]string, 0, len(val.Entries))
		byKey := map[string]MapEntry{}
		for _, e := range val.Entries {
			k := Inspect(e.Key)
			keys = append(keys, k)
			byKey[k] = e
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			e := byKey[k]
			parts[i] = fmt.Sprintf("%s: %s", Inspect(e.Key), Inspect(e.Value))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Function:
		return fmt.Sprintf("get-function(%q)", val.Name)
	case Mixin:
		return fmt.Sprintf("meta.get-mixin(%q)", val.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToCSS renders a value the way it's written into generated CSS output,
// as opposed to Inspect's debug rendering (maps/functions have no CSS
// representation and are a caller error to pass here).
func ToCSS(v Value) (string, error) {
	switch val := v.(type) {
	case Str:
		return val.Text, nil
	case Number:
		s := FormatNumber(val.Value, DefaultPrecision)
		if u := val.Unit(); u != "" {
			s += u
		}
		return s, nil
	case Color:
		return cssColor(val), nil
	case Bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case nullValue:
		return "", nil
	case List:
		parts := make([]string, 0, len(val.Elements))
		for _, e := range val.Elements {
			if e.Kind() == KindNull {
				continue
			}
			s, err := ToCSS(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		sep := ", "
		if val.Separator == SeparatorSpace || val.Separator == SeparatorUndecided {
			sep = " "
		} else if val.Separator == SeparatorSlash {
			sep = "/"
		}
		return strings.Join(parts, sep), nil
	default:
		return "", fmt.Errorf("%s isn't a valid CSS value", Inspect(v))
	}
}

// ToCSSDeclarationValue renders v the way it belongs on the right-hand
// side of a CSS declaration, preserving a quoted string's surrounding
// quote marks. ToCSS itself always strips them -- the form string
// concatenation and #{...} interpolation need, since both unquote their
// operands before recombining -- so a value used directly as a
// declaration's value (not built up through an expression first) needs
// this variant instead to round-trip "content: quote(hi);" correctly.
func ToCSSDeclarationValue(v Value) (string, error) {
	switch val := v.(type) {
	case Str:
		if val.Quoted {
			return string(helpers.QuoteForJSON(val.Text, false)), nil
		}
		return val.Text, nil
	case List:
		parts := make([]string, 0, len(val.Elements))
		for _, e := range val.Elements {
			if e.Kind() == KindNull {
				continue
			}
			s, err := ToCSSDeclarationValue(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		sep := ", "
		if val.Separator == SeparatorSpace || val.Separator == SeparatorUndecided {
			sep = " "
		} else if val.Separator == SeparatorSlash {
			sep = "/"
		}
		return strings.Join(parts, sep), nil
	default:
		return ToCSS(v)
	}
}

func cssColor(c Color) string {
	if c.A >= 1 {
		switch c.Space {
		case ColorSpaceHSL, ColorSpaceHWB:
			return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		default:
			return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		}
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, FormatNumber(c.A, DefaultPrecision))
}
