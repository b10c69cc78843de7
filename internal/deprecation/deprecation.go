// Package deprecation classifies evaluator warnings by a stable id and
// wraps a host logger to silence, promote to fatal, or repetition-limit
// them. The version comparison in ForVersion follows the same
// major/minor/patch range-comparison idiom the teacher's internal/compat
// package uses for browser feature-support ranges, generalized here from
// "is this version inside the supported range" to "was this id
// deprecated at or before this version".
package deprecation

import (
	"fmt"

	"github.com/sassgo/sassgo/internal/logger"
)

// ID is a stable kebab-case string, e.g. "slash-div" or "color-number".
type ID string

const (
	CallString       ID = "call-string"
	ColorNumber      ID = "color-number"
	SlashDiv         ID = "slash-div"
	MozDocument      ID = "moz-document"
	Import           ID = "import"
	BogusCombinators ID = "bogus-combinators"
	MediaLogic       ID = "media-logic"
	StrictUnary      ID = "strict-unary"
	DuplicateVar     ID = "duplicate-var-flags"
	UserAuthored     ID = "user-authored" // not a real id; used for "@warn"-style user warnings with no specific deprecation
)

// Version is a three-part semantic version, compared the same way the
// teacher's compat package compares versions against a feature-support
// range (diff on major, then minor, then patch).
type Version struct {
	Major, Minor, Patch uint16
}

func (a Version) compare(b Version) int {
	if a.Major != b.Major {
		return int(a.Major) - int(b.Major)
	}
	if a.Minor != b.Minor {
		return int(a.Minor) - int(b.Minor)
	}
	return int(a.Patch) - int(b.Patch)
}

func (a Version) LessOrEqual(b Version) bool { return a.compare(b) <= 0 }

// deprecatedIn records the version each id was introduced in. IDs absent
// from this table (e.g. user-authored @warn calls) have no version and
// are never selected by ForVersion.
var deprecatedIn = map[ID]Version{
	CallString:       {1, 3, 0},
	ColorNumber:      {1, 13, 0},
	SlashDiv:         {1, 33, 0},
	MozDocument:      {1, 7, 2},
	Import:           {1, 80, 0},
	BogusCombinators: {1, 54, 0},
	MediaLogic:       {1, 56, 0},
	StrictUnary:      {1, 0, 0},
	DuplicateVar:     {1, 62, 0},
}

// ForVersion returns the set of ids whose deprecated-in version is <= v.
func ForVersion(v Version) map[ID]bool {
	out := make(map[ID]bool)
	for id, introduced := range deprecatedIn {
		if introduced.LessOrEqual(v) {
			out[id] = true
		}
	}
	return out
}

// PolicySet is the three option-supplied id sets spec section 4.1/4.6
// describe: silenced, promoted to a hard error, or "future" (always
// emitted, exempt from repetition limiting).
type PolicySet struct {
	Silence map[ID]bool
	Fatal   map[ID]bool
	Future  map[ID]bool
}

// Validate rejects a configuration where the same id appears in both
// Silence and Fatal, per spec section 4.6's validate().
func (p PolicySet) Validate() error {
	for id := range p.Silence {
		if p.Fatal[id] {
			return fmt.Errorf("deprecation %q cannot be both silenced and fatal", id)
		}
	}
	return nil
}

type repeatKey struct {
	id       ID
	location string
}

// FatalError is raised when a warning's deprecation id is in the fatal
// set; the driver surfaces it as a Sass error carrying the current
// callable span.
type FatalError struct {
	ID      ID
	Message string
	Trace   []logger.StackFrame
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s (fatal deprecation %q)", e.Message, e.ID)
}

// Logger wraps a host logger.Log, applying the deprecation policy of
// spec section 4.6: silence / promote-to-error / always-emit / rate-limit.
type Logger struct {
	Underlying      logger.Log
	Policy          PolicySet
	LimitRepetition bool
	QuietDeps       bool

	counts map[repeatKey]int
	order  []repeatKey
}

func NewLogger(underlying logger.Log, policy PolicySet, limitRepetition bool, quietDeps bool) *Logger {
	return &Logger{
		Underlying:      underlying,
		Policy:          policy,
		LimitRepetition: limitRepetition,
		QuietDeps:       quietDeps,
		counts:          make(map[repeatKey]int),
	}
}

const repetitionLimit = 5

// Warn routes one evaluator warning through the deprecation policy. When
// isFromDependency is true and QuietDeps is set, the warning is dropped
// unless it would otherwise be fatal -- resolving spec section 9's open
// question in favor of "fatal-ness is checked first": a dependency that
// trips a fatal-deprecated construct still fails the build, it's only
// non-fatal warnings from dependencies that quiet-deps suppresses. A
// dependency warning whose id is in the future set is kept as well.
func (l *Logger) Warn(source *logger.Source, r logger.Range, message string, id ID, isFromDependency bool, trace []logger.StackFrame) error {
	if id != "" && l.Policy.Fatal[id] {
		return &FatalError{ID: id, Message: message, Trace: trace}
	}

	if id != "" && l.Policy.Silence[id] {
		return nil
	}

	if isFromDependency && l.QuietDeps && !l.Policy.Future[id] {
		return nil
	}

	if id != "" && l.Policy.Future[id] {
		l.Underlying.AddMsg(logger.Msg{Kind: logger.Warning, Data: logger.RangeData(source, r, message), DeprecationID: string(id), Trace: trace})
		return nil
	}

	if l.LimitRepetition && id != "" {
		loc := logger.LocationOrNil(source, r)
		key := repeatKey{id: id}
		if loc != nil {
			key.location = fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
		}
		l.counts[key]++
		if l.counts[key] == 1 {
			l.order = append(l.order, key)
		}
		if l.counts[key] > repetitionLimit {
			return nil
		}
	}

	l.Underlying.AddMsg(logger.Msg{Kind: logger.Warning, Data: logger.RangeData(source, r, message), DeprecationID: string(id), Trace: trace})
	return nil
}

func (l *Logger) Debug(source *logger.Source, r logger.Range, message string) {
	l.Underlying.AddMsg(logger.Msg{Kind: logger.Debug, Data: logger.RangeData(source, r, message)})
}

// Summarize emits one final warning per suppressed bucket reporting the
// total count, per spec section 4.6's summarize().
func (l *Logger) Summarize() {
	for _, key := range l.order {
		count := l.counts[key]
		if count > repetitionLimit {
			extra := count - repetitionLimit
			l.Underlying.AddMsg(logger.Msg{
				Kind: logger.Warning,
				Data: logger.MsgData{Text: fmt.Sprintf("%s repeated %d more time%s",
					key.id, extra, pluralSuffix(extra))},
			})
		}
	}
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
