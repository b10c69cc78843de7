// Package logger owns diagnostic messages and the text of every source file
// involved in a compilation. Messages look and feel like clang's: each one
// carries the contents of the offending line and a caret pointing at the
// exact column.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

const defaultTerminalWidth = 80

// Log is the sink every other package writes diagnostics into. A host
// supplies its own AddMsg/HasErrors/Done triple; NewStderrLog and
// NewDeferLog below are the two implementations this repository ships.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Note
	Debug
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	case Debug:
		return "debug"
	default:
		panic("internal error")
	}
}

// Msg is one diagnostic. A deprecation warning sets DeprecationID; plain
// parse/runtime errors leave it empty.
type Msg struct {
	Kind          MsgKind
	Data          MsgData
	Notes         []MsgData
	DeprecationID string
	Trace         []StackFrame
}

type MsgData struct {
	Text     string
	Location *MsgLocation

	// Present for a Sass call-stack trace attached to a runtime error.
	UserDetail interface{}
}

// StackFrame is one entry of a Sass call-stack trace: the callable that was
// executing and where it was called from.
type StackFrame struct {
	CallableName string
	Location     *MsgLocation
}

type MsgLocation struct {
	File       string
	Line       int // 1-based
	Column     int // 0-based, in bytes
	Length     int // in bytes
	LineText   string
	Suggestion string
}

// Loc is a byte offset into a Source's contents.
type Loc struct {
	Start int32
}

// Range is a span of bytes, the low-level building block that ast.Span
// wraps with file identity and line/column projection.
type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	aLoc, bLoc := ai.Data.Location, aj.Data.Location
	if aLoc == nil || bLoc == nil {
		return aLoc == nil && bLoc != nil
	}
	if aLoc.File != bLoc.File {
		return aLoc.File < bLoc.File
	}
	if aLoc.Line != bLoc.Line {
		return aLoc.Line < bLoc.Line
	}
	if aLoc.Column != bLoc.Column {
		return aLoc.Column < bLoc.Column
	}
	return ai.Data.Text < aj.Data.Text
}

// Syntax selects the parser dialect for a Source.
type Syntax uint8

const (
	SyntaxSCSS Syntax = iota
	SyntaxIndented
	SyntaxCSS
)

func (s Syntax) String() string {
	switch s {
	case SyntaxSCSS:
		return "scss"
	case SyntaxIndented:
		return "sass"
	case SyntaxCSS:
		return "css"
	default:
		panic("internal error")
	}
}

// Source is an immutable registered source file. Spans reference a Source
// by pointer identity, so two sources with the same text are still distinct.
type Source struct {
	// CanonicalURL is the stable identity used by the import cache and by
	// module identity. A string passed directly to CompileString gets a
	// synthetic "string://<uuid>" URL (cache.RegisterEntrypointString).
	CanonicalURL string

	// PrettyURL is what gets shown to the user in diagnostics: usually the
	// same as CanonicalURL but rendered relative to the working directory.
	PrettyURL string

	Syntax   Syntax
	Contents string
	Index    uint32
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

func (s *Source) RangeOfString(loc Loc) Range {
	text := s.Contents[loc.Start:]
	if len(text) == 0 {
		return Range{Loc: loc}
	}
	quote := text[0]
	if quote == '"' || quote == '\'' {
		i := 1
		for i < len(text) {
			c := text[i]
			if c == quote {
				return Range{Loc: loc, Len: int32(i + 1)}
			}
			if c == '\\' {
				i++
			}
			i++
		}
	}
	return Range{Loc: loc, Len: 1}
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0 && warnings == 0:
		return "no errors"
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("error", errors), plural("warning", warnings))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

type UseColor uint8

const (
	ColorIfTerminal UseColor = iota
	ColorAlways
	ColorNever
)

type OutputOptions struct {
	IncludeSource bool
	MessageLimit  int
	Color         UseColor
}

// NewStderrLog is the default host logger: it prints messages to stderr as
// they arrive, with caret-annotated source excerpts and (when the terminal
// supports it) ANSI colors.
func NewStderrLog(options OutputOptions) Log {
	var msgs SortableMsgs
	var errorCount int
	terminalInfo := GetTerminalInfo(os.Stderr)

	return Log{
		AddMsg: func(msg Msg) {
			msgs = append(msgs, msg)
			if msg.Kind == Error {
				errorCount++
			}
			if options.MessageLimit == 0 || len(msgs) <= options.MessageLimit {
				fmt.Fprint(os.Stderr, msg.String(options, terminalInfo))
			}
		},
		HasErrors: func() bool {
			return errorCount > 0
		},
		Done: func() []Msg {
			return msgs
		},
	}
}

// NewDeferLog collects messages without printing them; used by hosts (and
// by tests) that want to inspect the message list programmatically.
func NewDeferLog() Log {
	var msgs SortableMsgs
	var errorCount int
	return Log{
		AddMsg: func(msg Msg) {
			msgs = append(msgs, msg)
			if msg.Kind == Error {
				errorCount++
			}
		},
		HasErrors: func() bool {
			return errorCount > 0
		},
		Done: func() []Msg {
			sorted := append(SortableMsgs{}, msgs...)
			sort.Stable(sorted)
			return sorted
		},
	}
}

func (msg Msg) String(options OutputOptions, terminalInfo TerminalInfo) string {
	var colors Colors
	useColor := options.Color == ColorAlways || (options.Color == ColorIfTerminal && terminalInfo.UseColorEscapes)
	if useColor {
		colors = terminalColors
	}

	maxMargin := 0
	if msg.Data.Location != nil {
		maxMargin = len(fmt.Sprintf("%d", msg.Data.Location.Line))
	}

	sb := strings.Builder{}
	sb.WriteString(msgString(options.IncludeSource, terminalInfo, msg.Kind, msg.Data, maxMargin, colors))
	for _, note := range msg.Notes {
		sb.WriteString(msgString(options.IncludeSource, terminalInfo, Note, note, maxMargin, colors))
	}
	for _, frame := range msg.Trace {
		sb.WriteString(frameString(frame, colors))
	}
	return sb.String()
}

type Colors struct {
	Reset, Dim, Bold, Red, Green, Yellow, Cyan string
}

var terminalColors = Colors{
	Reset:  "\033[0m",
	Dim:    "\033[37m",
	Bold:   "\033[1m",
	Red:    "\033[31m",
	Green:  "\033[32m",
	Yellow: "\033[33m",
	Cyan:   "\033[36m",
}

func msgString(includeSource bool, terminalInfo TerminalInfo, kind MsgKind, data MsgData, maxMargin int, colors Colors) string {
	var kindColor string
	switch kind {
	case Error:
		kindColor = colors.Red
	case Warning:
		kindColor = colors.Yellow
	case Note:
		kindColor = colors.Dim
	case Debug:
		kindColor = colors.Cyan
	}

	sb := strings.Builder{}
	loc := data.Location
	if loc != nil {
		fmt.Fprintf(&sb, "%s%s:%d:%d:%s %s%s:%s %s\n", colors.Bold, loc.File, loc.Line, loc.Column, colors.Reset,
			kindColor, kind.String(), colors.Reset, data.Text)
	} else {
		fmt.Fprintf(&sb, "%s%s:%s %s\n", kindColor, kind.String(), colors.Reset, data.Text)
	}

	if includeSource && loc != nil && loc.LineText != "" {
		margin := marginWithLineText(maxMargin, loc.Line)
		sb.WriteString(colors.Dim)
		sb.WriteString(margin)
		sb.WriteString(colors.Reset)
		sb.WriteString(loc.LineText)
		sb.WriteByte('\n')
		sb.WriteString(emptyMarginText(maxMargin))
		sb.WriteString(strings.Repeat(" ", estimateWidthInTerminal(loc.LineText[:min(loc.Column, len(loc.LineText))])))
		sb.WriteString(colors.Green)
		caretLen := loc.Length
		if caretLen < 1 {
			caretLen = 1
		}
		sb.WriteString(strings.Repeat("^", caretLen))
		sb.WriteString(colors.Reset)
		sb.WriteByte('\n')
		if loc.Suggestion != "" {
			fmt.Fprintf(&sb, "  %sdid you mean %q?%s\n", colors.Cyan, loc.Suggestion, colors.Reset)
		}
	}

	return sb.String()
}

func frameString(frame StackFrame, colors Colors) string {
	if frame.Location == nil {
		return fmt.Sprintf("    %sat %s%s\n", colors.Dim, frame.CallableName, colors.Reset)
	}
	return fmt.Sprintf("    %sat %s (%s:%d:%d)%s\n", colors.Dim, frame.CallableName,
		frame.Location.File, frame.Location.Line, frame.Location.Column, colors.Reset)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

const extraMarginChars = 3

func marginWithLineText(maxMargin int, line int) string {
	number := fmt.Sprintf("%d", line)
	return fmt.Sprintf("%*s%s|  ", maxMargin-len(number), "", number)
}

func emptyMarginText(maxMargin int) string {
	return strings.Repeat(" ", maxMargin+extraMarginChars)
}

func estimateWidthInTerminal(text string) int {
	width := 0
	for _, c := range text {
		if c == '\t' {
			width += 4
		} else {
			width += 1
		}
		_ = utf8.RuneLen(c)
	}
	return width
}

func computeLineAndColumn(contents string, offset int) (lineCount int, columnCount int, lineStart int, lineEnd int) {
	if offset > len(contents) {
		offset = len(contents)
	}
	if offset < 0 {
		offset = 0
	}

	lineStart = 0
	line := 1
	for i := 0; i < offset; i++ {
		if contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	lineEnd = len(contents)
	if idx := strings.IndexByte(contents[offset:], '\n'); idx >= 0 {
		lineEnd = offset + idx
	}

	return line, offset - lineStart, lineStart, lineEnd
}

// LocationOrNil renders a Range within a Source into a MsgLocation suitable
// for caret-annotated display, or nil if the source is unknown (e.g. a
// built-in error with no span).
func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}
	line, column, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))
	return &MsgLocation{
		File:     source.PrettyURL,
		Line:     line,
		Column:   column,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func RangeData(source *Source, r Range, text string) MsgData {
	return MsgData{Text: text, Location: LocationOrNil(source, r)}
}

func (log Log) AddError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Error, Data: RangeData(source, Range{Loc: loc}, text)})
}

func (log Log) AddRangeError(source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: Error, Data: RangeData(source, r, text)})
}

func (log Log) AddRangeWarning(source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: Warning, Data: RangeData(source, r, text)})
}

func (log Log) AddRangeWarningWithDeprecation(source *Source, r Range, text string, deprecationID string) {
	log.AddMsg(Msg{Kind: Warning, Data: RangeData(source, r, text), DeprecationID: deprecationID})
}

func (log Log) AddDebug(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Debug, Data: RangeData(source, Range{Loc: loc}, text)})
}
