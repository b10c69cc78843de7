// Package sasserr is the error taxonomy spec section 7 describes: every
// failure that can end a compilation is classified into one of a small
// set of kinds, each mapped to a CLI exit code, and carries the
// pkg/errors call stack of whichever internal operation raised it so a
// bug report has more to go on than the user-facing message.
package sasserr

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sassgo/sassgo/internal/ast"
	"github.com/sassgo/sassgo/internal/logger"
)

type Kind int

const (
	KindParse Kind = iota
	KindUsage
	KindRuntime
	KindFilesystem
	KindProtocol
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindUsage:
		return "usage error"
	case KindRuntime:
		return "runtime error"
	case KindFilesystem:
		return "filesystem error"
	case KindProtocol:
		return "protocol error"
	default:
		return "internal error"
	}
}

// ExitCode maps a Kind to the process exit code spec section 6 assigns
// it: 0 success, 1 a normal compile failure (parse/runtime/filesystem),
// 64 a usage error (EX_USAGE, the sysexits.h convention the teacher's
// CLI also follows for bad flags), 76 a protocol error (embedded-protocol
// framing violation; EX_PROTOCOL is not a real sysexits code but 76 is
// reserved here to match dart-sass's embedded host convention), 70 an
// internal error (EX_SOFTWARE).
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return 64
	case KindProtocol:
		return 76
	case KindInternal:
		return 70
	default:
		return 1
	}
}

// Error is a Sass-level failure: a user-facing message, the span that
// triggered it (nil for e.g. a usage error with no associated source),
// the call stack active when it was thrown (for @error and runtime
// failures), and the Kind used to pick an exit code and a rendering
// style.
type Error struct {
	Kind    Kind
	Message string
	Span    *ast.Span
	Trace   []logger.StackFrame
	cause   error
}

func (e *Error) Error() string {
	if e.Span != nil {
		if loc := e.Span.Location(); loc != nil {
			return fmt.Sprintf("%s:%d:%d: %s: %s", loc.File, loc.Line, loc.Column, e.Kind, e.Message)
		}
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Wrap attaches a pkg/errors call stack to an internal Go error and
// classifies it, the way the teacher wraps lower-level failures once at
// the boundary where they become user-facing rather than at every call
// site.
func Wrap(kind Kind, span *ast.Span, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Span: span, cause: errors.WithStack(err)}
}

func New(kind Kind, span *ast.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span, cause: errors.New(fmt.Sprintf(format, args...))}
}

func Parse(span ast.Span, format string, args ...interface{}) *Error {
	e := New(KindParse, &span, format, args...)
	return e
}

func Runtime(span ast.Span, trace []logger.StackFrame, format string, args ...interface{}) *Error {
	e := New(KindRuntime, &span, format, args...)
	e.Trace = trace
	return e
}

func Usage(format string, args ...interface{}) *Error {
	return New(KindUsage, nil, format, args...)
}

func Filesystem(format string, args ...interface{}) *Error {
	return New(KindFilesystem, nil, format, args...)
}

func Protocol(format string, args ...interface{}) *Error {
	return New(KindProtocol, nil, format, args...)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, nil, err)
}
