// Package schemeerr defines the tagged error taxonomy shared by the
// compiler, macro engine, and virtual machine.
//
// Every error the compiler or VM can raise belongs to one of a small,
// closed set of kinds. Keeping them as a single exported type (rather
// than ad-hoc fmt.Errorf strings scattered across packages) lets
// embedding hosts distinguish, for example, an UnboundVariable from a
// WrongArgNumber without parsing message text.
package schemeerr

import "fmt"

// Kind identifies which error taxonomy an Error belongs to.
type Kind int

const (
	// KindSyntax marks a malformed special form at compile time:
	// a missing "then" clause, extra expressions, bad lambda formals,
	// an invalid set! target, a duplicate macro pattern variable, or
	// a syntax-rules ellipsis count mismatch.
	KindSyntax Kind = iota

	// KindCompile marks an expression that is neither an atom nor a
	// list, or is otherwise unrecognizable to the compiler.
	KindCompile

	// KindUnboundVariable marks a local name that the compiler could
	// not resolve in the current environment chain.
	KindUnboundVariable

	// KindWrongArgType marks a callee that is not a procedure,
	// primitive, or continuation, or a primitive that rejected one of
	// its arguments.
	KindWrongArgType

	// KindWrongArgNumber marks an arity mismatch at a call site, or a
	// continuation invoked with more than one argument.
	KindWrongArgNumber

	// KindMatch marks an internal syntax-rules matching failure. It is
	// caught by the macro engine to end ellipsis repetition and must
	// never escape to a caller outside package macro.
	KindMatch

	// KindStackOverflow marks a non-tail call chain that grew past the
	// VM's configured MaxCallDepth.
	KindStackOverflow
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindCompile:
		return "CompileError"
	case KindUnboundVariable:
		return "UnboundVariable"
	case KindWrongArgType:
		return "WrongArgType"
	case KindWrongArgNumber:
		return "WrongArgNumber"
	case KindMatch:
		return "MatchError"
	case KindStackOverflow:
		return "StackOverflow"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type raised by the compiler, macro
// engine, and VM. Form carries the offending source s-expression (for
// compile-time errors) or callee (for runtime errors), printed as part
// of Error() when present.
type Error struct {
	Kind    Kind
	Message string
	// Form is the offending source expression or callee value, kept as
	// fmt.Stringer-compatible any so this package has no dependency on
	// package value.
	Form any
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithForm attaches the offending form to an Error and returns it, for
// chaining at the call site: `return schemeerr.New(...).WithForm(expr)`.
func (e *Error) WithForm(form any) *Error {
	e.Form = form
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Form == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (in %v)", e.Kind, e.Message, e.Form)
}

// Is reports whether err is a *Error of the given kind. It checks err
// itself and does not unwrap wrapped errors; callers that need the Kind
// of a wrapped error can use errors.As instead.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}
