package value

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dr8co/skime/bytecode"
)

// Form is an immutable compiled artifact: a bytecode vector, a
// literals table, and — set once, after construction but before
// execution — the lexical environment the form runs against. A bare
// Form (as opposed to a Procedure) is what the compiler produces for
// a top-level expression; its environment is supplied by the caller
// rather than captured at closure-creation time.
//
// ID is a stable identifier stamped on every compiled form, shown by
// Inspect to tell apart multiple forms loaded into one VM session (a
// REPL that has compiled several top-level expressions, each producing
// its own Form).
type Form struct {
	ID            uuid.UUID
	Instructions  bytecode.Instructions
	Literals      []Value
	LexicalParent *Environment
}

func (f *Form) Type() Type { return TypeForm }
func (f *Form) Inspect() string {
	return fmt.Sprintf("#<form %s>", f.ID.String()[:8])
}

// NewForm constructs a Form with a fresh ID. LexicalParent is left nil;
// the caller may assign it before Run, and vm.Run assigns the VM's
// global environment when it is still nil.
func NewForm(instructions bytecode.Instructions, literals []Value) *Form {
	return &Form{ID: uuid.New(), Instructions: instructions, Literals: literals}
}

// Procedure is a Form extended with parameter metadata and a lexical
// parent captured at closure-creation time (via fix_lexical, emitted
// right after the procedure literal is pushed — see Builder.pushProc
// in package compiler).
type Procedure struct {
	Form

	// FixedArgc is the number of required positional parameters.
	FixedArgc int

	// Argc is FixedArgc, plus one more if RestArg is set (the rest
	// parameter occupies the slot immediately after the fixed ones).
	Argc int

	// RestArg reports whether the last declared parameter collects
	// surplus arguments into a proper list.
	RestArg bool

	// Env is the template environment for this procedure: it already
	// has every parameter (and every local `define`d in the body)
	// allocated as a named slot, all holding Nil. The VM never
	// executes against Env directly — it calls Env.Dup() on every
	// invocation so recursive and concurrent-in-the-chain calls never
	// alias each other's locals.
	Env *Environment
}

func (p *Procedure) Type() Type { return TypeProcedure }
func (p *Procedure) Inspect() string {
	return fmt.Sprintf("#<procedure %s/%d%s>", p.ID.String()[:8], p.FixedArgc, restSuffix(p.RestArg))
}

func restSuffix(rest bool) string {
	if rest {
		return "+"
	}
	return ""
}

// CheckArity reports whether argc arguments is a legal call to p: an
// exact match when there is no rest parameter, otherwise at least
// FixedArgc arguments.
func (p *Procedure) CheckArity(argc int) bool {
	if p.RestArg {
		return argc >= p.FixedArgc
	}
	return argc == p.FixedArgc
}

// PrimitiveFunc is the shape of a host-provided primitive
// implementation. vm is passed as `any` so this package does not
// depend on package vm; primitives that need VM services (the current
// continuation-less call stack depth, output streams, and so on) type
// assert it to whatever interface their host package exports.
type PrimitiveFunc func(vm any, args []Value) (Value, error)

// Primitive is an opaque host-language callable exposed to Scheme
// code, invoked by the VM with (vm, args...). MaxArgs of -1 means
// variadic from MinArgs.
type Primitive struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      PrimitiveFunc
}

func (p *Primitive) Type() Type      { return TypePrimitive }
func (p *Primitive) Inspect() string { return fmt.Sprintf("#<primitive %s>", p.Name) }

// CheckArity reports whether argc arguments is a legal call to p.
func (p *Primitive) CheckArity(argc int) bool {
	if argc < p.MinArgs {
		return false
	}
	if p.MaxArgs < 0 {
		return true
	}
	return argc <= p.MaxArgs
}
