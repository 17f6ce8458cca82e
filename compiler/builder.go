// Package compiler translates s-expressions into value.Form values
// against a value.Environment. Macros defined by define-syntax are
// bound into that environment and looked up there while compiling.
package compiler

import (
	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/value"
)

// Builder accumulates one Form's instructions and literal table. A new
// Builder is created for every lambda body (and once for a top-level
// expression), each bound to the value.Environment frame its bytecode
// addresses locals in at depth 0.
type Builder struct {
	Env          *value.Environment
	Instructions bytecode.Instructions
	Literals     []value.Value
}

func newBuilder(env *value.Environment) *Builder {
	return &Builder{Env: env}
}

// here returns the cell offset the next emitted instruction will start at.
func (b *Builder) here() int {
	return len(b.Instructions)
}

// emit appends one instruction and returns the cell offset it was
// written at, for later backpatching by changeOperand (used by if/and/or
// to fix up forward jump targets once the jump destination is known).
func (b *Builder) emit(op bytecode.Opcode, operands ...int) int {
	pos := b.here()
	b.Instructions = append(b.Instructions, bytecode.Make(op, operands...)...)
	return pos
}

// changeOperand overwrites the single-operand instruction at pos with
// the same opcode and a new operand value.
func (b *Builder) changeOperand(pos int, operand int) {
	op := bytecode.Opcode(b.Instructions[pos])
	copy(b.Instructions[pos:], bytecode.Make(op, operand))
}

// internLiteral returns the index of v in the literal table, adding it
// if no existing entry has both the same dynamic type and the same
// structural value — see value.SameLiteralType for why both checks are
// required (so an Int and a Float that compare equal numerically never
// share a slot).
func (b *Builder) internLiteral(v value.Value) int {
	for i, existing := range b.Literals {
		if value.SameLiteralType(v, existing) && value.Equal(v, existing) {
			return i
		}
	}
	b.Literals = append(b.Literals, v)
	return len(b.Literals) - 1
}

// emitPushLiteral pushes v, specializing to the zero-operand peephole
// opcodes (push_0, push_1, push_nil, push_true, push_false) when v is
// an exact match, and falling back to push_literal with an interned
// literal-table index otherwise. Every push still interns v: the
// disassembler and literal-sharing logic don't need to special-case
// peephole-addressed values.
func (b *Builder) emitPushLiteral(v value.Value) {
	idx := b.internLiteral(v)
	switch lit := v.(type) {
	case value.Nil:
		b.emit(bytecode.OpPushNil)
		return
	case value.Bool:
		if lit.Value {
			b.emit(bytecode.OpPushTrue)
		} else {
			b.emit(bytecode.OpPushFalse)
		}
		return
	case value.Int:
		if lit.Value == 0 {
			b.emit(bytecode.OpPush0)
			return
		}
		if lit.Value == 1 {
			b.emit(bytecode.OpPush1)
			return
		}
	}
	b.emit(bytecode.OpPushLiteral, idx)
}

// emitLocalRead resolves name in Env's lexical chain and emits the
// appropriate push instruction, or an UnboundVariable error if name is
// not bound anywhere in the chain.
func (b *Builder) emitLocalRead(name string) error {
	depth, idx, ok := b.Env.FindDepth(name)
	if !ok {
		return unboundErr(name)
	}
	if depth == 0 {
		b.emit(bytecode.OpPushLocal, idx)
	} else {
		b.emit(bytecode.OpPushLocalDepth, depth, idx)
	}
	return nil
}

// emitLocalWrite resolves name and emits the appropriate set
// instruction, consuming the value currently on top of the stack.
func (b *Builder) emitLocalWrite(name string) error {
	depth, idx, ok := b.Env.FindDepth(name)
	if !ok {
		return unboundErr(name)
	}
	if depth == 0 {
		b.emit(bytecode.OpSetLocal, idx)
	} else {
		b.emit(bytecode.OpSetLocalDepth, depth, idx)
	}
	return nil
}

// pushProc compiles proc (already a fully-built *value.Procedure, its
// Env the fresh frame the callee will Dup on every invocation) as a
// literal and follows it with fix_lexical, stamping the closure's
// lexical parent to Env — the sole mechanism this core uses to create
// closures; there is no dedicated make_lambda opcode.
func (b *Builder) pushProc(proc *value.Procedure) {
	idx := b.internLiteral(proc)
	b.emit(bytecode.OpPushLiteral, idx)
	b.emit(bytecode.OpFixLexical)
}
