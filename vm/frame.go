// Package vm implements the stack-based bytecode interpreter: the
// dispatch loop, call frames, first-class continuations, and the
// make_call logic that routes a call site to a Procedure, a
// Primitive, or a Continuation.
package vm

import "github.com/dr8co/skime/value"

// Frame is one activation record: the code currently executing (a top
// level Form or a Procedure's embedded Form), the lexical environment
// it runs against, an instruction pointer, an operand stack, and the
// frame to resume once this one returns.
//
// Tail calls eliminate stack growth by reparenting: a tail_call's new
// Frame takes Parent directly from the CALLING frame's own Parent,
// never from the calling frame itself, so a self-recursive tail loop
// never grows the Parent chain no matter how many iterations run.
type Frame struct {
	Form   *value.Form
	Env    *value.Environment
	IP     int
	Stack  []value.Value
	Parent *Frame

	// Depth is the number of non-tail call frames nested below this one
	// (Parent.Depth+1 on a non-tail call, unchanged across a tail call's
	// reparenting). The VM consults it against MaxCallDepth.
	Depth int
}

func (f *Frame) push(v value.Value) {
	f.Stack = append(f.Stack, v)
}

func (f *Frame) pop() value.Value {
	n := len(f.Stack) - 1
	v := f.Stack[n]
	f.Stack = f.Stack[:n]
	return v
}

func (f *Frame) peek() value.Value {
	return f.Stack[len(f.Stack)-1]
}

// popN pops the top n values off the stack, returning them in the
// order they were pushed (argument order, not stack order).
func (f *Frame) popN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	args := make([]value.Value, n)
	copy(args, f.Stack[len(f.Stack)-n:])
	f.Stack = f.Stack[:len(f.Stack)-n]
	return args
}

// cloneFrameChain deep-copies f and every ancestor reachable through
// Parent — each frame's own Stack slice is copied so resuming a
// captured continuation later can never alias, and thus corrupt, the
// live frame chain's operand stacks. Env and Form are shared by
// reference: call/cc captures control flow, not variable bindings.
func cloneFrameChain(f *Frame) *Frame {
	if f == nil {
		return nil
	}
	return &Frame{
		Form:   f.Form,
		Env:    f.Env,
		IP:     f.IP,
		Stack:  append([]value.Value(nil), f.Stack...),
		Parent: cloneFrameChain(f.Parent),
		Depth:  f.Depth,
	}
}

// Continuation is the runtime value `call/cc` hands to its receiver
// procedure: invoking it with zero or one argument (Nil when none)
// discards the current frame chain and resumes template, re-cloned so
// the same continuation can
// be invoked more than once (a multi-shot, re-entrant continuation).
type Continuation struct {
	template *Frame
}

func (*Continuation) Type() value.Type { return value.TypeContinuation }
func (*Continuation) Inspect() string  { return "#<continuation>" }
