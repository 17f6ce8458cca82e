package vm

import (
	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/compiler"
	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// VM is a single execution session: a global environment shared by
// every top-level form it runs, and the compiler used by Compile and by
// the dynamic_eval instruction, whose bytecode can only be produced at
// runtime.
type VM struct {
	Global *value.Environment

	// MaxCallDepth caps how many non-tail-call frames may be nested at
	// once (tail calls reparent and never grow this count). Zero, the
	// default New leaves it at, means unbounded — a non-tail recursive
	// program runs until it exhausts memory rather than being stopped
	// early. An embedding host sets this from its own configuration to
	// turn runaway non-tail recursion into a catchable error instead.
	MaxCallDepth int

	compiler *compiler.Compiler
}

// New creates a VM with a fresh global environment and compiler. The
// caller populates Global with whatever primitive bindings the host
// wants in scope (see package builtins) before running any forms.
func New() *VM {
	return &VM{
		Global:   value.NewEnvironment(nil),
		compiler: compiler.New(),
	}
}

// Compile compiles expr against env using the VM's own compiler — the
// same one dynamic_eval uses internally. A define-syntax seen by one
// call stays visible to the next when both compile against the same
// env, since the macro is bound into an env slot like any variable.
func (vm *VM) Compile(expr value.Value, env *value.Environment) (*value.Form, error) {
	return vm.compiler.Compile(expr, env)
}

// Apply invokes proc with args from outside any running bytecode —
// the mechanism package builtins uses to implement higher-order
// primitives like `apply`, `map`, and `for-each`. It satisfies
// value.PrimitiveFunc's untyped `vm any` parameter: primitives type
// assert it to this interface.
func (vm *VM) Apply(proc value.Value, args []value.Value) (value.Value, error) {
	base := &Frame{}
	next, result, err := vm.makeCall(proc, args, false, base)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return result, nil
	}
	return vm.runLoop(next)
}

// Run compiles nothing itself: it executes an already-compiled Form
// against vm.Global (stamping LexicalParent if the caller hasn't),
// returning the value left on the stack when the top-level frame
// returns.
func (vm *VM) Run(form *value.Form) (value.Value, error) {
	if form.LexicalParent == nil {
		form.LexicalParent = vm.Global
	}
	return vm.runLoop(&Frame{Form: form, Env: form.LexicalParent, Parent: &Frame{}})
}

// runLoop is the single dispatch loop shared by Run and Apply: cur
// must have a sentinel Frame{} (Form == nil) somewhere at the root of
// its Parent chain — Run and Apply both arrange this — so that a ret
// popping past the outermost real frame lands on the sentinel and
// runLoop can recognize completion rather than dereferencing a nil
// Form.
func (vm *VM) runLoop(cur *Frame) (value.Value, error) {
	for {
		if cur.Form == nil {
			return cur.pop(), nil
		}
		ins := cur.Form.Instructions
		op := bytecode.Opcode(ins[cur.IP])
		def, err := bytecode.Lookup(op)
		if err != nil {
			return nil, schemeerr.New(schemeerr.KindCompile, "invalid opcode at %d: %v", cur.IP, err)
		}
		operands, _ := bytecode.ReadOperands(def, ins[cur.IP+1:])

		switch op {
		case bytecode.OpPushLocal:
			cur.push(cur.Env.ReadLocal(operands[0]))
			cur.IP += def.Len()

		case bytecode.OpSetLocal:
			cur.Env.AssignLocal(operands[0], cur.pop())
			cur.IP += def.Len()

		case bytecode.OpPushLocalDepth:
			cur.push(cur.Env.AtDepth(operands[0]).ReadLocal(operands[1]))
			cur.IP += def.Len()

		case bytecode.OpSetLocalDepth:
			cur.Env.AtDepth(operands[0]).AssignLocal(operands[1], cur.pop())
			cur.IP += def.Len()

		case bytecode.OpPushLiteral:
			cur.push(cur.Form.Literals[operands[0]])
			cur.IP += def.Len()

		case bytecode.OpPush0:
			cur.push(value.Int{Value: 0})
			cur.IP += def.Len()
		case bytecode.OpPush1:
			cur.push(value.Int{Value: 1})
			cur.IP += def.Len()
		case bytecode.OpPushNil:
			cur.push(value.NilValue)
			cur.IP += def.Len()
		case bytecode.OpPushTrue:
			cur.push(value.True)
			cur.IP += def.Len()
		case bytecode.OpPushFalse:
			cur.push(value.False)
			cur.IP += def.Len()

		case bytecode.OpDup:
			cur.push(cur.peek())
			cur.IP += def.Len()

		case bytecode.OpPop:
			cur.pop()
			cur.IP += def.Len()

		case bytecode.OpGoto:
			cur.IP = operands[0]

		case bytecode.OpGotoIfFalse:
			v := cur.pop()
			if !value.Truthy(v) {
				cur.IP = operands[0]
			} else {
				cur.IP += def.Len()
			}

		case bytecode.OpGotoIfNotFalse:
			v := cur.pop()
			if value.Truthy(v) {
				cur.IP = operands[0]
			} else {
				cur.IP += def.Len()
			}

		case bytecode.OpFixLexical:
			proc, ok := cur.peek().(*value.Procedure)
			if !ok {
				return nil, schemeerr.New(schemeerr.KindCompile, "fix_lexical found no procedure on top of stack")
			}
			clone := *proc
			clone.LexicalParent = cur.Env
			cur.Stack[len(cur.Stack)-1] = &clone
			cur.IP += def.Len()

		case bytecode.OpFixLexicalPop:
			proc, ok := cur.peek().(*value.Procedure)
			if !ok {
				return nil, schemeerr.New(schemeerr.KindCompile, "fix_lexical_pop found no procedure on top of stack")
			}
			proc.LexicalParent = cur.Env
			cur.IP += def.Len()

		case bytecode.OpFixLexicalDepth:
			proc, ok := cur.peek().(*value.Procedure)
			if !ok {
				return nil, schemeerr.New(schemeerr.KindCompile, "fix_lexical_depth found no procedure on top of stack")
			}
			clone := *proc
			clone.LexicalParent = cur.Env.AtDepth(operands[0])
			cur.Stack[len(cur.Stack)-1] = &clone
			cur.IP += def.Len()

		case bytecode.OpCall, bytecode.OpTailCall:
			argc := operands[0]
			callee := cur.pop()
			args := cur.popN(argc)
			cur.IP += def.Len()
			next, result, err := vm.makeCall(callee, args, op == bytecode.OpTailCall, cur)
			if err != nil {
				return nil, err
			}
			if next != nil {
				cur = next
			} else {
				cur.push(result)
			}

		case bytecode.OpCallCC:
			proc := cur.pop()
			cur.IP += def.Len()
			cont := &Continuation{template: cloneFrameChain(cur)}
			next, result, err := vm.makeCall(proc, []value.Value{cont}, false, cur)
			if err != nil {
				return nil, err
			}
			if next != nil {
				cur = next
			} else {
				cur.push(result)
			}

		case bytecode.OpRet:
			v := cur.pop()
			cur = cur.Parent
			cur.push(v)

		case bytecode.OpDynamicEval:
			sexpr := cur.pop()
			f, err := vm.compiler.Compile(sexpr, cur.Env)
			if err != nil {
				return nil, err
			}
			result, err := vm.runLoop(&Frame{Form: f, Env: cur.Env, Parent: &Frame{}})
			if err != nil {
				return nil, err
			}
			cur.push(result)
			cur.IP += def.Len()

		case bytecode.OpDynamicSetLocal:
			cur.Env.AssignLocal(operands[0], cur.pop())
			cur.IP += def.Len()

		case bytecode.OpDynamicSetLocalDepth:
			cur.Env.AtDepth(operands[0]).AssignLocal(operands[1], cur.pop())
			cur.IP += def.Len()

		default:
			return nil, schemeerr.New(schemeerr.KindCompile, "unimplemented opcode %d", op)
		}
	}
}

// makeCall routes a call site to its callee's implementation. It
// returns either a Frame the dispatch loop should switch to
// (Procedure and Continuation callees), or an immediate result value
// (Primitive callees never switch frames, so the interpreter stays in
// cur and simply pushes their return value).
func (vm *VM) makeCall(callee value.Value, args []value.Value, tail bool, cur *Frame) (next *Frame, result value.Value, err error) {
	switch c := callee.(type) {
	case *value.Procedure:
		if !c.CheckArity(len(args)) {
			return nil, nil, schemeerr.New(schemeerr.KindWrongArgNumber, "wrong number of arguments to %s", c.Inspect())
		}
		env := c.Env.Dup()
		env.Parent = c.LexicalParent
		for i := 0; i < c.FixedArgc; i++ {
			env.AssignLocal(i, args[i])
		}
		if c.RestArg {
			env.AssignLocal(c.FixedArgc, value.List(args[c.FixedArgc:]...))
		}
		nf := &Frame{Form: &c.Form, Env: env}
		if tail {
			nf.Parent = cur.Parent
		} else {
			nf.Parent = cur
		}
		nf.Depth = nf.Parent.Depth + 1
		if vm.MaxCallDepth > 0 && nf.Depth > vm.MaxCallDepth {
			return nil, nil, schemeerr.New(schemeerr.KindStackOverflow, "maximum call depth %d exceeded", vm.MaxCallDepth)
		}
		return nf, nil, nil

	case *value.Primitive:
		if !c.CheckArity(len(args)) {
			return nil, nil, schemeerr.New(schemeerr.KindWrongArgNumber, "wrong number of arguments to %s", c.Name)
		}
		res, err := c.Fn(vm, args)
		return nil, res, err

	case *Continuation:
		if len(args) > 1 {
			return nil, nil, schemeerr.New(schemeerr.KindWrongArgNumber, "continuation invoked with more than one argument")
		}
		resumed := cloneFrameChain(c.template)
		if len(args) == 1 {
			resumed.push(args[0])
		} else {
			resumed.push(value.NilValue)
		}
		return resumed, nil, nil

	default:
		return nil, nil, schemeerr.New(schemeerr.KindWrongArgType, "cannot call non-procedure: %s", callee.Inspect())
	}
}
