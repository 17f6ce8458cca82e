package compiler

import (
	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/macro"
	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// Compiler turns s-expressions into value.Form/value.Procedure
// bytecode. It carries no state of its own: define-syntax binds each
// macro into the environment it is compiled against, exactly like an
// ordinary local, so macro visibility and shadowing follow the same
// lexical scoping rules as variables.
type Compiler struct{}

// New creates a Compiler.
func New() *Compiler {
	return &Compiler{}
}

func unboundErr(name string) error {
	return schemeerr.New(schemeerr.KindUnboundVariable, "unbound variable: %s", name)
}

func syntaxErr(format string, args ...any) error {
	return schemeerr.New(schemeerr.KindSyntax, format, args...)
}

// Compile compiles a single top-level expression against env, which
// must already hold every binding the expression's free variables
// resolve to (the caller — typically the REPL driver — Allocs global
// names into env before compiling code that references them).
func (c *Compiler) Compile(expr value.Value, env *value.Environment) (*value.Form, error) {
	b := newBuilder(env)
	if err := c.compileExpr(b, expr, env, true); err != nil {
		return nil, err
	}
	b.emit(bytecode.OpRet)
	return value.NewForm(b.Instructions, b.Literals), nil
}

// compileExpr compiles expr so that, once run, it leaves exactly one
// value on the stack. tail reports whether expr is in tail position
// within its enclosing procedure body — compileCall uses this to
// choose tail_call over call, the sole mechanism behind this core's
// tail-call elimination.
func (c *Compiler) compileExpr(b *Builder, expr value.Value, env *value.Environment, tail bool) error {
	switch e := expr.(type) {
	case *value.Symbol:
		return b.emitLocalRead(e.Name)
	case *value.Pair:
		return c.compilePair(b, e, env, tail)
	case nil:
		return syntaxErr("cannot compile a nil expression")
	default:
		// Self-evaluating atom: Nil, Bool, Int, Float, Complex, Str.
		b.emitPushLiteral(e)
		return nil
	}
}

func (c *Compiler) compilePair(b *Builder, form *value.Pair, env *value.Environment, tail bool) error {
	if sym, ok := form.Car.(*value.Symbol); ok {
		switch sym.Name {
		case "quote":
			return c.compileQuote(b, form.Cdr)
		case "if":
			return c.compileIf(b, form.Cdr, env, tail)
		case "lambda":
			return c.compileLambda(b, form.Cdr, env)
		case "define":
			return c.compileDefine(b, form.Cdr, env)
		case "set!":
			return c.compileSetBang(b, form.Cdr, env)
		case "begin":
			return c.compileBegin(b, form.Cdr, env, tail)
		case "or":
			return c.compileOr(b, form.Cdr, env, tail)
		case "and":
			return c.compileAnd(b, form.Cdr, env, tail)
		case "define-syntax":
			return c.compileDefineSyntax(b, form.Cdr, env)
		case "call/cc", "call-with-current-continuation":
			return c.compileCallCC(b, form.Cdr, env)
		}
		if m, ok := lookupMacro(env, sym.Name); ok {
			expanded, err := m.Expand(form)
			if err != nil {
				return err
			}
			return c.compileExpr(b, expanded, env, tail)
		}
	}
	return c.compileCall(b, form, env, tail)
}

// lookupMacro walks env's parent chain exactly like variable
// resolution, returning the *macro.Macro bound at name if that is what
// occupies the slot — a local of any other value type (a lambda
// parameter, say) shadows a macro defined further out, just as it
// would shadow an outer variable.
func lookupMacro(env *value.Environment, name string) (*macro.Macro, bool) {
	depth, idx, ok := env.FindDepth(name)
	if !ok {
		return nil, false
	}
	m, ok := env.AtDepth(depth).ReadLocal(idx).(*macro.Macro)
	return m, ok
}

func (c *Compiler) compileQuote(b *Builder, args value.Value) error {
	elems, ok := value.ToSlice(args)
	if !ok || len(elems) != 1 {
		return syntaxErr("quote requires exactly one argument")
	}
	b.emitPushLiteral(elems[0])
	return nil
}

func (c *Compiler) compileIf(b *Builder, args value.Value, env *value.Environment, tail bool) error {
	elems, ok := value.ToSlice(args)
	if !ok || (len(elems) != 2 && len(elems) != 3) {
		return syntaxErr("if requires a condition, a then-branch, and an optional else-branch")
	}
	if err := c.compileExpr(b, elems[0], env, false); err != nil {
		return err
	}
	falseJump := b.emit(bytecode.OpGotoIfFalse, 0)
	if err := c.compileExpr(b, elems[1], env, tail); err != nil {
		return err
	}
	if len(elems) == 2 {
		endJump := b.emit(bytecode.OpGoto, 0)
		b.changeOperand(falseJump, b.here())
		b.emit(bytecode.OpPushNil)
		b.changeOperand(endJump, b.here())
		return nil
	}
	endJump := b.emit(bytecode.OpGoto, 0)
	b.changeOperand(falseJump, b.here())
	if err := c.compileExpr(b, elems[2], env, tail); err != nil {
		return err
	}
	b.changeOperand(endJump, b.here())
	return nil
}

// compileOr compiles (or e1 e2 ...) as a chain of goto_if_not_false
// short-circuits: each operand but the last is evaluated and left on
// the stack if truthy, otherwise popped so the next is tried; an empty
// (or) is false.
func (c *Compiler) compileOr(b *Builder, args value.Value, env *value.Environment, tail bool) error {
	elems, ok := value.ToSlice(args)
	if !ok {
		return syntaxErr("or requires a proper list of operands")
	}
	if len(elems) == 0 {
		b.emitPushLiteral(value.False)
		return nil
	}
	var endJumps []int
	for i, e := range elems {
		last := i == len(elems)-1
		if err := c.compileExpr(b, e, env, last && tail); err != nil {
			return err
		}
		if !last {
			b.emit(bytecode.OpDup)
			jump := b.emit(bytecode.OpGotoIfNotFalse, 0)
			endJumps = append(endJumps, jump)
			b.emit(bytecode.OpPop)
		}
	}
	for _, j := range endJumps {
		b.changeOperand(j, b.here())
	}
	return nil
}

// compileAnd compiles (and e1 e2 ...) symmetrically to compileOr: the
// first falsy operand short-circuits the rest; an empty (and) is true.
func (c *Compiler) compileAnd(b *Builder, args value.Value, env *value.Environment, tail bool) error {
	elems, ok := value.ToSlice(args)
	if !ok {
		return syntaxErr("and requires a proper list of operands")
	}
	if len(elems) == 0 {
		b.emitPushLiteral(value.True)
		return nil
	}
	var endJumps []int
	for i, e := range elems {
		last := i == len(elems)-1
		if err := c.compileExpr(b, e, env, last && tail); err != nil {
			return err
		}
		if !last {
			b.emit(bytecode.OpDup)
			jump := b.emit(bytecode.OpGotoIfFalse, 0)
			endJumps = append(endJumps, jump)
			b.emit(bytecode.OpPop)
		}
	}
	for _, j := range endJumps {
		b.changeOperand(j, b.here())
	}
	return nil
}

func (c *Compiler) compileBegin(b *Builder, args value.Value, env *value.Environment, tail bool) error {
	elems, ok := value.ToSlice(args)
	if !ok {
		return syntaxErr("begin requires a proper list of expressions")
	}
	if len(elems) == 0 {
		b.emitPushLiteral(value.NilValue)
		return nil
	}
	for i, e := range elems {
		last := i == len(elems)-1
		if err := c.compileExpr(b, e, env, last && tail); err != nil {
			return err
		}
		if !last {
			b.emit(bytecode.OpPop)
		}
	}
	return nil
}

// compileDefine handles both (define name expr) and the lambda-sugar
// form (define (name . formals) body...).
func (c *Compiler) compileDefine(b *Builder, args value.Value, env *value.Environment) error {
	elems, ok := value.ToSlice(args)
	if !ok || len(elems) == 0 {
		return syntaxErr("define requires a target and a value")
	}
	if header, ok := elems[0].(*value.Pair); ok {
		nameSym, ok := header.Car.(*value.Symbol)
		if !ok {
			return syntaxErr("define procedure target must be a symbol")
		}
		idx := env.Alloc(nameSym.Name)
		lambdaArgs := value.Cons(header.Cdr, value.List(elems[1:]...))
		proc, err := c.buildLambda(lambdaArgs, env)
		if err != nil {
			return err
		}
		b.pushProc(proc)
		b.emit(bytecode.OpSetLocal, idx)
		b.emitPushLiteral(value.NilValue)
		return nil
	}
	nameSym, ok := elems[0].(*value.Symbol)
	if !ok {
		return syntaxErr("define target must be a symbol")
	}
	if len(elems) != 2 {
		return syntaxErr("define requires exactly one value expression")
	}
	idx := env.Alloc(nameSym.Name)
	if err := c.compileExpr(b, elems[1], env, false); err != nil {
		return err
	}
	b.emit(bytecode.OpSetLocal, idx)
	b.emitPushLiteral(value.NilValue)
	return nil
}

func (c *Compiler) compileSetBang(b *Builder, args value.Value, env *value.Environment) error {
	elems, ok := value.ToSlice(args)
	if !ok || len(elems) != 2 {
		return syntaxErr("set! requires a target and a value")
	}
	nameSym, ok := elems[0].(*value.Symbol)
	if !ok {
		return syntaxErr("set! target must be a symbol")
	}
	if err := c.compileExpr(b, elems[1], env, false); err != nil {
		return err
	}
	if err := b.emitLocalWrite(nameSym.Name); err != nil {
		return err
	}
	b.emitPushLiteral(value.NilValue)
	return nil
}

// compileDefineSyntax allocates a local slot for name in env and
// assigns the compiled macro to it immediately, the same way
// compileDefine handles an ordinary binding — so a macro is usable
// (including recursively) within the rest of the compilation unit that
// defines it, and is shadowed by any inner binding of the same name
// exactly like a variable would be.
func (c *Compiler) compileDefineSyntax(b *Builder, args value.Value, env *value.Environment) error {
	elems, ok := value.ToSlice(args)
	if !ok || len(elems) != 2 {
		return syntaxErr("define-syntax requires a name and a syntax-rules form")
	}
	nameSym, ok := elems[0].(*value.Symbol)
	if !ok {
		return syntaxErr("define-syntax target must be a symbol")
	}
	srForm, ok := elems[1].(*value.Pair)
	if !ok {
		return syntaxErr("define-syntax requires a syntax-rules form")
	}
	kw, ok := srForm.Car.(*value.Symbol)
	if !ok || kw.Name != "syntax-rules" {
		return syntaxErr("define-syntax only supports syntax-rules")
	}
	m, err := macro.New(srForm.Cdr)
	if err != nil {
		return err
	}
	idx := env.Alloc(nameSym.Name)
	env.AssignLocal(idx, m)
	b.emitPushLiteral(value.NilValue)
	return nil
}

func (c *Compiler) compileCallCC(b *Builder, args value.Value, env *value.Environment) error {
	elems, ok := value.ToSlice(args)
	if !ok || len(elems) != 1 {
		return syntaxErr("call/cc requires exactly one procedure argument")
	}
	if err := c.compileExpr(b, elems[0], env, false); err != nil {
		return err
	}
	b.emit(bytecode.OpCallCC)
	return nil
}

func (c *Compiler) compileCall(b *Builder, form *value.Pair, env *value.Environment, tail bool) error {
	elems, ok := value.ToSlice(form)
	if !ok {
		return syntaxErr("a procedure call must be a proper list")
	}
	if len(elems) == 0 {
		return syntaxErr("cannot call an empty list")
	}
	for _, arg := range elems[1:] {
		if err := c.compileExpr(b, arg, env, false); err != nil {
			return err
		}
	}
	if err := c.compileExpr(b, elems[0], env, false); err != nil {
		return err
	}
	argc := len(elems) - 1
	if tail {
		b.emit(bytecode.OpTailCall, argc)
	} else {
		b.emit(bytecode.OpCall, argc)
	}
	return nil
}

// buildLambda compiles args — a (formals body...) list, exactly the
// cdr of a `lambda` form — into a *value.Procedure. It is shared by
// compileLambda and compileDefine's (define (name . formals) body...)
// sugar.
func (c *Compiler) buildLambda(args value.Value, env *value.Environment) (*value.Procedure, error) {
	pair, ok := args.(*value.Pair)
	if !ok {
		return nil, syntaxErr("lambda requires a formals list and a body")
	}
	bodyEnv := value.NewEnvironment(env)
	fixedArgc, restArg, err := allocFormals(bodyEnv, pair.Car)
	if err != nil {
		return nil, err
	}
	argc := fixedArgc
	if restArg {
		argc++
	}

	bodyElems, ok := value.ToSlice(pair.Cdr)
	if !ok || len(bodyElems) == 0 {
		return nil, syntaxErr("lambda body must be a non-empty proper list")
	}
	bb := newBuilder(bodyEnv)
	for i, e := range bodyElems {
		last := i == len(bodyElems)-1
		if err := c.compileExpr(bb, e, bodyEnv, last); err != nil {
			return nil, err
		}
		if !last {
			bb.emit(bytecode.OpPop)
		}
	}
	bb.emit(bytecode.OpRet)

	form := value.NewForm(bb.Instructions, bb.Literals)
	return &value.Procedure{
		Form:      *form,
		FixedArgc: fixedArgc,
		Argc:      argc,
		RestArg:   restArg,
		Env:       bodyEnv,
	}, nil
}

func (c *Compiler) compileLambda(b *Builder, args value.Value, env *value.Environment) error {
	proc, err := c.buildLambda(args, env)
	if err != nil {
		return err
	}
	b.pushProc(proc)
	return nil
}

// allocFormals allocates one environment slot per formal parameter, in
// order, returning the fixed parameter count and whether the formals
// list ends in a rest parameter: `(a b)` (fixed only), `(a b . rest)`
// (fixed plus rest), or a bare symbol `args` (rest only, fixedArgc 0).
func allocFormals(env *value.Environment, formals value.Value) (fixedArgc int, restArg bool, err error) {
	cur := formals
	for {
		switch f := cur.(type) {
		case value.Nil:
			return fixedArgc, false, nil
		case *value.Symbol:
			env.Alloc(f.Name)
			return fixedArgc, true, nil
		case *value.Pair:
			sym, ok := f.Car.(*value.Symbol)
			if !ok {
				return 0, false, syntaxErr("lambda formal must be a symbol")
			}
			env.Alloc(sym.Name)
			fixedArgc++
			cur = f.Cdr
		default:
			return 0, false, syntaxErr("malformed lambda formals list")
		}
	}
}
