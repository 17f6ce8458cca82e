package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/value"
)

func TestLiteralInterningIsTypeSensitive(t *testing.T) {
	env := value.NewEnvironment(nil)
	b := newBuilder(env)

	intIdx := b.internLiteral(value.Int{Value: 42})
	floatIdx := b.internLiteral(value.Float{Value: 42})
	require.NotEqual(t, intIdx, floatIdx, "42 and 42.0 must not share a literal slot")

	again := b.internLiteral(value.Int{Value: 42})
	require.Equal(t, intIdx, again, "two equal Ints of the same type must share a slot")
}

func TestEmitLocalReadResolvesDepthAndIndex(t *testing.T) {
	outer := value.NewEnvironment(nil)
	outer.Alloc("x")
	inner := value.NewEnvironment(outer)
	inner.Alloc("y")

	b := newBuilder(inner)
	require.NoError(t, b.emitLocalRead("y"))
	require.Equal(t, bytecode.OpPushLocal, bytecode.Opcode(b.Instructions[0]))

	require.NoError(t, b.emitLocalRead("x"))
	depthInsStart := 2 // push_local idx is 2 cells; depth form starts right after
	require.Equal(t, bytecode.OpPushLocalDepth, bytecode.Opcode(b.Instructions[depthInsStart]))
}

func TestEmitLocalReadUnboundIsAnError(t *testing.T) {
	env := value.NewEnvironment(nil)
	b := newBuilder(env)
	err := b.emitLocalRead("never-defined")
	require.Error(t, err)
}

func TestPeepholeSpecializesZeroOneNilBooleans(t *testing.T) {
	env := value.NewEnvironment(nil)
	b := newBuilder(env)

	b.emitPushLiteral(value.Int{Value: 0})
	b.emitPushLiteral(value.Int{Value: 1})
	b.emitPushLiteral(value.NilValue)
	b.emitPushLiteral(value.True)
	b.emitPushLiteral(value.False)

	want := []bytecode.Opcode{
		bytecode.OpPush0, bytecode.OpPush1, bytecode.OpPushNil, bytecode.OpPushTrue, bytecode.OpPushFalse,
	}
	require.Equal(t, len(want), len(b.Instructions), "each peephole opcode here is zero-operand, one cell each")
	for i, op := range want {
		require.Equal(t, op, bytecode.Opcode(b.Instructions[i]))
	}
}

func TestPeepholeDoesNotConfuseBooleanWithInteger(t *testing.T) {
	env := value.NewEnvironment(nil)
	b := newBuilder(env)
	b.emitPushLiteral(value.True)
	require.Equal(t, bytecode.OpPushTrue, bytecode.Opcode(b.Instructions[0]),
		"a boolean literal must never be emitted as push_1/push_0 even though true==1 in some hosts")
}

func TestCompileTailApplicationEmitsTailCall(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	env.Alloc("f")
	form, err := c.Compile(value.List(value.Sym("f"), value.Int{Value: 1}), env)
	require.NoError(t, err)

	foundTailCall := false
	for i := 0; i < len(form.Instructions); {
		def, err := bytecode.Lookup(bytecode.Opcode(form.Instructions[i]))
		require.NoError(t, err)
		if bytecode.Opcode(form.Instructions[i]) == bytecode.OpTailCall {
			foundTailCall = true
		}
		i += def.Len()
	}
	require.True(t, foundTailCall, "an expression in tail position must compile to tail_call")
}

func TestCompileCallEvaluatesArgsBeforeCallee(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	b := newBuilder(env)
	form := value.List(value.List(value.Sym("quote"), value.Int{Value: 100}), value.Int{Value: 200})
	err := c.compileCall(b, form.(*value.Pair), env, false)
	require.NoError(t, err)
	// The argument (200) must be interned before the callee expression's
	// literal (100): arguments evaluate left-to-right before the callee.
	require.Equal(t, value.Int{Value: 200}, b.Literals[0])
	require.Equal(t, value.Int{Value: 100}, b.Literals[1])
}

func TestCompileNonKeptIfSkipsPushingValues(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	b := newBuilder(env)
	err := c.compileExpr(b, value.List(value.Sym("if"), value.True, value.Int{Value: 1}, value.Int{Value: 2}), env, false)
	require.NoError(t, err)
}

func TestDefineSyntaxThenUseInSameCompilationUnit(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	src := value.List(
		value.Sym("begin"),
		value.List(value.Sym("define-syntax"), value.Sym("twice"),
			value.List(value.Sym("syntax-rules"), value.NilValue,
				value.List(value.List(value.Sym("_"), value.Sym("e")), value.List(value.Sym("begin"), value.Sym("e"), value.Sym("e"))))),
		value.List(value.Sym("twice"), value.Int{Value: 7}),
	)
	_, err := c.Compile(src, env)
	require.NoError(t, err)
	_, ok := lookupMacro(env, "twice")
	require.True(t, ok, "define-syntax must bind the macro into env like any other local")
}

func TestMacroExpansionOnlyAttemptedWhenHeadIsAMacro(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	env.Alloc("list")
	_, err := c.Compile(value.List(value.Sym("list"), value.Int{Value: 1}, value.Int{Value: 2}), env)
	require.NoError(t, err)
	_, ok := lookupMacro(env, "list")
	require.False(t, ok, "a local bound to a non-macro value must not be treated as a macro")
}

func TestLambdaParameterShadowsOuterMacro(t *testing.T) {
	c := New()
	env := value.NewEnvironment(nil)
	src := value.List(
		value.Sym("begin"),
		value.List(value.Sym("define-syntax"), value.Sym("dbl"),
			value.List(value.Sym("syntax-rules"), value.NilValue,
				value.List(value.List(value.Sym("_"), value.Sym("x")), value.List(value.Sym("+"), value.Sym("x"), value.Sym("x"))))),
		value.List(value.Sym("lambda"), value.List(value.Sym("dbl")),
			value.List(value.Sym("dbl"), value.Int{Value: 1}, value.Int{Value: 2})),
	)
	_, err := c.Compile(src, env)
	require.NoError(t, err, "a lambda parameter must shadow an outer-scope macro of the same name, "+
		"so (dbl 1 2) compiles as a two-argument call rather than a macro expansion")
}
