package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// nopProcedure returns a zero-argument procedure whose body just
// returns Nil, enough to exercise makeCall's frame-reparenting logic
// without going through the compiler.
func nopProcedure() *value.Procedure {
	ins := append(bytecode.Make(bytecode.OpPushNil), bytecode.Make(bytecode.OpRet)...)
	form := value.NewForm(ins, nil)
	env := value.NewEnvironment(nil)
	return &value.Procedure{Form: *form, Env: env}
}

func TestTailCallReparentsToCallersParent(t *testing.T) {
	vm := New()
	root := &Frame{}
	caller := &Frame{Parent: root}

	next, _, err := vm.makeCall(nopProcedure(), nil, true, caller)
	require.NoError(t, err)
	require.Same(t, root, next.Parent, "a tail call must reparent to the CALLER's parent, not the caller itself")
}

func TestNonTailCallParentsToCaller(t *testing.T) {
	vm := New()
	root := &Frame{}
	caller := &Frame{Parent: root}

	next, _, err := vm.makeCall(nopProcedure(), nil, false, caller)
	require.NoError(t, err)
	require.Same(t, caller, next.Parent, "a non-tail call must grow the frame chain through the caller")
}

func TestTailCallChainNeverGrowsAcrossManyIterations(t *testing.T) {
	vm := New()
	root := &Frame{}
	cur := &Frame{Parent: root}

	for i := 0; i < 1000; i++ {
		next, _, err := vm.makeCall(nopProcedure(), nil, true, cur)
		require.NoError(t, err)
		require.Same(t, root, next.Parent)
		cur = next
	}
}

func TestPrimitiveCallNeverIntroducesAFrame(t *testing.T) {
	vm := New()
	prim := &value.Primitive{
		Name:    "identity",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ any, args []value.Value) (value.Value, error) {
			return args[0], nil
		},
	}
	caller := &Frame{}
	next, result, err := vm.makeCall(prim, []value.Value{value.Int{Value: 42}}, false, caller)
	require.NoError(t, err)
	require.Nil(t, next, "a primitive call must not switch frames")
	require.Equal(t, value.Int{Value: 42}, result)
}

func TestCallCCInvokedTwiceResumesBothTimes(t *testing.T) {
	vm := New()
	root := &Frame{}
	caller := &Frame{Parent: root}
	cont := &Continuation{template: cloneFrameChain(caller)}

	first, _, err := vm.makeCall(cont, []value.Value{value.Int{Value: 1}}, false, caller)
	require.NoError(t, err)
	second, _, err := vm.makeCall(cont, []value.Value{value.Int{Value: 2}}, false, caller)
	require.NoError(t, err)

	require.Equal(t, value.Int{Value: 1}, first.peek())
	require.Equal(t, value.Int{Value: 2}, second.peek())
	require.Equal(t, 0, len(cont.template.Stack), "resuming a continuation must not mutate its template")
}

func TestWrongArgNumberOnArityMismatch(t *testing.T) {
	vm := New()
	ins := append(bytecode.Make(bytecode.OpPushLocal, 0), bytecode.Make(bytecode.OpRet)...)
	env := value.NewEnvironment(nil)
	env.Alloc("x")
	proc := &value.Procedure{Form: *value.NewForm(ins, nil), FixedArgc: 1, Argc: 1, Env: env}

	_, _, err := vm.makeCall(proc, nil, false, &Frame{})
	require.Error(t, err)
}

func TestCallingNonCallableIsWrongArgType(t *testing.T) {
	vm := New()
	_, _, err := vm.makeCall(value.Int{Value: 1}, nil, false, &Frame{})
	require.Error(t, err)
}

func TestMaxCallDepthLimitsNonTailRecursion(t *testing.T) {
	vm := New()
	vm.MaxCallDepth = 3
	cur := &Frame{}
	for i := 0; i < 3; i++ {
		next, _, err := vm.makeCall(nopProcedure(), nil, false, cur)
		require.NoError(t, err)
		cur = next
	}
	_, _, err := vm.makeCall(nopProcedure(), nil, false, cur)
	require.Error(t, err)
	require.True(t, schemeerr.Is(err, schemeerr.KindStackOverflow))
}

func TestMaxCallDepthDoesNotLimitTailCalls(t *testing.T) {
	vm := New()
	vm.MaxCallDepth = 1
	root := &Frame{}
	cur := &Frame{Parent: root, Depth: 1}
	for i := 0; i < 100; i++ {
		next, _, err := vm.makeCall(nopProcedure(), nil, true, cur)
		require.NoError(t, err)
		cur = next
	}
}

func TestZeroMaxCallDepthIsUnbounded(t *testing.T) {
	vm := New()
	cur := &Frame{}
	for i := 0; i < 100; i++ {
		next, _, err := vm.makeCall(nopProcedure(), nil, false, cur)
		require.NoError(t, err)
		cur = next
	}
}
