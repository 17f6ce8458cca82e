// Package builtins is the reference primitive library plugged into a
// vm.VM's global environment: arithmetic, pair/list operations, type
// predicates, and minimal I/O. It is an external collaborator to the
// compiler/VM core exactly as spec.md describes — the core treats a
// Primitive as an opaque callable and never imports this package.
//
// The table shape (a slice of {Name, definition} pairs plus a
// GetByName lookup) is grounded on the teacher's object/builtins.go;
// the function surface and names are grounded on
// original_source/tests/test_primitive.py, the original engine's own
// primitive-library test suite.
package builtins

import (
	"fmt"
	"io"
	"os"

	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// applier is the subset of vm.VM this package needs to implement
// higher-order primitives (apply, map, for-each) without importing
// package vm: *vm.VM satisfies it structurally, and this package
// depends only on value and schemeerr.
type applier interface {
	Apply(proc value.Value, args []value.Value) (value.Value, error)
}

// Def is one named primitive definition, installed into an
// environment slot by Install.
type Def struct {
	Name string
	Prim *value.Primitive
}

// Stdout is where display and newline write; it can be replaced with
// an in-memory buffer so primitive output can be inspected without
// capturing the process's real stdout.
var Stdout io.Writer = os.Stdout

func wrongType(name string, v value.Value) error {
	return schemeerr.New(schemeerr.KindWrongArgType, "%s: argument not supported: %s", name, v.Inspect())
}

func newPrim(name string, minArgs, maxArgs int, fn value.PrimitiveFunc) Def {
	return Def{Name: name, Prim: &value.Primitive{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Fn: fn}}
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n.Value), true
	case value.Float:
		return n.Value, true
	}
	return 0, false
}

// numericBinOp reduces args pairwise with intOp when every argument is
// an exact Int, falling back to floatOp (promoting every argument to
// float64) the moment any argument is inexact or a non-number is
// rejected with WrongArgType.
func numericBinOp(name string, args []value.Value, identity int64, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (value.Value, error) {
	allInt := true
	for _, a := range args {
		if _, ok := a.(value.Int); !ok {
			allInt = false
			break
		}
		if _, ok := a.(value.Float); ok {
			allInt = false
		}
	}
	for _, a := range args {
		if _, ok := asFloat(a); !ok {
			return nil, wrongType(name, a)
		}
	}

	if allInt {
		acc := identity
		for i, a := range args {
			n := a.(value.Int).Value
			if i == 0 && len(args) > 1 {
				acc = n
				continue
			}
			acc = intOp(acc, n)
		}
		if len(args) == 0 {
			return value.Int{Value: identity}, nil
		}
		return value.Int{Value: acc}, nil
	}

	accF := float64(identity)
	for i, a := range args {
		f, _ := asFloat(a)
		if i == 0 && len(args) > 1 {
			accF = f
			continue
		}
		accF = floatOp(accF, f)
	}
	if len(args) == 0 {
		return value.Float{Value: float64(identity)}, nil
	}
	return value.Float{Value: accF}, nil
}

func primAdd(_ any, args []value.Value) (value.Value, error) {
	return numericBinOp("+", args, 0, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func primSub(_ any, args []value.Value) (value.Value, error) {
	if len(args) == 1 {
		switch n := args[0].(type) {
		case value.Int:
			return value.Int{Value: -n.Value}, nil
		case value.Float:
			return value.Float{Value: -n.Value}, nil
		default:
			return nil, wrongType("-", args[0])
		}
	}
	return numericBinOp("-", args, 0, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func primMul(_ any, args []value.Value) (value.Value, error) {
	return numericBinOp("*", args, 1, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func primDiv(_ any, args []value.Value) (value.Value, error) {
	if len(args) == 1 {
		switch n := args[0].(type) {
		case value.Int:
			if n.Value == 0 {
				return nil, schemeerr.New(schemeerr.KindWrongArgType, "/: division by zero")
			}
			return value.Int{Value: 1 / n.Value}, nil
		case value.Float:
			return value.Float{Value: 1 / n.Value}, nil
		default:
			return nil, wrongType("/", args[0])
		}
	}
	allInt := true
	for _, a := range args {
		if _, ok := a.(value.Float); ok {
			allInt = false
		}
		if _, ok := asFloat(a); !ok {
			return nil, wrongType("/", a)
		}
	}
	if allInt {
		acc := args[0].(value.Int).Value
		for _, a := range args[1:] {
			n := a.(value.Int).Value
			if n == 0 {
				return nil, schemeerr.New(schemeerr.KindWrongArgType, "/: division by zero")
			}
			acc /= n
		}
		return value.Int{Value: acc}, nil
	}
	acc, _ := asFloat(args[0])
	for _, a := range args[1:] {
		f, _ := asFloat(a)
		acc /= f
	}
	return value.Float{Value: acc}, nil
}

func compareChain(name string, args []value.Value, ok func(a, b float64) bool) (value.Value, error) {
	for i := 0; i+1 < len(args); i++ {
		a, aok := asFloat(args[i])
		b, bok := asFloat(args[i+1])
		if !aok {
			return nil, wrongType(name, args[i])
		}
		if !bok {
			return nil, wrongType(name, args[i+1])
		}
		if !ok(a, b) {
			return value.False, nil
		}
	}
	return value.True, nil
}

func primNumEq(_ any, args []value.Value) (value.Value, error) {
	return compareChain("=", args, func(a, b float64) bool { return a == b })
}

func primLt(_ any, args []value.Value) (value.Value, error) {
	return compareChain("<", args, func(a, b float64) bool { return a < b })
}

func primGt(_ any, args []value.Value) (value.Value, error) {
	return compareChain(">", args, func(a, b float64) bool { return a > b })
}

func primNot(_ any, args []value.Value) (value.Value, error) {
	return value.Bool{Value: !value.Truthy(args[0])}, nil
}

func primCons(_ any, args []value.Value) (value.Value, error) {
	return value.Cons(args[0], args[1]), nil
}

func primCar(_ any, args []value.Value) (value.Value, error) {
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, wrongType("car", args[0])
	}
	return p.Car, nil
}

func primCdr(_ any, args []value.Value) (value.Value, error) {
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, wrongType("cdr", args[0])
	}
	return p.Cdr, nil
}

func primSetCar(_ any, args []value.Value) (value.Value, error) {
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, wrongType("set-car!", args[0])
	}
	p.Car = args[1]
	return value.NilValue, nil
}

func primSetCdr(_ any, args []value.Value) (value.Value, error) {
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, wrongType("set-cdr!", args[0])
	}
	p.Cdr = args[1]
	return value.NilValue, nil
}

func primList(_ any, args []value.Value) (value.Value, error) {
	return value.List(args...), nil
}

func typePredicate(pred func(value.Value) bool) value.PrimitiveFunc {
	return func(_ any, args []value.Value) (value.Value, error) {
		return value.Bool{Value: pred(args[0])}, nil
	}
}

func primDisplay(_ any, args []value.Value) (value.Value, error) {
	if s, ok := args[0].(value.Str); ok {
		fmt.Fprint(Stdout, s.Value)
	} else {
		fmt.Fprint(Stdout, args[0].Inspect())
	}
	return value.NilValue, nil
}

func primNewline(_ any, _ []value.Value) (value.Value, error) {
	fmt.Fprintln(Stdout)
	return value.NilValue, nil
}

func primApply(vm any, args []value.Value) (value.Value, error) {
	a, ok := vm.(applier)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "apply: host does not support procedure application")
	}
	elems, ok := value.ToSlice(args[len(args)-1])
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "apply: final argument must be a proper list")
	}
	callArgs := append(append([]value.Value{}, args[1:len(args)-1]...), elems...)
	return a.Apply(args[0], callArgs)
}

func primMap(vm any, args []value.Value) (value.Value, error) {
	a, ok := vm.(applier)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "map: host does not support procedure application")
	}
	elems, ok := value.ToSlice(args[1])
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "map: second argument must be a proper list")
	}
	results := make([]value.Value, len(elems))
	for i, e := range elems {
		r, err := a.Apply(args[0], []value.Value{e})
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return value.List(results...), nil
}

func primForEach(vm any, args []value.Value) (value.Value, error) {
	a, ok := vm.(applier)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "for-each: host does not support procedure application")
	}
	elems, ok := value.ToSlice(args[1])
	if !ok {
		return nil, schemeerr.New(schemeerr.KindWrongArgType, "for-each: second argument must be a proper list")
	}
	for _, e := range elems {
		if _, err := a.Apply(args[0], []value.Value{e}); err != nil {
			return nil, err
		}
	}
	return value.NilValue, nil
}

func isNumber(v value.Value) bool {
	switch v.(type) {
	case value.Int, value.Float, value.Complex:
		return true
	}
	return false
}

func isProcedure(v value.Value) bool {
	switch v.(type) {
	case *value.Procedure, *value.Primitive:
		return true
	}
	if v == nil {
		return false
	}
	return v.Type() == value.TypeContinuation
}

// Builtins is the full reference primitive table, in the order
// Install binds them.
var Builtins = []Def{
	newPrim("+", 0, -1, primAdd),
	newPrim("-", 1, -1, primSub),
	newPrim("*", 0, -1, primMul),
	newPrim("/", 1, -1, primDiv),
	newPrim("=", 2, -1, primNumEq),
	newPrim("<", 2, -1, primLt),
	newPrim(">", 2, -1, primGt),
	newPrim("not", 1, 1, primNot),

	newPrim("cons", 2, 2, primCons),
	newPrim("pair", 2, 2, primCons),
	newPrim("car", 1, 1, primCar),
	newPrim("first", 1, 1, primCar),
	newPrim("cdr", 1, 1, primCdr),
	newPrim("rest", 1, 1, primCdr),
	newPrim("set-car!", 2, 2, primSetCar),
	newPrim("set-cdr!", 2, 2, primSetCdr),
	newPrim("list", 0, -1, primList),

	newPrim("boolean?", 1, 1, typePredicate(func(v value.Value) bool { return v.Type() == value.TypeBool })),
	newPrim("symbol?", 1, 1, typePredicate(func(v value.Value) bool { return v.Type() == value.TypeSymbol })),
	newPrim("string?", 1, 1, typePredicate(func(v value.Value) bool { return v.Type() == value.TypeStr })),
	newPrim("number?", 1, 1, typePredicate(isNumber)),
	newPrim("pair?", 1, 1, typePredicate(func(v value.Value) bool { return v.Type() == value.TypePair })),
	newPrim("null?", 1, 1, typePredicate(func(v value.Value) bool { return v.Type() == value.TypeNil })),
	newPrim("procedure?", 1, 1, typePredicate(isProcedure)),

	newPrim("display", 1, 1, primDisplay),
	newPrim("newline", 0, 0, primNewline),

	newPrim("apply", 2, -1, primApply),
	newPrim("map", 2, 2, primMap),
	newPrim("for-each", 2, 2, primForEach),
}

// GetByName retrieves a built-in definition by name, or nil if none
// exists.
func GetByName(name string) *value.Primitive {
	for _, def := range Builtins {
		if def.Name == name {
			return def.Prim
		}
	}
	return nil
}

// Install allocates one environment slot per built-in in env and binds
// it to the corresponding Primitive. It is typically called once on
// the VM's global environment before compiling or running anything.
func Install(env *value.Environment) {
	for _, def := range Builtins {
		idx := env.Alloc(def.Name)
		env.AssignLocal(idx, def.Prim)
	}
}
