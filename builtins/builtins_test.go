package builtins

import (
	"testing"

	"github.com/dr8co/skime/value"
)

func call(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	p := GetByName(name)
	if p == nil {
		t.Fatalf("no builtin named %q", name)
	}
	v, err := p.Fn(nil, args)
	if err != nil {
		t.Fatalf("%s%v: %v", name, args, err)
	}
	return v
}

func mustErr(t *testing.T, name string, args ...value.Value) {
	t.Helper()
	p := GetByName(name)
	if p == nil {
		t.Fatalf("no builtin named %q", name)
	}
	if _, err := p.Fn(nil, args); err == nil {
		t.Fatalf("%s%v: expected an error", name, args)
	}
}

func i(v int64) value.Int     { return value.Int{Value: v} }
func f(v float64) value.Float { return value.Float{Value: v} }

func TestArithmetic(t *testing.T) {
	if got := call(t, "+", i(1), i(2), i(3)); !value.Equal(got, i(6)) {
		t.Errorf("(+ 1 2 3) = %v", got)
	}
	if got := call(t, "+"); !value.Equal(got, i(0)) {
		t.Errorf("(+) = %v", got)
	}
	if got := call(t, "-", i(3), i(2), i(1)); !value.Equal(got, i(0)) {
		t.Errorf("(- 3 2 1) = %v", got)
	}
	if got := call(t, "-", i(2)); !value.Equal(got, i(-2)) {
		t.Errorf("(- 2) = %v", got)
	}
	if got := call(t, "*"); !value.Equal(got, i(1)) {
		t.Errorf("(*) = %v", got)
	}
	if got := call(t, "/", i(6), i(3)); !value.Equal(got, i(2)) {
		t.Errorf("(/ 6 3) = %v", got)
	}
	if got := call(t, "/", f(2.0)); !value.Equal(got, f(0.5)) {
		t.Errorf("(/ 2.0) = %v", got)
	}
	mustErr(t, "+", i(1), value.Str{Value: "foo"})
}

func TestLogic(t *testing.T) {
	if got := call(t, "not", value.True); !value.Equal(got, value.False) {
		t.Errorf("(not #t) = %v", got)
	}
	if got := call(t, "not", i(0)); !value.Equal(got, value.False) {
		t.Errorf("(not 0) = %v", got)
	}
	if got := call(t, "not", value.NilValue); !value.Equal(got, value.False) {
		t.Errorf("(not '()) = %v", got)
	}
}

func TestPairs(t *testing.T) {
	p := call(t, "cons", i(1), i(2))
	if !value.Equal(p, value.Cons(i(1), i(2))) {
		t.Errorf("(cons 1 2) = %v", p)
	}
	if got := call(t, "car", p); !value.Equal(got, i(1)) {
		t.Errorf("(car (cons 1 2)) = %v", got)
	}
	if got := call(t, "cdr", p); !value.Equal(got, i(2)) {
		t.Errorf("(cdr (cons 1 2)) = %v", got)
	}
}

func TestPredicates(t *testing.T) {
	if got := call(t, "pair?", value.Cons(i(1), i(2))); !value.Equal(got, value.True) {
		t.Errorf("(pair? (cons 1 2)) = %v", got)
	}
	if got := call(t, "pair?", value.True); !value.Equal(got, value.False) {
		t.Errorf("(pair? #t) = %v", got)
	}
	if got := call(t, "number?", i(2)); !value.Equal(got, value.True) {
		t.Errorf("(number? 2) = %v", got)
	}
	if got := call(t, "string?", value.Str{Value: "foo"}); !value.Equal(got, value.True) {
		t.Errorf("(string? \"foo\") = %v", got)
	}
}
