package skime

import (
	"testing"

	"github.com/dr8co/skime/value"
)

func evalOrFatal(t *testing.T, src string) value.Value {
	t.Helper()
	v, err := New().Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v
}

func TestArithmeticApplication(t *testing.T) {
	got := evalOrFatal(t, "(+ 1 2 3)")
	if !value.Equal(got, value.Int{Value: 6}) {
		t.Errorf("(+ 1 2 3) = %s, want 6", got.Inspect())
	}
}

func TestBeginSequencing(t *testing.T) {
	got := evalOrFatal(t, "(begin (+ 1 2 3) (* 2 3 4))")
	if !value.Equal(got, value.Int{Value: 24}) {
		t.Errorf("begin result = %s, want 24", got.Inspect())
	}
}

func TestNonTailRecursiveFactorial(t *testing.T) {
	got := evalOrFatal(t, `(begin
		(define (fact n) (if (= n 1) 1 (* n (fact (- n 1)))))
		(fact 5))`)
	if !value.Equal(got, value.Int{Value: 120}) {
		t.Errorf("(fact 5) = %s, want 120", got.Inspect())
	}
}

func TestTailCallLoopDoesNotOverflow(t *testing.T) {
	got := evalOrFatal(t, `(begin
		(define (loop n) (if (= n 0) 'done (loop (- n 1))))
		(loop 100000))`)
	want := value.Sym("done")
	if !value.Equal(got, want) {
		t.Errorf("(loop 100000) = %s, want done", got.Inspect())
	}
}

func TestConsStructuralEquality(t *testing.T) {
	got := evalOrFatal(t, "(pair? (cons 1 2))")
	if !value.Equal(got, value.True) {
		t.Errorf("(pair? (cons 1 2)) = %s, want #t", got.Inspect())
	}
	pair := evalOrFatal(t, "(cons 1 2)")
	if !value.Equal(pair, value.Cons(value.Int{Value: 1}, value.Int{Value: 2})) {
		t.Errorf("(cons 1 2) = %s, want (1 . 2)", pair.Inspect())
	}
}

func TestSyntaxRulesWhenMacro(t *testing.T) {
	got := evalOrFatal(t, `(begin
		(define-syntax when
		  (syntax-rules ()
		    ((_ c e ...) (if c (begin e ...) '()))))
		(when #t 1 2 3))`)
	if !value.Equal(got, value.Int{Value: 3}) {
		t.Errorf("(when #t 1 2 3) = %s, want 3", got.Inspect())
	}
}

func TestTruthiness(t *testing.T) {
	cases := map[string]value.Value{
		"(not 0)":   value.False,
		"(not '())": value.False,
		"(not #f)":  value.True,
		"(if 0 'yes 'no)": value.Sym("yes"),
	}
	for src, want := range cases {
		got := evalOrFatal(t, src)
		if !value.Equal(got, want) {
			t.Errorf("%s = %s, want %s", src, got.Inspect(), want.Inspect())
		}
	}
}

func TestCallCCEscapesEarly(t *testing.T) {
	got := evalOrFatal(t, `(+ 1 (call/cc (lambda (k) (+ 2 (k 10)))))`)
	if !value.Equal(got, value.Int{Value: 11}) {
		t.Errorf("call/cc escape = %s, want 11", got.Inspect())
	}
}

func TestClosureCapturesLexicalEnvironment(t *testing.T) {
	got := evalOrFatal(t, `(begin
		(define (make-adder n) (lambda (x) (+ x n)))
		(define add5 (make-adder 5))
		(add5 10))`)
	if !value.Equal(got, value.Int{Value: 15}) {
		t.Errorf("closure result = %s, want 15", got.Inspect())
	}
}

func TestUnboundVariableIsAnError(t *testing.T) {
	if _, err := New().Eval("(+ 1 never-defined)"); err == nil {
		t.Fatal("expected an unbound-variable error")
	}
}

func TestMacroDefinedAcrossTopLevelForms(t *testing.T) {
	in := New()
	if _, err := in.Eval(`(define-syntax unless
		(syntax-rules ()
		  ((_ c e) (if c '() e))))`); err != nil {
		t.Fatalf("define-syntax: %v", err)
	}
	got, err := in.Eval("(unless #f 42)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !value.Equal(got, value.Int{Value: 42}) {
		t.Errorf("(unless #f 42) = %s, want 42", got.Inspect())
	}
}
