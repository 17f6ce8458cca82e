package macro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dr8co/skime/value"
)

func mustNew(t *testing.T, body value.Value) *Macro {
	t.Helper()
	m, err := New(body)
	require.NoError(t, err)
	return m
}

// syntaxRulesBody builds (literals (pattern template)...) the way
// define-syntax hands it to macro.New.
func syntaxRulesBody(literals []value.Value, rules ...value.Value) value.Value {
	return value.Cons(value.List(literals...), value.List(rules...))
}

func TestSimpleSubstitutionMacro(t *testing.T) {
	// (define-syntax double (syntax-rules () ((_ x) (+ x x))))
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"), value.Sym("x")),
			value.List(value.Sym("+"), value.Sym("x"), value.Sym("x")),
		),
	)
	m := mustNew(t, body)
	expanded, err := m.Expand(value.List(value.Sym("double"), value.Int{Value: 5}))
	require.NoError(t, err)
	want := value.List(value.Sym("+"), value.Int{Value: 5}, value.Int{Value: 5})
	require.True(t, value.Equal(expanded, want), "got %s want %s", expanded.Inspect(), want.Inspect())
}

func TestEllipsisCollectsZeroOrMoreArguments(t *testing.T) {
	// (define-syntax my-list (syntax-rules () ((_ e ...) (list e ...))))
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"), value.Sym("e"), value.Sym("...")),
			value.List(value.Sym("list"), value.Sym("e"), value.Sym("...")),
		),
	)
	m := mustNew(t, body)
	expanded, err := m.Expand(value.List(value.Sym("my-list"), value.Int{Value: 1}, value.Int{Value: 2}, value.Int{Value: 3}))
	require.NoError(t, err)
	want := value.List(value.Sym("list"), value.Int{Value: 1}, value.Int{Value: 2}, value.Int{Value: 3})
	require.True(t, value.Equal(expanded, want))
}

func TestEllipsisMatchesZeroElements(t *testing.T) {
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"), value.Sym("e"), value.Sym("...")),
			value.List(value.Sym("list"), value.Sym("e"), value.Sym("...")),
		),
	)
	m := mustNew(t, body)
	expanded, err := m.Expand(value.List(value.Sym("my-list")))
	require.NoError(t, err)
	want := value.List(value.Sym("list"))
	require.True(t, value.Equal(expanded, want))
}

func TestLiteralIdentifierMustMatchExactly(t *testing.T) {
	// (define-syntax my-cond (syntax-rules (else) ((_ else e) e)))
	body := syntaxRulesBody([]value.Value{value.Sym("else")},
		value.List(
			value.List(value.Sym("_"), value.Sym("else"), value.Sym("e")),
			value.Sym("e"),
		),
	)
	m := mustNew(t, body)
	_, err := m.Expand(value.List(value.Sym("my-cond"), value.Sym("nope"), value.Int{Value: 1}))
	require.Error(t, err, "a literal keyword must match exactly, not bind as a variable")
}

func TestDuplicatePatternVariableIsASyntaxError(t *testing.T) {
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"), value.Sym("x"), value.Sym("x")),
			value.Sym("x"),
		),
	)
	_, err := New(body)
	require.Error(t, err)
}

func TestMismatchedEllipsisCountsInTemplateIsAnError(t *testing.T) {
	// (define-syntax bad (syntax-rules () ((_ (a ...) (b ...)) ((a b) ...))))
	// with mismatched numbers of a's and b's at call time.
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"),
				value.List(value.Sym("a"), value.Sym("...")),
				value.List(value.Sym("b"), value.Sym("..."))),
			value.List(
				value.List(value.Sym("a"), value.Sym("b")),
				value.Sym("..."),
			),
		),
	)
	m := mustNew(t, body)
	form := value.List(value.Sym("bad"),
		value.List(value.Int{Value: 1}, value.Int{Value: 2}),
		value.List(value.Int{Value: 1}),
	)
	_, err := m.Expand(form)
	require.Error(t, err)
}

func TestNoMatchingRuleIsASyntaxError(t *testing.T) {
	body := syntaxRulesBody(nil,
		value.List(
			value.List(value.Sym("_"), value.Sym("x")),
			value.Sym("x"),
		),
	)
	m := mustNew(t, body)
	_, err := m.Expand(value.List(value.Sym("m"), value.Int{Value: 1}, value.Int{Value: 2}))
	require.Error(t, err)
}
