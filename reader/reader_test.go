package reader

import (
	"testing"

	"github.com/dr8co/skime/value"
)

func TestReadAllAtoms(t *testing.T) {
	tests := []struct {
		input string
		want  value.Value
	}{
		{"42", value.Int{Value: 42}},
		{"-7", value.Int{Value: -7}},
		{"3.14", value.Float{Value: 3.14}},
		{"#t", value.True},
		{"#f", value.False},
		{"foo", value.Sym("foo")},
		{"set!", value.Sym("set!")},
		{"pair?", value.Sym("pair?")},
		{"call/cc", value.Sym("call/cc")},
		{`"foo bar"`, value.Str{Value: "foo bar"}},
		{`"a\nb"`, value.Str{Value: "a\nb"}},
	}
	for _, tt := range tests {
		got, err := ReadAll(tt.input)
		if err != nil {
			t.Fatalf("ReadAll(%q): %v", tt.input, err)
		}
		if len(got) != 1 {
			t.Fatalf("ReadAll(%q): want 1 datum, got %d", tt.input, len(got))
		}
		if !value.Equal(got[0], tt.want) || !value.SameLiteralType(got[0], tt.want) {
			t.Errorf("ReadAll(%q) = %#v, want %#v", tt.input, got[0], tt.want)
		}
	}
}

func TestReadAllLists(t *testing.T) {
	got, err := ReadAll("(+ 1 2 3)")
	if err != nil {
		t.Fatal(err)
	}
	want := value.List(value.Sym("+"), value.Int{Value: 1}, value.Int{Value: 2}, value.Int{Value: 3})
	if !value.Equal(got[0], want) {
		t.Errorf("got %s, want %s", got[0].Inspect(), want.Inspect())
	}
}

func TestReadDottedPair(t *testing.T) {
	got, err := ReadAll("(1 . 2)")
	if err != nil {
		t.Fatal(err)
	}
	want := value.Cons(value.Int{Value: 1}, value.Int{Value: 2})
	if !value.Equal(got[0], want) {
		t.Errorf("got %s, want %s", got[0].Inspect(), want.Inspect())
	}
}

func TestReadQuoteAbbreviation(t *testing.T) {
	got, err := ReadAll("'(1 2)")
	if err != nil {
		t.Fatal(err)
	}
	want := value.List(value.Sym("quote"), value.List(value.Int{Value: 1}, value.Int{Value: 2}))
	if !value.Equal(got[0], want) {
		t.Errorf("got %s, want %s", got[0].Inspect(), want.Inspect())
	}
}

func TestReadMultipleTopLevelForms(t *testing.T) {
	got, err := ReadAll("(define x 1) (+ x 2) ; trailing comment\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 top-level forms, got %d", len(got))
	}
}

func TestReadComplexLiteral(t *testing.T) {
	got, err := ReadAll("2+3i")
	if err != nil {
		t.Fatal(err)
	}
	c, ok := got[0].(value.Complex)
	if !ok {
		t.Fatalf("got %T, want value.Complex", got[0])
	}
	if c.Real != 2 || c.Imag != 3 {
		t.Errorf("got %+v, want Real=2 Imag=3", c)
	}
}

func TestReadUnterminatedListErrors(t *testing.T) {
	if _, err := ReadAll("(+ 1 2"); err == nil {
		t.Fatal("expected an error for an unterminated list")
	}
}

func TestReadUnterminatedStringErrors(t *testing.T) {
	if _, err := ReadAll(`"foo`); err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}
