// Package reader turns Scheme source text into value.Value s-expression
// trees — the "already-parsed s-expressions" spec.md treats as
// pre-existing input to the compiler. It is an external collaborator to
// the compiler/VM core, not part of it: package compiler never imports
// package reader.
//
// The scanner is grounded on the teacher's lexer package (character-at-
// a-time reading via readChar/peekChar, a reused EOF sentinel, the same
// readString escape handling) but retargeted from Monkey's infix token
// stream to s-expression syntax: parentheses delimit lists directly,
// there is no separate token package, and a single recursive-descent
// Read produces value.Value nodes straight from characters rather than
// handing an AST to anything downstream.
package reader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dr8co/skime/value"
)

// Reader scans one source string into a sequence of data (Scheme's
// term for s-expressions read from text).
type Reader struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// New creates a Reader over input, positioned at the first character.
func New(input string) *Reader {
	r := &Reader{input: input}
	r.readChar()
	return r
}

// ReadAll reads every top-level datum in input, returning them in
// source order. A trailing comment-only or whitespace-only input
// yields an empty, non-error result.
func ReadAll(input string) ([]value.Value, error) {
	r := New(input)
	var out []value.Value
	for {
		v, ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Read reads a single datum. ok is false (with a nil error) when input
// is exhausted without producing one more form.
func (r *Reader) Read() (value.Value, bool, error) {
	r.skipAtmosphere()
	if r.ch == 0 {
		return nil, false, nil
	}
	v, err := r.readDatum()
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Reader) readChar() {
	if r.readPosition >= len(r.input) {
		r.ch = 0
	} else {
		r.ch = r.input[r.readPosition]
	}
	r.position = r.readPosition
	r.readPosition++
}

func (r *Reader) peekChar() byte {
	if r.readPosition >= len(r.input) {
		return 0
	}
	return r.input[r.readPosition]
}

// skipAtmosphere skips whitespace and ";" line comments — the two
// forms of inter-datum filler Scheme source can contain.
func (r *Reader) skipAtmosphere() {
	for {
		switch r.ch {
		case ' ', '\t', '\n', '\r':
			r.readChar()
			continue
		case ';':
			for r.ch != '\n' && r.ch != 0 {
				r.readChar()
			}
			continue
		}
		break
	}
}

func isDelimiter(ch byte) bool {
	switch ch {
	case 0, ' ', '\t', '\n', '\r', '(', ')', '"', ';', '\'', '`', ',':
		return true
	}
	return false
}

// readDatum dispatches on the current character to parse exactly one
// datum, leaving r positioned just past it.
func (r *Reader) readDatum() (value.Value, error) {
	switch r.ch {
	case '(':
		return r.readList()
	case ')':
		return nil, fmt.Errorf("reader: unexpected %q", ")")
	case '"':
		return r.readString()
	case '\'':
		r.readChar()
		return r.readWrapped("quote")
	case '`':
		r.readChar()
		return r.readWrapped("quasiquote")
	case ',':
		r.readChar()
		if r.ch == '@' {
			r.readChar()
			return r.readWrapped("unquote-splicing")
		}
		return r.readWrapped("unquote")
	default:
		return r.readAtom()
	}
}

// readWrapped reads one following datum and wraps it as (sym datum),
// the shared shape behind the reader abbreviations 'x, `x, ,x, ,@x.
func (r *Reader) readWrapped(sym string) (value.Value, error) {
	r.skipAtmosphere()
	if r.ch == 0 {
		return nil, fmt.Errorf("reader: unexpected end of input after %s", sym)
	}
	inner, err := r.readDatum()
	if err != nil {
		return nil, err
	}
	return value.List(value.Sym(sym), inner), nil
}

// readList parses a parenthesized form, including the dotted-tail
// syntax `(a b . c)` for improper lists. The opening '(' must be the
// current character.
func (r *Reader) readList() (value.Value, error) {
	r.readChar() // consume '('
	var elems []value.Value
	tail := value.Value(value.NilValue)

	for {
		r.skipAtmosphere()
		if r.ch == 0 {
			return nil, fmt.Errorf("reader: unterminated list")
		}
		if r.ch == ')' {
			r.readChar()
			break
		}
		if r.ch == '.' && isDelimiter(r.peekChar()) {
			r.readChar()
			r.skipAtmosphere()
			t, err := r.readDatum()
			if err != nil {
				return nil, err
			}
			tail = t
			r.skipAtmosphere()
			if r.ch != ')' {
				return nil, fmt.Errorf("reader: expected ')' after dotted tail")
			}
			r.readChar()
			break
		}
		el, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}

	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = value.Cons(elems[i], result)
	}
	return result, nil
}

// readString reads a double-quoted string literal, interpreting the
// same backslash escapes as the teacher's lexer (\n \t \r \" \\,
// anything else preserved verbatim).
func (r *Reader) readString() (value.Value, error) {
	r.readChar() // consume opening quote
	var b strings.Builder
	for {
		switch r.ch {
		case '"':
			r.readChar()
			return value.Str{Value: b.String()}, nil
		case 0:
			return nil, fmt.Errorf("reader: unterminated string literal")
		case '\\':
			r.readChar()
			switch r.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 0:
				return nil, fmt.Errorf("reader: unterminated string literal")
			default:
				b.WriteByte('\\')
				b.WriteByte(r.ch)
			}
			r.readChar()
		default:
			b.WriteByte(r.ch)
			r.readChar()
		}
	}
}

// readAtom reads a run of non-delimiter characters and classifies it
// as a boolean, number, or symbol.
func (r *Reader) readAtom() (value.Value, error) {
	start := r.position
	for !isDelimiter(r.ch) {
		r.readChar()
	}
	tok := r.input[start:r.position]
	if tok == "" {
		return nil, fmt.Errorf("reader: unexpected character %q", r.ch)
	}
	return classifyAtom(tok)
}

func classifyAtom(tok string) (value.Value, error) {
	switch tok {
	case "#t", "#true":
		return value.True, nil
	case "#f", "#false":
		return value.False, nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return value.Int{Value: i}, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Float{Value: f}, nil
	}
	if c, ok := parseComplex(tok); ok {
		return c, nil
	}
	return value.Sym(tok), nil
}

// parseComplex recognizes the subset of Scheme complex-number syntax
// this core's value model supports: "<real><sign><imag>i" or a bare
// "<sign><imag>i", e.g. "2+3i", "-1-2.5i", "+i".
func parseComplex(tok string) (value.Complex, bool) {
	if !strings.HasSuffix(tok, "i") || len(tok) < 2 {
		return value.Complex{}, false
	}
	body := tok[:len(tok)-1]
	splitAt := -1
	for i := len(body) - 1; i > 0; i-- {
		if (body[i] == '+' || body[i] == '-') && body[i-1] != 'e' && body[i-1] != 'E' {
			splitAt = i
			break
		}
	}
	if splitAt < 0 {
		imag, err := strconv.ParseFloat(body, 64)
		if body == "+" {
			imag = 1
		} else if body == "-" {
			imag = -1
		} else if err != nil {
			return value.Complex{}, false
		}
		return value.Complex{Real: 0, Imag: imag}, true
	}
	realPart := body[:splitAt]
	imagPart := body[splitAt:]
	re, err := strconv.ParseFloat(realPart, 64)
	if err != nil {
		return value.Complex{}, false
	}
	var im float64
	switch imagPart {
	case "+":
		im = 1
	case "-":
		im = -1
	default:
		im, err = strconv.ParseFloat(imagPart, 64)
		if err != nil {
			return value.Complex{}, false
		}
	}
	return value.Complex{Real: re, Imag: im}, true
}
