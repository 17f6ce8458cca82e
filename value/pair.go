package value

import "strings"

// Pair is the sole list cell. A proper list is a chain of Pairs ending
// in Nil; an improper (dotted) list ends in some other atom; the empty
// list is Nil itself, never a *Pair.
type Pair struct {
	Car Value
	Cdr Value
}

func (p *Pair) Type() Type { return TypePair }

// Inspect renders the pair in standard list notation, falling back to
// dotted notation for improper lists.
func (p *Pair) Inspect() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(inspectValue(p.Car))

	rest := p.Cdr
	for {
		switch r := rest.(type) {
		case Nil:
			b.WriteByte(')')
			return b.String()
		case *Pair:
			b.WriteByte(' ')
			b.WriteString(inspectValue(r.Car))
			rest = r.Cdr
		default:
			b.WriteString(" . ")
			b.WriteString(inspectValue(rest))
			b.WriteByte(')')
			return b.String()
		}
	}
}

func inspectValue(v Value) string {
	if v == nil {
		return "#<nil>"
	}
	return v.Inspect()
}

// Cons builds a new pair, the fundamental list constructor.
func Cons(car, cdr Value) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}

// List builds a proper list out of the given values.
func List(vs ...Value) Value {
	var result Value = NilValue
	for i := len(vs) - 1; i >= 0; i-- {
		result = Cons(vs[i], result)
	}
	return result
}

// ToSlice flattens a proper list into a Go slice. It returns ok=false
// if v is not Nil and not a chain of Pairs ending in Nil (an improper
// list).
func ToSlice(v Value) (elems []Value, ok bool) {
	for {
		switch t := v.(type) {
		case Nil:
			return elems, true
		case *Pair:
			elems = append(elems, t.Car)
			v = t.Cdr
		default:
			return elems, false
		}
	}
}
