package macro

import (
	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// Matcher is one compiled element of a syntax-rules pattern. Match
// consumes a prefix of expr (expr is always a pair chain whose car is
// the list still to be matched — see SequenceMatcher, the only
// matcher every other matcher nests inside) and reports the unconsumed
// remainder, binding pattern variables into md as it goes.
type Matcher interface {
	Match(expr value.Value, md Binder) (value.Value, error)
}

func matchErr(format string, args ...any) error {
	return schemeerr.New(schemeerr.KindMatch, format, args...)
}

// head splits expr into its first element and the remaining list,
// failing if expr is not a pair — i.e. the input ran out of elements
// before this matcher got its turn.
func head(expr value.Value) (value.Value, value.Value, error) {
	p, ok := expr.(*value.Pair)
	if !ok {
		return nil, nil, matchErr("not enough elements to match")
	}
	return p.Car, p.Cdr, nil
}

// LiteralMatcher requires the next element to be the symbol Name
// exactly (an identifier the rule names as "literal", e.g. `else` or
// `=>` in a cond/case-style macro), consumed verbatim rather than
// bound to anything.
//
// The original engine left this matcher an unimplemented stub; this
// core completes it by following the same one-or-repeated shape every
// other matcher here uses, since a literal is otherwise
// indistinguishable from a variable the way this package is
// structured.
type LiteralMatcher struct {
	Name     string
	Ellipsis bool
}

func (m *LiteralMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	match1 := func(e value.Value) (value.Value, error) {
		el, rest, err := head(e)
		if err != nil {
			return nil, err
		}
		sym, ok := el.(*value.Symbol)
		if !ok || sym.Name != m.Name {
			return nil, matchErr("expected literal %q", m.Name)
		}
		return rest, nil
	}
	if !m.Ellipsis {
		return match1(expr)
	}
	for {
		rest, err := match1(expr)
		if err != nil {
			return expr, nil
		}
		expr = rest
	}
}

// UnderscoreMatcher matches (and discards) exactly one element, or —
// with Ellipsis set — zero or more.
type UnderscoreMatcher struct {
	Ellipsis bool
}

func (m *UnderscoreMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	if !m.Ellipsis {
		_, rest, err := head(expr)
		return rest, err
	}
	for {
		p, ok := expr.(*value.Pair)
		if !ok {
			return expr, nil
		}
		expr = p.Cdr
	}
}

// VariableMatcher binds the next element to Name, or — with Ellipsis
// set — greedily binds every remaining element as an Ellipsis, since a
// bare pattern variable always matches.
type VariableMatcher struct {
	Name     string
	Ellipsis bool
}

func (m *VariableMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	if !m.Ellipsis {
		el, rest, err := head(expr)
		if err != nil {
			return nil, err
		}
		md.Bind(m.Name, el)
		return rest, nil
	}
	ed := newEllipsisDict()
	for {
		p, ok := expr.(*value.Pair)
		if !ok {
			break
		}
		ed.Bind(m.Name, p.Car)
		expr = p.Cdr
	}
	ed.mergeInto(mdOf(md))
	return expr, nil
}

// mdOf returns the Binder that an ellipsis round's accumulated
// bindings are merged into. VariableMatcher and SequenceMatcher need it
// because merging is itself a Bind-shaped operation that must land in
// the same binder the caller passed in, whatever its dynamic type.
func mdOf(b Binder) Binder {
	switch v := b.(type) {
	case MatchDict:
		return v
	case *ellipsisDict:
		return ellipsisDictAsMatchDict{v}
	default:
		panic("macro: unknown Binder implementation")
	}
}

// ellipsisDictAsMatchDict adapts an *ellipsisDict to the Binder
// mergeInto writes through, so a nested ellipsis (e.g. ((x ...) ...))
// can merge its inner round into the outer round's accumulator.
type ellipsisDictAsMatchDict struct{ d *ellipsisDict }

func (a ellipsisDictAsMatchDict) Bind(name string, val any) { a.d.Bind(name, val) }

// ConstantMatcher requires the next element to be structurally Equal
// to Value (a literal datum embedded in the pattern, e.g. the 1 in
// `(f 1 x)`).
type ConstantMatcher struct {
	Value    value.Value
	Ellipsis bool
}

func (m *ConstantMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	match1 := func(e value.Value) (value.Value, error) {
		el, rest, err := head(e)
		if err != nil {
			return nil, err
		}
		if !value.Equal(el, m.Value) {
			return nil, matchErr("expected constant %s", m.Value.Inspect())
		}
		return rest, nil
	}
	if !m.Ellipsis {
		return match1(expr)
	}
	for {
		rest, err := match1(expr)
		if err != nil {
			return expr, nil
		}
		expr = rest
	}
}

// RestMatcher adapts an ordinary matcher (almost always a
// VariableMatcher or UnderscoreMatcher) to match the improper tail of
// a dotted pattern such as `(a b . rest)`: the tail position isn't a
// list, so RestMatcher wraps whatever single value is left there in a
// one-element pair before delegating, letting the inner matcher use
// its ordinary head-of-pair logic.
type RestMatcher struct {
	Inner Matcher
}

func (m *RestMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	return m.Inner.Match(value.Cons(expr, value.NilValue), md)
}

// SequenceMatcher matches a parenthesized list of sub-patterns against
// a parenthesized list of forms. expr is always a pair whose car is
// the list to run Subs against — the outermost call wraps the actual
// argument list in a singleton pair for exactly this reason (see
// SyntaxRule.Match), and every nested ellipsis repetition wraps each
// round's group the same way.
//
// When Ellipsis is set, the whole sequence is expected zero or more
// times in a row (a nested pattern like `(x y) ...`); each round binds
// into a fresh ellipsisDict that gets merged into md once the
// repetition stops.
type SequenceMatcher struct {
	Subs     []Matcher
	Ellipsis bool
}

func (m *SequenceMatcher) Match(expr value.Value, md Binder) (value.Value, error) {
	if m.Ellipsis {
		ed := newEllipsisDict()
		for {
			if _, ok := expr.(*value.Pair); !ok {
				break
			}
			if err := m.matchSequence(expr, ed); err != nil {
				break
			}
			expr = expr.(*value.Pair).Cdr
		}
		ed.mergeInto(mdOf(md))
		return expr, nil
	}
	if _, ok := expr.(*value.Pair); !ok {
		return nil, matchErr("expected a list to match")
	}
	if err := m.matchSequence(expr, md); err != nil {
		return nil, err
	}
	return expr.(*value.Pair).Cdr, nil
}

// matchSequence runs Subs against the list found at expr.(*Pair).Car,
// requiring every sub-matcher to succeed in order and the whole list
// to be exhausted (cdr down to Nil) afterward.
func (m *SequenceMatcher) matchSequence(expr value.Value, md Binder) error {
	cur := expr.(*value.Pair).Car
	for _, sub := range m.Subs {
		var err error
		cur, err = sub.Match(cur, md)
		if err != nil {
			return err
		}
	}
	if _, isNil := cur.(value.Nil); !isNil {
		return matchErr("extra elements left unmatched")
	}
	return nil
}
