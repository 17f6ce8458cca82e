package macro

import (
	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// ellipsisSym is the identifier syntax-rules reserves for repetition.
var ellipsisSym = value.Sym("...")

// SyntaxRule is one compiled (pattern template) clause of a
// syntax-rules macro.
type SyntaxRule struct {
	Matcher  *SequenceMatcher
	Template Template
}

// Match tries the rule's pattern against form, a full macro-use list
// whose car is the macro keyword itself (ignored — the pattern's own
// first element, conventionally `_`, is discarded the same way by
// compileRule). It returns the bindings on success.
func (r *SyntaxRule) Match(form value.Value) (MatchDict, error) {
	p, ok := form.(*value.Pair)
	if !ok {
		return nil, matchErr("macro use must be a list")
	}
	md := MatchDict{}
	wrapped := value.Cons(p.Cdr, value.NilValue)
	if _, err := r.Matcher.Match(wrapped, md); err != nil {
		return nil, err
	}
	return md, nil
}

// compileRule compiles a single (pattern template) syntax-rules clause.
func compileRule(rule value.Value, literals map[string]bool) (*SyntaxRule, error) {
	elems, ok := value.ToSlice(rule)
	if !ok || len(elems) != 2 {
		return nil, schemeerr.New(schemeerr.KindSyntax, "syntax-rules clause must be a (pattern template) pair")
	}
	patPair, ok := elems[0].(*value.Pair)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindSyntax, "syntax-rules pattern must be a list")
	}

	vars := make(map[string]bool)
	matcher, err := compilePattern(patPair.Cdr, literals, vars)
	if err != nil {
		return nil, err
	}
	seq, ok := matcher.(*SequenceMatcher)
	if !ok {
		seq = &SequenceMatcher{Subs: []Matcher{matcher}}
	}

	tmpl, err := compileTemplate(elems[1], vars)
	if err != nil {
		return nil, err
	}
	return &SyntaxRule{Matcher: seq, Template: tmpl}, nil
}

// compilePattern compiles one pattern datum into a Matcher. literals
// is the fixed set of identifiers this syntax-rules form declared as
// literal keywords; vars accumulates every pattern variable name seen
// so far, used both to reject duplicate bindings and, later, to tell
// compileTemplate which identifiers are substitutions rather than
// literal output.
func compilePattern(pat value.Value, literals map[string]bool, vars map[string]bool) (Matcher, error) {
	switch p := pat.(type) {
	case value.Nil:
		return &SequenceMatcher{}, nil
	case *value.Symbol:
		switch {
		case p.Name == "_":
			return &UnderscoreMatcher{}, nil
		case literals[p.Name]:
			return &LiteralMatcher{Name: p.Name}, nil
		case vars[p.Name]:
			return nil, schemeerr.New(schemeerr.KindSyntax, "duplicate pattern variable %q", p.Name)
		default:
			vars[p.Name] = true
			return &VariableMatcher{Name: p.Name}, nil
		}
	case *value.Pair:
		return compileSequencePattern(p, literals, vars)
	default:
		return &ConstantMatcher{Value: pat}, nil
	}
}

func compileSequencePattern(p *value.Pair, literals map[string]bool, vars map[string]bool) (*SequenceMatcher, error) {
	var subs []Matcher
	cur := value.Value(p)
	for {
		pp, ok := cur.(*value.Pair)
		if !ok {
			break
		}
		rest := pp.Cdr
		ellipsis := false
		if rp, ok := rest.(*value.Pair); ok {
			if sym, ok := rp.Car.(*value.Symbol); ok && sym == ellipsisSym {
				ellipsis = true
				rest = rp.Cdr
			}
		}
		sub, err := compilePattern(pp.Car, literals, vars)
		if err != nil {
			return nil, err
		}
		applyEllipsis(sub, ellipsis)
		subs = append(subs, sub)
		cur = rest
	}

	seq := &SequenceMatcher{Subs: subs}
	if _, isNil := cur.(value.Nil); isNil {
		return seq, nil
	}
	tail, err := compilePattern(cur, literals, vars)
	if err != nil {
		return nil, err
	}
	seq.Subs = append(seq.Subs, &RestMatcher{Inner: tail})
	return seq, nil
}

func applyEllipsis(m Matcher, ellipsis bool) {
	switch v := m.(type) {
	case *LiteralMatcher:
		v.Ellipsis = ellipsis
	case *UnderscoreMatcher:
		v.Ellipsis = ellipsis
	case *VariableMatcher:
		v.Ellipsis = ellipsis
	case *ConstantMatcher:
		v.Ellipsis = ellipsis
	case *SequenceMatcher:
		v.Ellipsis = ellipsis
	}
}

// compileTemplate compiles one template datum into a Template. vars is
// the set of pattern variable names compilePattern collected for this
// rule: any symbol in the template that is NOT in vars is reproduced
// verbatim (un-hygienically — no renaming is performed).
func compileTemplate(tmpl value.Value, vars map[string]bool) (Template, error) {
	switch t := tmpl.(type) {
	case *value.Symbol:
		if vars[t.Name] {
			return &VariableTemplate{Name: t.Name}, nil
		}
		return &ConstantTemplate{Value: t}, nil
	case *value.Pair:
		return compileSequenceTemplate(t, vars)
	default:
		return &ConstantTemplate{Value: tmpl}, nil
	}
}

func compileSequenceTemplate(p *value.Pair, vars map[string]bool) (*SequenceTemplate, error) {
	var elems []Template
	cur := value.Value(p)
	for {
		pp, ok := cur.(*value.Pair)
		if !ok {
			break
		}
		sub, err := compileTemplate(pp.Car, vars)
		if err != nil {
			return nil, err
		}

		rest := pp.Cdr
		nflatten := 0
		for {
			rp, ok := rest.(*value.Pair)
			if !ok {
				break
			}
			sym, ok := rp.Car.(*value.Symbol)
			if !ok || sym != ellipsisSym {
				break
			}
			nflatten++
			rest = rp.Cdr
		}
		if nflatten > 0 {
			if err := setTemplateFlatten(sub, nflatten); err != nil {
				return nil, err
			}
		}

		elems = append(elems, sub)
		cur = rest
	}

	tail, err := compileTemplate(cur, vars)
	if err != nil {
		return nil, err
	}
	return &SequenceTemplate{Elems: elems, Tail: tail}, nil
}

// setTemplateFlatten records that sub is followed by n "..." tokens in
// the template, and — for a SequenceTemplate — computes which pattern
// variables determine its repetition count.
func setTemplateFlatten(sub Template, n int) error {
	switch v := sub.(type) {
	case *VariableTemplate:
		v.NFlatten = n
	case *SequenceTemplate:
		v.NFlatten = n
		v.EllipsisVars = collectVars(v)
	default:
		return schemeerr.New(schemeerr.KindSyntax, "\"...\" must follow a pattern variable or a sub-template")
	}
	return nil
}

// collectVars returns every pattern-variable name referenced anywhere
// within t, used to determine a repeated sub-template's iteration
// count from whichever of its variables carries the matching Ellipsis.
func collectVars(t Template) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Template)
	walk = func(t Template) {
		switch v := t.(type) {
		case *VariableTemplate:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *SequenceTemplate:
			for _, e := range v.Elems {
				walk(e)
			}
			walk(v.Tail)
		}
	}
	walk(t)
	return out
}
