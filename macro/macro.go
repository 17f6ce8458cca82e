// Package macro implements un-hygienic syntax-rules pattern matching
// and template expansion.
//
// A Macro is itself a value.Value (installed into an environment slot
// by `define-syntax`, exactly like any other runtime value) holding an
// ordered list of SyntaxRules, each a compiled (pattern matcher,
// template) pair. Expand tries each rule's matcher in order and
// expands the template of the first one that matches.
package macro

import (
	"fmt"

	"github.com/dr8co/skime/schemeerr"
	"github.com/dr8co/skime/value"
)

// Macro is the runtime value installed by `define-syntax`. It
// implements value.Value without package value needing to import
// package macro — the interface is satisfied from this side.
type Macro struct {
	Literals []string
	Rules    []*SyntaxRule
}

func (*Macro) Type() value.Type  { return value.TypeMacro }
func (m *Macro) Inspect() string { return fmt.Sprintf("#<macro %d rules>", len(m.Rules)) }

// New compiles a (literals (pattern template)...) syntax-rules body
// into a Macro. body is the cdr of the syntax-rules form, i.e. the
// literals list followed by the rule list, matching
// generate_define_syntax's expr.first.rest in the compiler.
func New(body value.Value) (*Macro, error) {
	pair, ok := body.(*value.Pair)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindSyntax, "invalid syntax-rules form")
	}
	litVals, ok := value.ToSlice(pair.Car)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindSyntax, "syntax-rules literals must be a proper list")
	}
	literals := make([]string, 0, len(litVals))
	litSet := make(map[string]bool, len(litVals))
	for _, lv := range litVals {
		sym, ok := lv.(*value.Symbol)
		if !ok {
			return nil, schemeerr.New(schemeerr.KindSyntax, "syntax-rules literal must be a symbol")
		}
		literals = append(literals, sym.Name)
		litSet[sym.Name] = true
	}

	m := &Macro{Literals: literals}
	rules, ok := value.ToSlice(pair.Cdr)
	if !ok {
		return nil, schemeerr.New(schemeerr.KindSyntax, "syntax-rules rules must be a proper list")
	}
	for _, r := range rules {
		rule, err := compileRule(r, litSet)
		if err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, rule)
	}
	return m, nil
}

// Expand tries each rule against form (a list whose car is the macro
// keyword) in order, returning the expansion of the first rule that
// matches. It returns a *schemeerr.Error of kind KindSyntax if no rule
// matches, or if the matching rule's template is malformed.
func (m *Macro) Expand(form value.Value) (value.Value, error) {
	for _, rule := range m.Rules {
		md, err := rule.Match(form)
		if err != nil {
			continue
		}
		vals, err := rule.Template.Expand(md, nil)
		if err != nil {
			if se, ok := err.(*schemeerr.Error); ok && se.Kind == schemeerr.KindMatch {
				return nil, schemeerr.New(schemeerr.KindSyntax, "%s", se.Message).WithForm(form)
			}
			return nil, err
		}
		if len(vals) != 1 {
			return nil, schemeerr.New(schemeerr.KindSyntax, "macro template must expand to exactly one form").WithForm(form)
		}
		return vals[0], nil
	}
	return nil, schemeerr.New(schemeerr.KindSyntax, "no syntax-rules pattern matches").WithForm(form)
}
