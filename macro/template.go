package macro

import "github.com/dr8co/skime/value"

// Template is one compiled element of a syntax-rules template. Expand
// produces the list of values this element contributes to its
// enclosing sequence — almost always exactly one, except where an
// ellipsis-flattening variable or sub-template splices zero or more.
//
// idx is the stack of concrete repetition indices chosen by every
// enclosing ellipsis expansion so far (outermost first), used to
// descend into the Ellipsis structure a pattern variable matched
// against when the template re-expands it inside nested "...".
type Template interface {
	Expand(md MatchDict, idx []int) ([]value.Value, error)
}

// ConstantTemplate reproduces a literal datum from the template
// verbatim — anything in the template that is not a pattern variable,
// not "...", and not a nested list.
type ConstantTemplate struct {
	Value value.Value
}

func (t *ConstantTemplate) Expand(md MatchDict, idx []int) ([]value.Value, error) {
	return []value.Value{t.Value}, nil
}

// VariableTemplate substitutes the value a pattern variable was bound
// to. NFlatten is the number of trailing "..." this occurrence of the
// variable carries in the template. If it is fewer than the variable's
// remaining ellipsis depth, Expand returns an error rather than
// splicing the unflattened Ellipsis.
type VariableTemplate struct {
	Name     string
	NFlatten int
}

func (t *VariableTemplate) Expand(md MatchDict, idx []int) ([]value.Value, error) {
	val := md.Get(t.Name)
	for _, i := range idx {
		el, ok := val.(Ellipsis)
		if !ok {
			break
		}
		if i >= len(el) {
			return nil, matchErr("ellipsis index out of range for %s", t.Name)
		}
		val = el[i]
	}
	vals := []any{val}
	for n := 0; n < t.NFlatten; n++ {
		flattened, err := flattenOnce(vals)
		if err != nil {
			return nil, err
		}
		vals = flattened
	}
	out := make([]value.Value, len(vals))
	for i, v := range vals {
		vv, ok := v.(value.Value)
		if !ok {
			return nil, matchErr("too few ellipses following %s", t.Name)
		}
		out[i] = vv
	}
	return out, nil
}

// flattenOnce concatenates one level of Ellipsis nesting: every
// element of vals must itself be an Ellipsis, and its contents are
// spliced into the result.
func flattenOnce(vals []any) ([]any, error) {
	var res []any
	for _, v := range vals {
		el, ok := v.(Ellipsis)
		if !ok {
			return nil, matchErr("too many ellipses in template")
		}
		res = append(res, el...)
	}
	return res, nil
}

// SequenceTemplate reproduces a parenthesized sub-template, e.g. the
// `(a b)` in `((a b) ...)`. Elems are its proper-list elements; Tail
// is the improper-tail template (ConstantTemplate{value.NilValue} for
// an ordinary proper list, or a VariableTemplate/SequenceTemplate for
// a dotted template like `(a . b)`). NFlatten is how many trailing
// "..." follow this whole sub-template; EllipsisVars names every
// pattern variable that appears, at any depth, directly inside Elems
// and therefore determines the repetition count when NFlatten > 0.
type SequenceTemplate struct {
	Elems        []Template
	Tail         Template
	NFlatten     int
	EllipsisVars []string
}

func (t *SequenceTemplate) Expand(md MatchDict, idx []int) ([]value.Value, error) {
	return t.expandFlatten(md, idx, t.NFlatten)
}

func (t *SequenceTemplate) expandFlatten(md MatchDict, idx []int, flatten int) ([]value.Value, error) {
	if flatten == 0 {
		return t.expandOnce(md, idx)
	}

	length := -1
	for _, name := range t.EllipsisVars {
		val := descend(md, name, idx)
		el, ok := val.(Ellipsis)
		if !ok {
			return nil, matchErr("too many ellipses following %s", name)
		}
		if length == -1 {
			length = len(el)
		} else if length != len(el) {
			return nil, matchErr("mismatched ellipsis match counts in template")
		}
	}
	// A sub-template that names no pattern variable has no way to know
	// its own repetition count; treat it as never repeating.
	if length <= 0 {
		return []value.Value{}, nil
	}

	var out []value.Value
	nextIdx := make([]int, len(idx)+1)
	copy(nextIdx, idx)
	for i := 0; i < length; i++ {
		nextIdx[len(idx)] = i
		vs, err := t.expandFlatten(md, nextIdx, flatten-1)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// expandOnce expands Elems and Tail for a single (non-repeated) round
// and conses the results together into one list value.
func (t *SequenceTemplate) expandOnce(md MatchDict, idx []int) ([]value.Value, error) {
	var elems []value.Value
	for _, sub := range t.Elems {
		vs, err := sub.Expand(md, idx)
		if err != nil {
			return nil, err
		}
		elems = append(elems, vs...)
	}
	tailVals, err := t.Tail.Expand(md, idx)
	if err != nil {
		return nil, err
	}
	if len(tailVals) != 1 {
		return nil, matchErr("improper-tail template must expand to exactly one value")
	}
	rest := tailVals[0]
	for i := len(elems) - 1; i >= 0; i-- {
		rest = value.Cons(elems[i], rest)
	}
	return []value.Value{rest}, nil
}

// descend looks up name and walks idx into its bound Ellipsis exactly
// as VariableTemplate.Expand does, but without any further flattening
// — used only to measure repetition length.
func descend(md MatchDict, name string, idx []int) any {
	val := md.Get(name)
	for _, i := range idx {
		el, ok := val.(Ellipsis)
		if !ok || i >= len(el) {
			return val
		}
		val = el[i]
	}
	return val
}
