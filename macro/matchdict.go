package macro

// Binder receives (name, value) bindings as a pattern matches. A plain
// MatchDict overwrites; an ellipsisDict (used while a SequenceMatcher
// or VariableMatcher with its ellipsis flag set is repeating) appends
// to a running Ellipsis collection per name instead, then merges the
// whole collection into the enclosing MatchDict once the repetition
// ends. This mirrors the original engine's EllipsisMatchDict without
// needing Python's ability to subclass dict's __setitem__.
type Binder interface {
	Bind(name string, val any)
}

// MatchDict holds the bindings produced by matching a syntax-rules
// pattern against an input form. Values are either a value.Value (a
// single match) or an Ellipsis (an ordered collection produced by a
// "..." repetition).
type MatchDict map[string]any

// Bind implements Binder by plain assignment.
func (d MatchDict) Bind(name string, val any) { d[name] = val }

// Get returns the binding for name, or an empty Ellipsis if name was
// never bound — matching the original engine's md.get(name,
// Ellipsis()) default, used so a template referencing a variable that
// an outer "..." never matched (zero repetitions) still expands to
// nothing rather than panicking.
func (d MatchDict) Get(name string) any {
	if v, ok := d[name]; ok {
		return v
	}
	return Ellipsis{}
}

// Ellipsis holds the zero-or-more values collected by a "..."
// repetition. Nesting (an Ellipsis of Ellipsis) represents a
// doubly-repeated pattern such as ((x ...) ...).
type Ellipsis []any

// ellipsisDict accumulates bindings produced while a single repetition
// round of an ellipsis matcher runs, turning each bound name into an
// Ellipsis of the values seen across rounds once merged.
type ellipsisDict struct {
	order  []string
	values map[string]*Ellipsis
}

func newEllipsisDict() *ellipsisDict {
	return &ellipsisDict{values: make(map[string]*Ellipsis)}
}

func (d *ellipsisDict) Bind(name string, val any) {
	if e, ok := d.values[name]; ok {
		*e = append(*e, val)
		return
	}
	e := Ellipsis{val}
	d.values[name] = &e
	d.order = append(d.order, name)
}

// mergeInto binds every accumulated name into md, each as a single
// Ellipsis value.
func (d *ellipsisDict) mergeInto(md Binder) {
	for _, name := range d.order {
		md.Bind(name, *d.values[name])
	}
}
