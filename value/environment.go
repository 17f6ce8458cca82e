package value

// Environment is a single lexical frame: an ordered name→slot-index
// map, a value vector of the same length, and a parent pointer.
// Insertion order defines the index, and once a name is allocated its
// index never changes — the compiler's Builder relies on both
// invariants to resolve (depth, index) pairs at compile time that
// remain valid no matter how many times the frame is later
// instantiated at runtime.
//
// A fresh Environment is created on procedure entry (Dup) and once at
// the top level before the first form is compiled.
type Environment struct {
	// Parent is the lexically enclosing frame, or nil at the top level.
	Parent *Environment

	names  map[string]int
	slots  []Value
}

// NewEnvironment creates an empty frame enclosed by parent (nil for
// the top-level environment).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		Parent: parent,
		names:  make(map[string]int),
	}
}

// Alloc allocates a new slot named name and returns its index. If name
// is already defined in this frame, the existing index is returned and
// the slot is not duplicated — redefinition in the same frame reuses
// the slot, so the last definition's value wins, and the slot index
// itself is stable once allocated.
func (e *Environment) Alloc(name string) int {
	if idx, ok := e.names[name]; ok {
		return idx
	}
	idx := len(e.slots)
	e.names[name] = idx
	e.slots = append(e.slots, NilValue)
	return idx
}

// FindLocal returns the slot index of name in this frame only, without
// walking Parent. ok is false if name is not bound here.
func (e *Environment) FindLocal(name string) (idx int, ok bool) {
	idx, ok = e.names[name]
	return
}

// FindDepth walks the parent chain starting at e looking for name,
// returning the number of parent hops and the slot index at that
// depth. ok is false if no ancestor frame (including e) binds name.
func (e *Environment) FindDepth(name string) (depth, idx int, ok bool) {
	env := e
	for env != nil {
		if i, found := env.names[name]; found {
			return depth, i, true
		}
		depth++
		env = env.Parent
	}
	return 0, 0, false
}

// ReadLocal returns the value bound at idx in this frame.
func (e *Environment) ReadLocal(idx int) Value {
	return e.slots[idx]
}

// AssignLocal stores val at idx in this frame.
func (e *Environment) AssignLocal(idx int, val Value) {
	e.slots[idx] = val
}

// AtDepth walks d parent hops from e and returns the frame found
// there. Depth 0 returns e itself.
func (e *Environment) AtDepth(d int) *Environment {
	env := e
	for d > 0 {
		env = env.Parent
		d--
	}
	return env
}

// Dup creates a fresh frame with the same name table and parent as e
// but a new, independently-mutable value vector initialized to Nil.
// The VM calls Dup on a Procedure's captured environment template on
// every call so that recursive and re-entrant invocations never alias
// each other's locals.
func (e *Environment) Dup() *Environment {
	slots := make([]Value, len(e.slots))
	for i := range slots {
		slots[i] = NilValue
	}
	return &Environment{
		Parent: e.Parent,
		names:  e.names,
		slots:  slots,
	}
}

// NumSlots reports how many slots this frame currently has allocated.
func (e *Environment) NumSlots() int {
	return len(e.slots)
}
