package value

import "sync"

// Symbol is an interned identifier. Two Symbols with the same name are
// always the same *Symbol pointer, so symbol equality — used
// pervasively by the compiler's special-form dispatch and by the
// macro engine's literal matching — is a pointer comparison, never a
// string comparison.
type Symbol struct {
	Name string
}

func (s *Symbol) Type() Type      { return TypeSymbol }
func (s *Symbol) Inspect() string { return s.Name }

var (
	internMu    sync.Mutex
	internTable = make(map[string]*Symbol)
)

// Intern returns the canonical *Symbol for name, creating it on first
// use. All symbol construction in this module must go through Intern
// (or Sym, its short alias used by tests and the reader) so that
// pointer identity holds.
func Intern(name string) *Symbol {
	internMu.Lock()
	defer internMu.Unlock()
	if s, ok := internTable[name]; ok {
		return s
	}
	s := &Symbol{Name: name}
	internTable[name] = s
	return s
}

// Sym is a short alias for Intern, used for readability at call sites
// that build s-expressions by hand (tests, the reader, builtins).
func Sym(name string) *Symbol { return Intern(name) }
