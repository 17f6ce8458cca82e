// Package skime wires the core compiler/VM together with the reader
// and builtins collaborators into a single embeddable interpreter: the
// shape an embedding host (a REPL, a script runner, a test) actually
// wants, rather than hand-assembling reader.ReadAll + vm.New +
// builtins.Install + vm.Compile + vm.Run at every call site.
package skime

import (
	"github.com/dr8co/skime/builtins"
	"github.com/dr8co/skime/reader"
	"github.com/dr8co/skime/value"
	"github.com/dr8co/skime/vm"
)

// Interpreter is one long-lived evaluation session: a VM with its
// global environment pre-populated with the reference primitive
// library. Every Eval compiles against that same global environment,
// so a define-syntax committed by one Eval call stays in scope for the
// next, just as it does within a single begin.
type Interpreter struct {
	VM *vm.VM
}

// New creates an Interpreter with the reference builtins installed.
func New() *Interpreter {
	v := vm.New()
	builtins.Install(v.Global)
	return &Interpreter{VM: v}
}

// Eval reads every top-level form in src, compiles and runs each in
// turn against the session's global environment, and returns the
// value of the last one. An empty or comment-only src evaluates to
// Nil.
func (in *Interpreter) Eval(src string) (value.Value, error) {
	forms, err := reader.ReadAll(src)
	if err != nil {
		return nil, err
	}
	result := value.Value(value.NilValue)
	for _, f := range forms {
		form, err := in.VM.Compile(f, in.VM.Global)
		if err != nil {
			return nil, err
		}
		result, err = in.VM.Run(form)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
