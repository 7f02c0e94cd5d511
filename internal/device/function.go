package device

import (
	"fmt"
	"hash/fnv"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/mockstore"
)

// Function is an instrumented free function such as wait. A sensing free
// function owns its own mock store since it has no instance.
type Function struct {
	sig   *ir.MethodSig
	store *mockstore.Store
	rt    *Runtime
}

var _ starlark.Callable = (*Function)(nil)

func (f *Function) Name() string { return f.sig.Name }
func (f *Function) String() string {
	return fmt.Sprintf("<built-in function %s>", f.sig.Name)
}
func (f *Function) Type() string         { return "builtin_function_or_method" }
func (f *Function) Freeze()              {}
func (f *Function) Truth() starlark.Bool { return starlark.True }

func (f *Function) Hash() (uint32, error) {
	h := fnv.New32a()
	h.Write([]byte(f.sig.Name))
	return h.Sum32(), nil
}

// Store returns the function's scripted sensor values.
func (f *Function) Store() *mockstore.Store { return f.store }

func (f *Function) CallInternal(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return f.rt.invoke(f.sig, f.store, nil, args, kwargs)
}
