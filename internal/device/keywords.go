package device

import (
	"fmt"
	"slices"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/binder"
	"github.com/roach88/vexharness/internal/ir"
)

// SetKeyword is the reserved keyword that switches a sensor call from
// reading to installing a scripted value.
const SetKeyword = "set"

// splitSet removes the set= keyword from a sensor call's kwargs. It
// reports whether the call is an install.
func splitSet(sig *ir.MethodSig, kwargs []starlark.Tuple) (ir.IRValue, []starlark.Tuple, bool) {
	if sig.Kind != ir.MethodSense {
		return nil, kwargs, false
	}
	for i, kv := range kwargs {
		if string(kv[0].(starlark.String)) == SetKeyword {
			rest := slices.Delete(slices.Clone(kwargs), i, i+1)
			return ToIR(kv[1]), rest, true
		}
	}
	return nil, kwargs, false
}

// mapKeywords turns keyword arguments into positional ones so the binder
// only ever sees positional calls. Parameters skipped between the last
// positional argument and a keyword take their declared defaults.
// params excludes self.
func mapKeywords(name string, params []ir.Param, positional []ir.IRValue, kwargs []starlark.Tuple) ([]ir.IRValue, error) {
	if len(kwargs) == 0 {
		return positional, nil
	}

	assigned := make(map[int]ir.IRValue, len(kwargs))
	last := len(positional) - 1
	for _, kv := range kwargs {
		key := string(kv[0].(starlark.String))
		idx := slices.IndexFunc(params, func(p ir.Param) bool { return p.Name == key })
		if idx < 0 {
			return nil, fmt.Errorf("%s() got an unexpected keyword argument %q", name, key)
		}
		if _, dup := assigned[idx]; dup || idx < len(positional) {
			return nil, fmt.Errorf("%s() got multiple values for argument %q", name, key)
		}
		assigned[idx] = ToIR(kv[1])
		last = max(last, idx)
	}

	out := slices.Clone(positional)
	var missing []string
	for i := len(positional); i <= last; i++ {
		if v, ok := assigned[i]; ok {
			out = append(out, v)
			continue
		}
		if !params[i].HasDefault {
			missing = append(missing, params[i].Name)
			continue
		}
		out = append(out, params[i].Default)
	}
	if len(missing) > 0 {
		return nil, &binder.ArgumentError{
			Code:     binder.ErrCodeMissingArguments,
			Method:   name,
			Declared: len(params),
			Given:    len(positional) + len(kwargs),
			Missing:  missing,
		}
	}
	return out, nil
}
