package harness

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/ir"
)

// FuncArgs are the arguments for a compare-by-function call.
type FuncArgs struct {
	Positional []ir.IRValue
	Keywords   ir.IRObject
}

// ParseFuncArgs decodes a JSON list (positional arguments) or a JSON object
// (keyword arguments). An empty string means no arguments.
func ParseFuncArgs(s string) (FuncArgs, error) {
	if strings.TrimSpace(s) == "" {
		return FuncArgs{}, nil
	}

	v, err := ir.ParseJSON([]byte(s))
	if err != nil {
		return FuncArgs{}, fmt.Errorf("parse function args: %w", err)
	}

	switch val := v.(type) {
	case ir.IRArray:
		return FuncArgs{Positional: val}, nil
	case ir.IRObject:
		return FuncArgs{Keywords: val}, nil
	default:
		return FuncArgs{}, fmt.Errorf("parse function args: want a JSON list or object, got %s", ir.Sanitize(v))
	}
}

func (a FuncArgs) positional() starlark.Tuple {
	out := make(starlark.Tuple, len(a.Positional))
	for i, v := range a.Positional {
		out[i] = device.FromIR(v)
	}
	return out
}

func (a FuncArgs) keywords() []starlark.Tuple {
	if len(a.Keywords) == 0 {
		return nil
	}
	out := make([]starlark.Tuple, 0, len(a.Keywords))
	for _, k := range a.Keywords.SortedKeys() {
		out = append(out, starlark.Tuple{starlark.String(k), device.FromIR(a.Keywords[k])})
	}
	return out
}
